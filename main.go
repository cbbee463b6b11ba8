package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agent_orchestrator/internal/agents"
	"agent_orchestrator/internal/config"
	"agent_orchestrator/internal/engine"
	"agent_orchestrator/internal/llm"
	"agent_orchestrator/internal/logger"
	"agent_orchestrator/internal/memory"
	"agent_orchestrator/internal/retrieval"
	"agent_orchestrator/internal/router"
	"agent_orchestrator/internal/search"
	"agent_orchestrator/internal/server"
	"agent_orchestrator/internal/synthesizer"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	oneShot := flag.String("query", "", "answer a single query and exit instead of serving HTTP")
	sessionID := flag.String("session", "cli", "session id for one-shot queries")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build engine")
	}

	if *oneShot != "" {
		result := eng.ProcessQuery(ctx, *sessionID, *oneShot)
		fmt.Printf("Route: %s (confidence %.2f)\n", result.Route, result.Confidence)
		fmt.Printf("Reasoning: %s\n\n", result.Reasoning)
		fmt.Println(result.FinalText)
		if result.Error != nil {
			fmt.Printf("\nError: [%s] %s\n", result.Error.Code, result.Error.Message)
			os.Exit(1)
		}
		return
	}

	srv := server.New(cfg.Server, eng)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info().Msg("Shutting down")
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("Server exited")
	}
}

// buildEngine wires every collaborator from configuration: three
// generators at their per-purpose temperatures, the search client with
// its cache, the knowledge-base index, the session store, the three
// backends and the workflow engine around them.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	routerGen, err := llm.New(ctx, cfg.LLM, cfg.LLM.Temperature.Router)
	if err != nil {
		return nil, fmt.Errorf("failed to create router model: %w", err)
	}
	generalGen, err := llm.New(ctx, cfg.LLM, cfg.LLM.Temperature.General)
	if err != nil {
		return nil, fmt.Errorf("failed to create general model: %w", err)
	}
	synthGen, err := llm.New(ctx, cfg.LLM, cfg.LLM.Temperature.Synthesis)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis model: %w", err)
	}

	searchClient := search.NewCachedClient(
		search.NewTavilyClient(cfg.Search.APIKey, cfg.Search.BaseURL, cfg.Timeouts.Search.Std()),
		cfg.Search.CacheTTL.Std(),
	)

	store := retrieval.NewVectorStore(retrieval.NewHashEmbedder(256))
	if cfg.Retrieval.DataDir != "" {
		docs, err := retrieval.LoadDirectory(cfg.Retrieval.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge base: %w", err)
		}
		if err := store.Add(ctx, docs); err != nil {
			return nil, fmt.Errorf("failed to index knowledge base: %w", err)
		}
		logger.Info().Int("chunks", store.Len()).Str("dir", cfg.Retrieval.DataDir).Msg("Knowledge base indexed")
	} else {
		logger.Warn().Msg("No retrieval data_dir configured, knowledge base is empty")
	}

	sessions, err := memory.New(ctx, cfg.Memory.Store, cfg.Memory.WindowTurns, memory.RedisOptions{TTL: cfg.Memory.RedisTTL.Std()})
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	dispatch, err := agents.NewDispatch(
		agents.NewGeneralAgent(generalGen),
		agents.NewWebAgent(searchClient, generalGen, cfg.Search.MaxResults),
		agents.NewKnowledgeBaseAgent(store, generalGen, cfg.Retrieval.TopK, cfg.Retrieval.MinRelevance),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatch table: %w", err)
	}

	return engine.New(
		router.New(routerGen, cfg.Router),
		dispatch,
		synthesizer.New(synthGen, true),
		sessions,
		cfg.Timeouts,
	), nil
}
