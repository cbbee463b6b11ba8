package config

import (
	"fmt"
	"os"
	"time"

	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/logger"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface. It is loaded once at
// startup; anything invalid fails there and never mid-session.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Router    RouterConfig    `yaml:"router"`
	Memory    MemoryConfig    `yaml:"memory"`
	Search    SearchConfig    `yaml:"search"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Server    ServerConfig    `yaml:"server"`
	Log       logger.Config   `yaml:"log"`
}

// LLMConfig selects and configures the text-generation provider.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai or ollama
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
	// APIKey is populated from the environment, never from the file.
	APIKey string `yaml:"-"`

	Temperature TemperatureConfig `yaml:"temperature"`
}

// TemperatureConfig holds per-purpose sampling temperatures. Routing
// runs cold for consistency, synthesis in between, general answers warm.
type TemperatureConfig struct {
	Router    float64 `yaml:"router"`
	General   float64 `yaml:"general"`
	Synthesis float64 `yaml:"synthesis"`
}

// RouterConfig configures the keyword pre-filter and fallback values.
// The recency and entity sets must be disjoint; when a query matches
// both anyway, recency wins and the query goes to the web backend.
type RouterConfig struct {
	RecencyKeywords    []string `yaml:"recency_keywords"`
	EntityKeywords     []string `yaml:"entity_keywords"`
	RuleConfidence     float64  `yaml:"rule_confidence"`
	FallbackConfidence float64  `yaml:"fallback_confidence"`
}

// MemoryConfig selects the session store and bounds the context window.
type MemoryConfig struct {
	Store       string   `yaml:"store"` // memory or redis
	WindowTurns int      `yaml:"window_turns"`
	RedisTTL    Duration `yaml:"redis_ttl"`
}

// SearchConfig configures the web-search client.
type SearchConfig struct {
	MaxResults int      `yaml:"max_results"`
	CacheTTL   Duration `yaml:"cache_ttl"`
	BaseURL    string   `yaml:"base_url"`
	// APIKey is populated from the environment.
	APIKey string `yaml:"-"`
}

// RetrievalConfig configures the knowledge-base store.
type RetrievalConfig struct {
	TopK         int     `yaml:"top_k"`
	MinRelevance float64 `yaml:"min_relevance"`
	DataDir      string  `yaml:"data_dir"`
}

// TimeoutConfig bounds every external call. A timeout is handled the
// same way as a hard service error.
type TimeoutConfig struct {
	Backend  Duration `yaml:"backend"`
	Generate Duration `yaml:"generate"`
	Search   Duration `yaml:"search"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the YAML config file, overlays secrets from the
// environment, applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}

	cfg.applyDefaults()
	cfg.overlayEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "openai/gpt-4o-mini"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.Temperature.Router == 0 {
		c.LLM.Temperature.Router = 0.1
	}
	if c.LLM.Temperature.General == 0 {
		c.LLM.Temperature.General = 0.7
	}
	if c.LLM.Temperature.Synthesis == 0 {
		c.LLM.Temperature.Synthesis = 0.5
	}

	if len(c.Router.RecencyKeywords) == 0 {
		c.Router.RecencyKeywords = []string{
			"latest", "current", "recent", "today", "now", "news", "price", "2024", "2025",
		}
	}
	if len(c.Router.EntityKeywords) == 0 {
		c.Router.EntityKeywords = []string{
			"technova", "our company", "our revenue", "our product", "financial report", "q1", "q2", "annual",
		}
	}
	if c.Router.RuleConfidence == 0 {
		c.Router.RuleConfidence = 0.9
	}
	if c.Router.FallbackConfidence == 0 {
		c.Router.FallbackConfidence = 0.3
	}

	if c.Memory.Store == "" {
		c.Memory.Store = "memory"
	}
	if c.Memory.WindowTurns == 0 {
		c.Memory.WindowTurns = 3
	}
	if c.Memory.RedisTTL == 0 {
		c.Memory.RedisTTL = Duration(40 * time.Minute)
	}

	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 5
	}
	if c.Search.CacheTTL == 0 {
		c.Search.CacheTTL = Duration(5 * time.Minute)
	}
	if c.Search.BaseURL == "" {
		c.Search.BaseURL = "https://api.tavily.com"
	}

	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 3
	}
	if c.Retrieval.MinRelevance == 0 {
		c.Retrieval.MinRelevance = 0.35
	}

	if c.Timeouts.Backend == 0 {
		c.Timeouts.Backend = Duration(30 * time.Second)
	}
	if c.Timeouts.Generate == 0 {
		c.Timeouts.Generate = Duration(20 * time.Second)
	}
	if c.Timeouts.Search == 0 {
		c.Timeouts.Search = Duration(10 * time.Second)
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

func (c *Config) overlayEnv() {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.LLM.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	c.Search.APIKey = os.Getenv("TAVILY_API_KEY")
}

// Validate checks that every required external-service setting is
// present. Failures here wrap core.ErrConfiguration and abort startup.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: OPENROUTER_API_KEY or OPENAI_API_KEY is required for the openai provider", core.ErrConfiguration)
		}
	case "ollama":
		// Local provider, no key required.
	default:
		return fmt.Errorf("%w: unknown llm provider '%s'", core.ErrConfiguration, c.LLM.Provider)
	}

	switch c.Memory.Store {
	case "memory":
	case "redis":
		if os.Getenv("REDIS_URL") == "" {
			return fmt.Errorf("%w: REDIS_URL is required for the redis session store", core.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown memory store '%s'", core.ErrConfiguration, c.Memory.Store)
	}

	if c.Search.APIKey == "" {
		return fmt.Errorf("%w: TAVILY_API_KEY is required for the web backend", core.ErrConfiguration)
	}

	if c.Memory.WindowTurns < 1 {
		return fmt.Errorf("%w: memory.window_turns must be at least 1", core.ErrConfiguration)
	}

	return nil
}
