package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agent_orchestrator/internal/agents"
	"agent_orchestrator/internal/config"
	"agent_orchestrator/internal/core"
	"agent_orchestrator/internal/engine"
	"agent_orchestrator/internal/llm"
	"agent_orchestrator/internal/memory"
	"agent_orchestrator/internal/router"
	"agent_orchestrator/internal/synthesizer"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoAgent struct {
	route core.Route
}

func (a echoAgent) Route() core.Route { return a.route }
func (a echoAgent) Answer(ctx context.Context, query string, win memory.ContextWindow) (agents.Result, error) {
	return agents.Result{Text: "answer to: " + query}, nil
}

func testServer(t *testing.T) *Server {
	t.Helper()

	dispatch, err := agents.NewDispatch(
		echoAgent{core.RouteGeneral},
		echoAgent{core.RouteWeb},
		echoAgent{core.RouteKnowledgeBase},
	)
	require.NoError(t, err)

	gen := llm.GenerateFunc(func(ctx context.Context, messages []*schema.Message) (string, error) {
		return "general", nil
	})

	eng := engine.New(
		router.New(gen, config.RouterConfig{RuleConfidence: 0.9, FallbackConfidence: 0.3}),
		dispatch,
		synthesizer.New(nil, false),
		memory.NewMemoryStore(3),
		config.TimeoutConfig{
			Backend:  config.Duration(time.Second),
			Generate: config.Duration(time.Second),
		},
	)
	return New(config.ServerConfig{Addr: ":0"}, eng)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	resp, body := doJSON(t, s, fiber.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestQueryEndpoint(t *testing.T) {
	s := testServer(t)

	resp, body := doJSON(t, s, fiber.MethodPost, "/api/v1/query", QueryRequest{
		SessionID: "s1",
		Query:     "What is machine learning?",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result core.QueryResult
	require.NoError(t, sonic.Unmarshal(body, &result))
	assert.Equal(t, core.RouteGeneral, result.Route)
	assert.Equal(t, "answer to: What is machine learning?", result.FinalText)
	assert.Nil(t, result.Error)
}

func TestQueryEndpointEmptyQuery(t *testing.T) {
	s := testServer(t)

	resp, body := doJSON(t, s, fiber.MethodPost, "/api/v1/query", QueryRequest{Query: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "bad_request")
}

func TestQueryEndpointDefaultSession(t *testing.T) {
	s := testServer(t)

	resp, _ := doJSON(t, s, fiber.MethodPost, "/api/v1/query", QueryRequest{Query: "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, s, fiber.MethodGet, "/api/v1/sessions/default/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats memory.Stats
	require.NoError(t, sonic.Unmarshal(body, &stats))
	assert.Equal(t, 1, stats.TurnCount)
}

func TestResetEndpoint(t *testing.T) {
	s := testServer(t)

	doJSON(t, s, fiber.MethodPost, "/api/v1/query", QueryRequest{SessionID: "s1", Query: "hello"})

	resp, _ := doJSON(t, s, fiber.MethodPost, "/api/v1/sessions/s1/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body := doJSON(t, s, fiber.MethodGet, "/api/v1/sessions/s1/stats", nil)
	var stats memory.Stats
	require.NoError(t, sonic.Unmarshal(body, &stats))
	assert.Equal(t, 0, stats.TurnCount)
}
