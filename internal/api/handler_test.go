package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecampos-dev/epinet/internal/attendance"
	"github.com/ecampos-dev/epinet/internal/epidemic"
	"github.com/ecampos-dev/epinet/internal/network"
	"github.com/ecampos-dev/epinet/internal/topology"
	"github.com/ecampos-dev/epinet/pkg/config"
)

var testDays = []string{"Monday", "Tuesday", "Wednesday"}

// newTestServer wires the full handler against an in-memory store with four
// students sharing one class across three days. No Kafka, no Redis.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := attendance.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.UpsertClass(ctx, attendance.Class{ID: "homeroom", DurationHours: 1}))
	for _, student := range []string{"s1", "s2", "s3", "s4"} {
		for _, day := range testDays {
			require.NoError(t, store.UpsertFact(ctx, attendance.Fact{
				StudentID: student, ClassID: "homeroom", Day: day, Present: true,
			}))
		}
	}

	netCache := network.NewCache(8, nil)
	provider := network.NewProvider(store, netCache, nil)
	registry := epidemic.NewRegistry()
	simulator := epidemic.NewSimulator(provider, registry, nil, nil, testDays)
	analyzer := topology.NewAnalyzer(provider, topology.NewResultCache(nil, config.RedisConfig{}), nil)

	h := New(simulator, registry, analyzer, provider, netCache, Defaults{
		Beta:         0.3,
		PatientsZero: 1,
		WeightMode:   "uniform",
	})
	mux := http.NewServeMux()
	h.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func startRun(t *testing.T, server *httptest.Server, body map[string]any) string {
	t.Helper()
	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	runID, ok := decoded["run_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, runID)
	return runID
}

func TestStartSimulationDefaultsAndSeed(t *testing.T) {
	server := newTestServer(t)

	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations", map[string]any{
		"seed": 42, "num_patients_zero": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "running", decoded["state"])
	assert.Equal(t, 0.3, decoded["beta"])
	assert.Equal(t, float64(42), decoded["seed"])
	assert.Len(t, decoded["patients_zero"], 2)
	assert.Equal(t, float64(2), decoded["total_infected"])
}

func TestStartSimulationRejectsBadParams(t *testing.T) {
	server := newTestServer(t)

	cases := []map[string]any{
		{"beta": 1.5},
		{"beta": -0.1},
		{"num_patients_zero": 0},
		{"num_patients_zero": 99},
		{"weight_mode": "bogus"},
	}
	for _, body := range cases {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %v", body)
	}
}

func TestTickDefaultsToNextDay(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 7})

	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations/"+runID+"/tick", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Monday", decoded["day"])
	assert.Equal(t, float64(0), decoded["day_number"])

	resp, decoded = doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations/"+runID+"/tick", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Tuesday", decoded["day"])
}

func TestTickExplicitDay(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 7})

	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations/"+runID+"/tick",
		map[string]any{"day": "Wednesday"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Wednesday", decoded["day"])
}

func TestTickUnknownDayIs404(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 7})

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations/"+runID+"/tick",
		map[string]any{"day": "Sunday"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunToCompletionAndTimeline(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 11})

	resp, decoded := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations/"+runID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", decoded["state"])
	assert.Len(t, decoded["ticks"], len(testDays))

	// Ticking a finished run conflicts.
	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations/"+runID+"/tick", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, decoded = doJSON(t, http.MethodGet, server.URL+"/api/v1/simulations/"+runID+"/timeline", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	timeline, ok := decoded["timeline"].([]any)
	require.True(t, ok)
	require.Len(t, timeline, len(testDays))
	first := timeline[0].(map[string]any)
	assert.Equal(t, "Monday", first["day"])
}

func TestSimulationTree(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 11, "beta": 0.9})

	// Before any tick the tree is empty.
	resp, decoded := doJSON(t, http.MethodGet, server.URL+"/api/v1/simulations/"+runID+"/tree", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), decoded["num_transmissions"])

	resp, summary := doJSON(t, http.MethodPost, server.URL+"/api/v1/simulations/"+runID+"/run", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, decoded = doJSON(t, http.MethodGet, server.URL+"/api/v1/simulations/"+runID+"/tree", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edges, ok := decoded["edges"].([]any)
	require.True(t, ok)
	require.Len(t, edges, int(decoded["num_transmissions"].(float64)))

	// One edge per infection beyond the patient zero.
	ticks := summary["ticks"].([]any)
	last := ticks[len(ticks)-1].(map[string]any)
	assert.Equal(t, last["total_infected"].(float64)-1, decoded["num_transmissions"])

	for _, raw := range edges {
		edge := raw.(map[string]any)
		assert.NotEmpty(t, edge["source"])
		assert.NotEmpty(t, edge["target"])
		assert.Greater(t, edge["weight"].(float64), 0.0)
		assert.Contains(t, testDays, edge["day"])
	}

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/simulations/ghost/tree", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInfectedComponents(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 11})

	// Before any tick the endpoint needs an explicit day.
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/v1/simulations/"+runID+"/components", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, decoded := doJSON(t, http.MethodGet,
		server.URL+"/api/v1/simulations/"+runID+"/components?day=Monday", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	components, ok := decoded["components"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, components)
}

func TestDiscardSimulation(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 1})

	resp, _ := doJSON(t, http.MethodDelete, server.URL+"/api/v1/simulations/"+runID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/simulations/"+runID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownRunIs404(t *testing.T) {
	server := newTestServer(t)
	for _, path := range []string{
		"/api/v1/simulations/ghost",
		"/api/v1/simulations/ghost/timeline",
	} {
		resp, _ := doJSON(t, http.MethodGet, server.URL+path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestNodesEndpoint(t *testing.T) {
	server := newTestServer(t)
	runID := startRun(t, server, map[string]any{"seed": 2, "num_patients_zero": 2})

	resp, decoded := doJSON(t, http.MethodGet, server.URL+"/api/v1/nodes?run_id="+runID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(4), decoded["count"])

	nodes, ok := decoded["nodes"].([]any)
	require.True(t, ok)
	require.Len(t, nodes, 4)

	infected := 0
	for _, raw := range nodes {
		node := raw.(map[string]any)
		assert.NotEmpty(t, node["student_id"])
		pos, ok := node["position_3d"].([]any)
		require.True(t, ok)
		assert.Len(t, pos, 3)
		if node["infected"].(bool) {
			infected++
		}
	}
	assert.Equal(t, 2, infected)
}

func TestTopologyEndpoints(t *testing.T) {
	server := newTestServer(t)

	for _, analysis := range []string{"mst", "components", "centrality", "degree"} {
		url := fmt.Sprintf("%s/api/v1/topology/%s?day=Monday", server.URL, analysis)
		resp, decoded := doJSON(t, http.MethodGet, url, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, analysis)
		assert.Equal(t, "Monday", decoded["day"])
	}

	resp, decoded := doJSON(t, http.MethodGet,
		server.URL+"/api/v1/topology/mst?day=Monday&mst_mode=uniform&weight_mode=duration", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	// 4-node clique reduces to 3 spanning edges.
	assert.Len(t, decoded["edges"], 3)
	assert.Equal(t, float64(1), decoded["num_components"])
}

func TestTopologyValidation(t *testing.T) {
	server := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/v1/topology/mst", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/topology/bogus?day=Monday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/topology/mst?day=Monday&mst_mode=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/api/v1/topology/mst?day=Sunday", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDaysEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp, decoded := doJSON(t, http.MethodGet, server.URL+"/api/v1/days", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decoded["days"], len(testDays))
}

func TestCacheStatsAndInvalidate(t *testing.T) {
	server := newTestServer(t)

	// Populate the matrix cache.
	resp, _ := doJSON(t, http.MethodGet, server.URL+"/api/v1/topology/components?day=Monday", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, decoded := doJSON(t, http.MethodGet, server.URL+"/api/v1/cache/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	netStats, ok := decoded["network"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), netStats["cached"])

	resp, decoded = doJSON(t, http.MethodPost, server.URL+"/api/v1/cache/invalidate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "invalidated", decoded["status"])

	_, decoded = doJSON(t, http.MethodGet, server.URL+"/api/v1/cache/stats", nil)
	netStats = decoded["network"].(map[string]any)
	assert.Equal(t, float64(0), netStats["cached"])
}
