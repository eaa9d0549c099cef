package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Actors/internal/config"
	"github.com/shaiso/Actors/internal/domain"
	"github.com/shaiso/Actors/internal/runner"
)

type fakeSamples struct {
	sink string
}

func (f *fakeSamples) ListByRun(_ context.Context, runID uuid.UUID, sink string, _ int) ([]domain.Sample, error) {
	f.sink = sink
	return []domain.Sample{{RunID: runID, Sink: "logging_1", Port: "Y", Step: 0, Values: []float64{2}}}, nil
}

func newServer(t *testing.T, samples SampleReader) (*httptest.Server, *runner.Runner) {
	t.Helper()

	r, err := runner.New(runner.Config{Scenarios: []*config.Scenario{{
		Name:   "mount",
		Script: "#[model(name = mount, state = completed)]\n1: src[U] -> amp[Y]$\n",
		Clients: []config.ClientSpec{
			{Name: "src", Kind: "signals", Params: map[string]any{"output": "U", "steps": 3, "value": 1.0}},
			{Name: "amp", Kind: "gain", Params: map[string]any{"input": "U", "output": "Y", "gain": 2.0}},
		},
	}}})
	require.NoError(t, err)
	t.Cleanup(r.Stop)

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "actors_test_total"}))

	mux := http.NewServeMux()
	NewHandler(Config{Runner: r, Samples: samples, Gatherer: reg}).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, r
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newServer(t, nil)

	var body struct {
		Data HealthResponse `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/healthz", &body))
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, 1, body.Data.Scenarios)
}

func TestMetrics(t *testing.T) {
	srv, _ := newServer(t, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	text, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "actors_test_total")
}

func TestScenarios(t *testing.T) {
	srv, _ := newServer(t, nil)

	var list struct {
		Data  []ScenarioResponse `json:"data"`
		Total int                `json:"total"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/scenarios", &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "mount", list.Data[0].Name)
	assert.Empty(t, list.Data[0].Script)

	var one struct {
		Data ScenarioResponse `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/scenarios/mount", &one))
	assert.Contains(t, one.Data.Script, "src[U]")
	assert.Len(t, one.Data.Clients, 2)

	var errBody ErrorResponse
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/scenarios/missing", &errBody))
	assert.Equal(t, ErrCodeNotFound, errBody.Error.Code)
}

func TestProgramAndGraph(t *testing.T) {
	srv, _ := newServer(t, nil)

	var prog struct {
		Data struct {
			Actors []struct {
				Name   string `json:"name"`
				InRate int    `json:"in_rate"`
			} `json:"actors"`
		} `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/scenarios/mount/program", &prog))
	require.Len(t, prog.Data.Actors, 3)
	assert.Equal(t, "logging_1", prog.Data.Actors[2].Name)

	var g struct {
		Data struct {
			Name  string `json:"name"`
			Nodes []any  `json:"nodes"`
		} `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/scenarios/mount/graph", &g))
	assert.Equal(t, "mount", g.Data.Name)
	assert.Len(t, g.Data.Nodes, 3)

	resp, err := http.Get(srv.URL + "/api/v1/scenarios/mount/graph?format=dot")
	require.NoError(t, err)
	defer resp.Body.Close()
	dot, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(dot), "digraph"), string(dot))

	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/v1/scenarios/mount/graph?format=svg", nil))
}

func TestRuns(t *testing.T) {
	srv, r := newServer(t, &fakeSamples{})

	resp, err := http.Post(srv.URL+"/api/v1/scenarios/mount/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var created struct {
		Data RunResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "PENDING", created.Data.Status)

	require.Eventually(t, func() bool {
		run, err := r.Get(context.Background(), created.Data.ID)
		return err == nil && run.IsFinished()
	}, 5*time.Second, 10*time.Millisecond)

	var one struct {
		Data RunResponse `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/runs/"+created.Data.ID.String(), &one))
	assert.Equal(t, "SUCCEEDED", one.Data.Status)
	assert.Equal(t, "COMPLETED", one.Data.State)
	assert.Equal(t, 3, one.Data.Actors)

	var list struct {
		Data []RunResponse `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/runs?scenario=mount&status=SUCCEEDED", &list))
	assert.Len(t, list.Data, 1)

	var samples struct {
		Data []SampleResponse `json:"data"`
	}
	assert.Equal(t, http.StatusOK, get(t, srv.URL+"/api/v1/runs/"+created.Data.ID.String()+"/samples?sink=logging_1", &samples))
	require.Len(t, samples.Data, 1)
	assert.Equal(t, []float64{2}, samples.Data[0].Values)

	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/v1/runs?status=DONE", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, srv.URL+"/api/v1/runs/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/runs/"+uuid.NewString(), nil))

	resp, err = http.Post(srv.URL+"/api/v1/scenarios/missing/runs", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSamplesRouteOptional(t *testing.T) {
	srv, _ := newServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/api/v1/runs/"+uuid.NewString()+"/samples", nil))
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 7, parseInt("", 7))
	assert.Equal(t, 3, parseInt("3", 7))
	assert.Equal(t, 7, parseInt("-1", 7))
	assert.Equal(t, 7, parseInt("x", 7))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
