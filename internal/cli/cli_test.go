package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mountYAML = `name: mount
script: |
  #[model(name = mount, state = completed)]
  1: src[U] -> amp[Y]$
clients:
  - name: src
    kind: signals
    params: {output: U, steps: 3, value: 1.0}
  - name: amp
    kind: gain
    params: {input: U, output: Y, gain: 2.0}
`

type harness struct {
	out    bytes.Buffer
	errOut bytes.Buffer
	json   bool
}

func (h *harness) output() *Output {
	return NewOutputTo(&h.out, &h.errOut, h.json)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.Execute()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompile(t *testing.T) {
	h := &harness{}
	path := writeFile(t, "mount.flow", "1: src[U] -> amp[Y]$\n")

	require.NoError(t, execute(NewCompileCmd(h.output), path))

	out := h.out.String()
	assert.Contains(t, out, "logging_1")
	assert.Contains(t, out, "FLAGS")
	assert.Contains(t, h.errOut.String(), "3 actors, 2 wires")
}

func TestCompile_Stdin(t *testing.T) {
	h := &harness{json: true}
	cmd := NewCompileCmd(h.output)
	cmd.SetIn(strings.NewReader("1: src[U] -> amp[Y]~\n"))

	require.NoError(t, execute(cmd, "-"))

	var prog struct {
		Actors []struct {
			Name string `json:"name"`
		} `json:"actors"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &prog))
	var names []string
	for _, a := range prog.Actors {
		names = append(names, a.Name)
	}
	assert.Contains(t, names, "scope_amp_Y")
}

func TestCompile_SyntaxError(t *testing.T) {
	h := &harness{}
	path := writeFile(t, "bad.flow", "1: src[U] ->\n")
	assert.Error(t, execute(NewCompileCmd(h.output), path))
}

func TestCheck(t *testing.T) {
	h := &harness{}
	path := writeFile(t, "mount.yaml", mountYAML)

	require.NoError(t, execute(NewCheckCmd(h.output, discardLogger), path))
	assert.Contains(t, h.errOut.String(), "model mount is READY: 3 actors")
}

func TestCheck_Unbound(t *testing.T) {
	h := &harness{}
	path := writeFile(t, "net.flow", "1: src[U] -> amp[Y]\n")
	assert.Error(t, execute(NewCheckCmd(h.output, discardLogger), path))
}

func TestGraph(t *testing.T) {
	path := writeFile(t, "mount.yaml", mountYAML)

	h := &harness{}
	require.NoError(t, execute(NewGraphCmd(h.output, discardLogger), path, "--stdout"))
	assert.True(t, strings.HasPrefix(h.out.String(), "digraph"), h.out.String())

	dir := t.TempDir()
	h = &harness{}
	require.NoError(t, execute(NewGraphCmd(h.output, discardLogger), path, "--dir", dir))

	files, err := filepath.Glob(filepath.Join(dir, "*.dot"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, h.errOut.String(), files[0])
}

func TestRun(t *testing.T) {
	h := &harness{}
	path := writeFile(t, "mount.yaml", mountYAML)

	require.NoError(t, execute(NewRunCmd(h.output, discardLogger), path, "--samples"))

	out := h.out.String()
	assert.Contains(t, out, "TERMINATION")
	assert.Contains(t, out, "logging_1")
	assert.Contains(t, h.errOut.String(), "SUCCEEDED")
	assert.Contains(t, h.errOut.String(), "3 samples")
}

func TestRun_JSON(t *testing.T) {
	h := &harness{json: true}
	path := writeFile(t, "mount.yaml", mountYAML)

	require.NoError(t, execute(NewRunCmd(h.output, discardLogger), path))

	var result struct {
		Run struct {
			Status string `json:"status"`
			State  string `json:"state"`
		} `json:"run"`
		Samples []struct {
			Values []float64 `json:"values"`
		} `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &result))
	assert.Equal(t, "SUCCEEDED", result.Run.Status)
	assert.Equal(t, "COMPLETED", result.Run.State)
	require.Len(t, result.Samples, 3)
	assert.Equal(t, []float64{2}, result.Samples[0].Values)
}

func TestRun_Failed(t *testing.T) {
	h := &harness{}
	path := writeFile(t, "mount.yaml", strings.Replace(mountYAML, "kind: gain", "kind: amplifier", 1))

	err := execute(NewRunCmd(h.output, discardLogger), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAILED")
}

func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/scenarios", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[{"name":"mount","schedule":"@every 1h"}],"total":1}`)
	})
	mux.HandleFunc("GET /api/v1/scenarios/{name}/graph", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "digraph mount {}\n")
	})
	mux.HandleFunc("POST /api/v1/scenarios/{name}/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("name") != "mount" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"scenario not found"}}`)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, `{"data":{"id":"r-1","scenario":"mount","status":"PENDING","state":"UNKNOWN"}}`)
	})
	mux.HandleFunc("GET /api/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SUCCEEDED", r.URL.Query().Get("status"))
		io.WriteString(w, `{"data":[{"id":"r-1","scenario":"mount","status":"SUCCEEDED","state":"COMPLETED","actors":3}],"total":1}`)
	})
	mux.HandleFunc("GET /api/v1/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"id":"r-1","scenario":"mount","status":"SUCCEEDED","state":"COMPLETED","actors":3,`+
			`"reports":[{"actor":"src","kind":"COMPLETED"}]}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteCommands(t *testing.T) {
	srv := apiServer(t)
	clientFn := func() *Client { return NewClient(srv.URL) }

	h := &harness{}
	require.NoError(t, execute(NewScenariosCmd(clientFn, h.output), "list"))
	assert.Contains(t, h.out.String(), "@every 1h")

	h = &harness{}
	require.NoError(t, execute(NewScenariosCmd(clientFn, h.output), "graph", "mount"))
	assert.Equal(t, "digraph mount {}\n", h.out.String())

	h = &harness{}
	require.NoError(t, execute(NewRunsCmd(clientFn, h.output), "start", "mount"))
	assert.Contains(t, h.errOut.String(), "Run r-1 started")

	h = &harness{}
	err := execute(NewRunsCmd(clientFn, h.output), "start", "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND: scenario not found", err.Error())

	h = &harness{}
	require.NoError(t, execute(NewRunsCmd(clientFn, h.output), "list", "--status", "SUCCEEDED"))
	assert.Contains(t, h.out.String(), "COMPLETED")

	h = &harness{json: true}
	require.NoError(t, execute(NewRunsCmd(clientFn, h.output), "show", "r-1"))
	var run RunResponse
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &run))
	assert.Equal(t, 3, run.Actors)
	require.Len(t, run.Reports, 1)
	assert.Equal(t, "src", run.Reports[0].Actor)
}
