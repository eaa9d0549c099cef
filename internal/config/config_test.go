package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mountScenario = `
name: mount
schedule: "*/5 * * * *"
script: |
  #[model(state = completed)]
  1: src[U] -> amp[Y]$
clients:
  - name: src
    kind: signals
    params:
      output: U
      steps: 10
      signals:
        - type: sinusoid
          amplitude: 2.5
  - name: amp
    kind: gain
    params: {input: U, output: Y, gain: 2}
`

func TestFromEnv(t *testing.T) {
	t.Setenv("DB_URL", "postgres://x")
	t.Setenv("RUNNER_PORT", "9000")
	t.Setenv("DATA_REPO", "")
	t.Setenv("RABBITMQ_URL", "")

	env := FromEnv()
	assert.Equal(t, "postgres://x", env.DBURL)
	assert.Equal(t, 9000, env.RunnerPort)
	assert.Equal(t, ":9000", env.Addr())
	assert.Equal(t, DefaultDataRepo, env.DataRepo)
	assert.Equal(t, DefaultRabbitMQURL, env.RabbitMQURL)

	t.Setenv("RUNNER_PORT", "not a port")
	assert.Equal(t, DefaultRunnerPort, FromEnv().RunnerPort)
}

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(mountScenario))
	require.NoError(t, err)

	assert.Equal(t, "mount", s.Name)
	assert.Equal(t, "*/5 * * * *", s.Schedule)
	assert.Contains(t, s.Script, "1: src[U] -> amp[Y]$")
	require.Len(t, s.Clients, 2)

	src := s.Clients[0]
	assert.Equal(t, "signals", src.Kind)
	assert.Equal(t, 10, src.Params["steps"])
	signals, ok := src.Params["signals"].([]any)
	require.True(t, ok)
	first, ok := signals[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.5, first["amplitude"])

	assert.Equal(t, 2, s.Clients[1].Params["gain"])
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := map[string]string{
		"no name":       "script: '1: a[X] -> b'",
		"no script":     "name: x",
		"no kind":       "name: x\nscript: s\nclients: [{name: a}]",
		"duplicate":     "name: x\nscript: s\nclients: [{name: a, kind: gain}, {name: a, kind: sum}]",
		"not a mapping": "- just\n- a list",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScenario([]byte(src))
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mount.yaml")
	require.NoError(t, os.WriteFile(path, []byte(mountScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "mount", s.Name)

	_, err = LoadScenario(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestLoadScenarios(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(mountScenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yml"),
		[]byte("name: idle\nscript: \"1: clock[Tick]$\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	scenarios, err := LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "idle", scenarios[0].Name)
	assert.Equal(t, "mount", scenarios[1].Name)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.yaml"), []byte(mountScenario), 0o644))
	_, err = LoadScenarios(dir)
	assert.ErrorIs(t, err, ErrInvalidScenario)
}
