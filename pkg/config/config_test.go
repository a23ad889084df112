package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lvarbridge/lvarbridge-go/pkg/config"
	"github.com/lvarbridge/lvarbridge-go/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	vars, err := cfg.Variables()
	require.NoError(t, err)
	assert.NotEmpty(t, vars)

	_, err = sim.NewNamespace(vars...)
	assert.NoError(t, err)
}

func TestParseOverridesDefaults(t *testing.T) {
	data := `
bridge:
  scan_every: 2
  frame_rate: 60
transport:
  listen: "127.0.0.1:5000"
  write_timeout: 250ms
discovery:
  advertise: true
  instance: Cockpit
logging:
  level: debug
  protocol_log: /tmp/bridge.lblog
simulation:
  variables:
    - name: A
      offset: 1
    - name: B
      waveform: sine
      amplitude: 2
      period: 10
      appear_after: 5
`
	cfg, err := config.Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Bridge.ScanEvery)
	assert.Equal(t, 60, cfg.Bridge.FrameRate)
	assert.Equal(t, 16, cfg.Bridge.CommandQueue, "unset keys keep defaults")
	assert.Equal(t, "127.0.0.1:5000", cfg.Transport.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.Transport.WriteTimeout)
	assert.True(t, cfg.Discovery.Advertise)
	assert.Equal(t, "Cockpit", cfg.Discovery.Instance)
	assert.Equal(t, "/tmp/bridge.lblog", cfg.Logging.ProtocolLog)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	vars, err := cfg.Variables()
	require.NoError(t, err)
	require.Len(t, vars, 2)
	assert.Equal(t, "A", vars[0].Name)
	assert.Equal(t, sim.WaveConstant, vars[0].Waveform)
	assert.Equal(t, sim.WaveSine, vars[1].Waveform)
	assert.Equal(t, uint64(5), vars[1].AppearAfter)

	sc := cfg.ServiceConfig()
	assert.Equal(t, 2, sc.ScanEvery)
	assert.Equal(t, 60, sc.FrameRate)
	assert.NoError(t, sc.Validate())

	srv := cfg.ServerConfig()
	assert.Equal(t, "127.0.0.1:5000", srv.Address)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := config.Parse([]byte("bridge: [unterminated"))
	require.Error(t, err)

	var le *config.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "failed to parse YAML", le.Message)
	assert.NotNil(t, le.Cause)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"negative scan", "bridge:\n  scan_every: -1\n"},
		{"zero frame rate", "bridge:\n  frame_rate: 0\n"},
		{"empty listen", "transport:\n  listen: \"\"\n"},
		{"bad level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestVariableErrorCarriesLine(t *testing.T) {
	data := `simulation:
  variables:
    - name: A
    - name: A
`
	_, err := config.Parse([]byte(data))
	require.Error(t, err)

	var le *config.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 4, le.Line)
	assert.ErrorIs(t, err, sim.ErrDuplicateName)
	assert.Contains(t, le.Error(), "<config>:4:")
}

func TestVariableAppearOrder(t *testing.T) {
	data := `simulation:
  variables:
    - name: LATE
      appear_after: 100
    - name: EARLY
      offset: 5
`
	_, err := config.Parse([]byte(data))
	require.Error(t, err)

	var le *config.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 5, le.Line)
	assert.ErrorIs(t, err, sim.ErrAppearOrder)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestVariableBadWaveform(t *testing.T) {
	data := `simulation:
  variables:
    - name: A
      waveform: triangle
      period: 3
`
	_, err := config.Parse([]byte(data))
	assert.ErrorIs(t, err, sim.ErrInvalidWaveform)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bridge:\n  scan_every: 8\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Bridge.ScanEvery)
}

func TestLoadErrorsNameTheFile(t *testing.T) {
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	var le *config.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "failed to read file", le.Message)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))
	_, err = config.Load(path)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, path, le.File)
}
