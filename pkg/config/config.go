package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lvarbridge/lvarbridge-go/pkg/bridge"
	"github.com/lvarbridge/lvarbridge-go/pkg/discovery"
	"github.com/lvarbridge/lvarbridge-go/pkg/sim"
	"github.com/lvarbridge/lvarbridge-go/pkg/throttle"
	"github.com/lvarbridge/lvarbridge-go/pkg/transport"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the reference host configuration.
type Config struct {
	Bridge     BridgeConfig     `yaml:"bridge"`
	Transport  TransportConfig  `yaml:"transport"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// BridgeConfig holds engine and loop settings.
type BridgeConfig struct {
	ScanEvery    int `yaml:"scan_every"`
	FrameRate    int `yaml:"frame_rate"`
	CommandQueue int `yaml:"command_queue"`
}

// TransportConfig holds TCP server settings.
type TransportConfig struct {
	Listen         string        `yaml:"listen"`
	MaxMessageSize uint32        `yaml:"max_message_size"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// DiscoveryConfig holds mDNS settings.
type DiscoveryConfig struct {
	Advertise bool          `yaml:"advertise"`
	Instance  string        `yaml:"instance"`
	Interface string        `yaml:"interface"`
	TTL       time.Duration `yaml:"ttl"`
}

// LoggingConfig holds operational and protocol logging settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	ProtocolLog string `yaml:"protocol_log"`
}

// SimulationConfig defines the simulated namespace.
type SimulationConfig struct {
	Host      string           `yaml:"host"`
	Variables []VariableConfig `yaml:"variables"`
}

// VariableConfig defines one simulated variable.
type VariableConfig struct {
	Name        string  `yaml:"name"`
	Waveform    string  `yaml:"waveform"`
	Amplitude   float64 `yaml:"amplitude"`
	Offset      float64 `yaml:"offset"`
	Period      uint32  `yaml:"period"`
	AppearAfter uint64  `yaml:"appear_after"`

	// Line is the source line of the definition, 0 when not parsed from YAML.
	Line int `yaml:"-"`
}

// UnmarshalYAML records the source line of each variable.
func (v *VariableConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain VariableConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = VariableConfig(p)
	v.Line = node.Line
	return nil
}

// Default returns the default configuration with a small demo namespace.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			ScanEvery:    throttle.DefaultEvery,
			FrameRate:    bridge.DefaultFrameRate,
			CommandQueue: bridge.DefaultCommandQueue,
		},
		Transport: TransportConfig{
			Listen:         fmt.Sprintf(":%d", transport.DefaultPort),
			MaxMessageSize: transport.DefaultMaxMessageSize,
			WriteTimeout:   time.Second,
		},
		Discovery: DiscoveryConfig{
			TTL: discovery.DefaultTTL,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Simulation: SimulationConfig{
			Host: "sim",
			Variables: []VariableConfig{
				{Name: "XMLVAR_BARO_SELECTOR_HPA_1", Waveform: "constant", Offset: 1013},
				{Name: "A32NX_AUTOPILOT_HEADING_SELECTED", Waveform: "ramp", Amplitude: 360, Period: 600},
				{Name: "A32NX_ELEC_AC_1_BUS_IS_POWERED", Waveform: "square", Amplitude: 0.5, Offset: 0.5, Period: 300},
				{Name: "A32NX_ENGINE_N1:1", Waveform: "sine", Amplitude: 5, Offset: 80, Period: 900, AppearAfter: 60},
			},
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if err := cfg.Validate(); err != nil {
		le := &LoadError{Message: err.Error(), Cause: err}
		var ve *VariableError
		if errors.As(err, &ve) {
			le.Line = ve.Line
		}
		return nil, le
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error(), Cause: err}
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Bridge.ScanEvery < 0 {
		return fmt.Errorf("%w: bridge.scan_every must not be negative", ErrInvalid)
	}
	if c.Bridge.FrameRate <= 0 {
		return fmt.Errorf("%w: bridge.frame_rate must be positive", ErrInvalid)
	}
	if c.Bridge.CommandQueue < 0 {
		return fmt.Errorf("%w: bridge.command_queue must not be negative", ErrInvalid)
	}
	if c.Transport.Listen == "" {
		return fmt.Errorf("%w: transport.listen is required", ErrInvalid)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if _, err := c.Variables(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps logging.level to a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Logging.Level))); err != nil {
		return 0, fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return level, nil
}

// Variables converts the simulation section into sim variables.
func (c *Config) Variables() ([]sim.Variable, error) {
	seen := make(map[string]int, len(c.Simulation.Variables))
	vars := make([]sim.Variable, 0, len(c.Simulation.Variables))

	for _, vc := range c.Simulation.Variables {
		wave, err := sim.ParseWaveform(vc.Waveform)
		if err != nil {
			return nil, &VariableError{Name: vc.Name, Line: vc.Line, Cause: err}
		}
		v := sim.Variable{
			Name:        vc.Name,
			Waveform:    wave,
			Amplitude:   vc.Amplitude,
			Offset:      vc.Offset,
			Period:      vc.Period,
			AppearAfter: vc.AppearAfter,
		}
		if err := v.Validate(); err != nil {
			return nil, &VariableError{Name: vc.Name, Line: vc.Line, Cause: err}
		}
		if _, dup := seen[vc.Name]; dup {
			return nil, &VariableError{Name: vc.Name, Line: vc.Line, Cause: sim.ErrDuplicateName}
		}
		if n := len(vars); n > 0 && v.AppearAfter < vars[n-1].AppearAfter {
			return nil, &VariableError{Name: vc.Name, Line: vc.Line, Cause: sim.ErrAppearOrder}
		}
		seen[vc.Name] = vc.Line
		vars = append(vars, v)
	}
	return vars, nil
}

// ServiceConfig builds the bridge service configuration.
func (c *Config) ServiceConfig() bridge.ServiceConfig {
	cfg := bridge.DefaultServiceConfig()
	cfg.ScanEvery = c.Bridge.ScanEvery
	cfg.FrameRate = c.Bridge.FrameRate
	cfg.CommandQueue = c.Bridge.CommandQueue
	return cfg
}

// ServerConfig builds the transport server configuration.
func (c *Config) ServerConfig() transport.ServerConfig {
	return transport.ServerConfig{
		Address:        c.Transport.Listen,
		MaxMessageSize: c.Transport.MaxMessageSize,
		WriteTimeout:   c.Transport.WriteTimeout,
	}
}

// AdvertiserConfig builds the mDNS advertiser configuration.
func (c *Config) AdvertiserConfig() discovery.AdvertiserConfig {
	cfg := discovery.DefaultAdvertiserConfig()
	cfg.Interface = c.Discovery.Interface
	if c.Discovery.TTL > 0 {
		cfg.TTL = c.Discovery.TTL
	}
	return cfg
}

// VariableError reports an invalid simulated variable.
type VariableError struct {
	Name  string
	Line  int
	Cause error
}

func (e *VariableError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("%v: simulation variable %s: %v", ErrInvalid, name, e.Cause)
}

// Unwrap returns both ErrInvalid and the cause.
func (e *VariableError) Unwrap() []error {
	return []error{ErrInvalid, e.Cause}
}

// LoadError describes a configuration loading failure.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	file := e.File
	if file == "" {
		file = "<config>"
	}
	if e.Line > 0 {
		return file + ":" + strconv.Itoa(e.Line) + ": " + e.Message
	}
	return file + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
