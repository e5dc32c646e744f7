// Package config provides pickcheck's tunable knobs, loaded from YAML or
// TOML and validated: max_tries, the array-length bias constants, a
// tracking threshold, and logging settings. Of these, cmd/pickcheck reads
// only EngineConfig.MaxTries; no package consults the other fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	yaml2 "gopkg.in/yaml.v2"
	"gopkg.in/yaml.v3"
)

// Config is pickcheck's full tunable set.
type Config struct {
	Engine  EngineConfig  `yaml:"engine" toml:"engine"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Version string        `yaml:"version" toml:"version"`
	Profile string        `yaml:"profile" toml:"profile"`
}

// EngineConfig holds the dispatcher/combinator tunables.
type EngineConfig struct {
	// MaxTries bounds how many filtered retries a single Dispatch call
	// attempts before giving up (overrides pickcheck.DefaultMaxTries).
	MaxTries int `yaml:"max_tries" toml:"max_tries" default:"1000"`

	// StartRegionSize is the size of the initial "small" region the
	// two-coin array-length bias model samples from before widening, per
	// spec.md §9's bias design. It is loaded and validated only: array
	// length picks in pkg/pickcheck carry no bias and never read it.
	StartRegionSize int `yaml:"start_region_size" toml:"start_region_size" default:"8"`

	// ExtendedRegionProbability is the chance (0,1] of widening past
	// StartRegionSize at all, the second coin in the two-coin model. Like
	// StartRegionSize, it is loaded and validated only.
	ExtendedRegionProbability float64 `yaml:"extended_region_probability" toml:"extended_region_probability" default:"0.25"`

	// TrackingElisionThreshold is a PickTree node-count limit. It is loaded
	// and validated only: NewRandomTrackingResponder has no fallback to a
	// plain RandomResponder and never reads it.
	TrackingElisionThreshold int `yaml:"tracking_elision_threshold" toml:"tracking_elision_threshold" default:"1000000"`
}

// LoggingConfig mirrors the log package's own knobs. It is loaded and
// validated; cmd/pickcheck does not apply it to the log package.
type LoggingConfig struct {
	Level       string `yaml:"level" toml:"level" default:"info"`
	EnableColor bool   `yaml:"enable_color" toml:"enable_color" default:"true"`
}

// DefaultConfig returns pickcheck's built-in tunables, matching spec.md §9's
// resolved Open Questions.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxTries:                  1000,
			StartRegionSize:           8,
			ExtendedRegionProbability: 0.25,
			TrackingElisionThreshold:  1_000_000,
		},
		Logging: LoggingConfig{Level: "info", EnableColor: true},
		Version: "1.0",
		Profile: "default",
	}
}

// Manager owns the active Config, guarding concurrent access from the
// worker pool driving parallel batch runs.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	path   string
	hooks  []func(*Config)
}

// NewManager returns a Manager seeded with DefaultConfig.
func NewManager() *Manager {
	return &Manager{config: DefaultConfig()}
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := *m.config
	return &cp
}

// Load reads path, detecting format by extension: .toml uses
// BurntSushi/toml, .yml/.yaml uses yaml.v3 with a yaml.v2 fallback for
// files relying on v2-only decode quirks (e.g. map[interface{}]interface{}
// keys a v3-only consumer would reject).
func (m *Manager) Load(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expanding config path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	switch filepath.Ext(expanded) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parsing toml config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			if err2 := yaml2.Unmarshal(data, cfg); err2 != nil {
				return fmt.Errorf("parsing yaml config (v3: %v, v2: %w)", err, err2)
			}
		}
	}
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	m.mu.Lock()
	m.config = cfg
	m.path = expanded
	hooks := append([]func(*Config){}, m.hooks...)
	m.mu.Unlock()

	for _, h := range hooks {
		h(cfg)
	}
	return nil
}

// OnChange registers a callback invoked (synchronously, after Load) every
// time the configuration is reloaded.
func (m *Manager) OnChange(hook func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return os.ExpandEnv(path), nil
}
