package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.schemafuzz/schemafuzz.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version       int               `yaml:"version"`
	Dialect       string            `yaml:"dialect" validate:"oneof=mysql postgres"`
	Fuzz          FuzzConfig        `yaml:"fuzz"`
	TypeOverrides map[string]string `yaml:"type_overrides,omitempty"`
	Output        OutputConfig      `yaml:"output,omitempty"`
	Metrics       MetricsConfig     `yaml:"metrics,omitempty"`
	Logging       LogConfig         `yaml:"logging,omitempty"`
}

// FuzzConfig controls what a run generates.
type FuzzConfig struct {
	Seed       uint64 `yaml:"seed"`
	Scenarios  int    `yaml:"scenarios" validate:"gte=1,lte=100000"`
	Statements int    `yaml:"statements" validate:"gte=1,lte=10000"`     // ALTER statements per scenario
	Columns    int    `yaml:"columns" validate:"gte=2,lte=1024"`         // columns of the seeding CREATE TABLE
	Workers    int    `yaml:"workers,omitempty" validate:"gte=1,lte=64"` // default 4, max 64
	Location   bool   `yaml:"location,omitempty"`                        // emit FIRST/AFTER placement
	Dictionary string `yaml:"dictionary,omitempty"`                      // word file for names
	// Protected lists the column options that make a column undroppable.
	// Empty means primary keys plus the time index.
	Protected []string      `yaml:"protected,omitempty" validate:"dive,oneof=PrimaryKey TimeIndex NotNull"`
	Weights   WeightsConfig `yaml:"weights,omitempty"`
}

// WeightsConfig sets the relative frequency of each ALTER operation.
type WeightsConfig struct {
	AddColumn   int `yaml:"add_column" validate:"gte=0"`
	DropColumn  int `yaml:"drop_column" validate:"gte=0"`
	RenameTable int `yaml:"rename_table" validate:"gte=0"`
}

// Total is the sum of all weights.
func (w WeightsConfig) Total() int {
	return w.AddColumn + w.DropColumn + w.RenameTable
}

// OutputConfig controls where run artifacts are written.
type OutputConfig struct {
	Directory string `yaml:"directory,omitempty"` // default ./schemafuzz-out
}

// MetricsConfig controls the Prometheus and Datadog backends.
type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled,omitempty"`
	Textfile    string `yaml:"textfile,omitempty"` // default <output>/metrics.prom
	Pushgateway string `yaml:"pushgateway,omitempty"`
	Job         string `yaml:"job,omitempty"` // default schemafuzz
	// DogStatsD is a Datadog agent address; metrics are also sent there when set.
	DogStatsD string `yaml:"dogstatsd,omitempty"`
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level     string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Directory string `yaml:"directory,omitempty"` // default ~/.schemafuzz/logs/
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

var validate = validator.New()

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Fuzz.Weights.Total() == 0 {
		return fmt.Errorf("invalid config: at least one operation weight must be positive")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = "mysql"
	}
	if c.Fuzz.Scenarios == 0 {
		c.Fuzz.Scenarios = 16
	}
	if c.Fuzz.Statements == 0 {
		c.Fuzz.Statements = 32
	}
	if c.Fuzz.Columns == 0 {
		c.Fuzz.Columns = 10
	}
	if c.Fuzz.Workers == 0 {
		c.Fuzz.Workers = 4
	}
	if c.Fuzz.Workers > 64 {
		c.Fuzz.Workers = 64
	}
	if c.Fuzz.Weights.Total() == 0 {
		c.Fuzz.Weights = WeightsConfig{AddColumn: 2, DropColumn: 1, RenameTable: 1}
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "schemafuzz-out"
	}
	if c.Metrics.Textfile == "" {
		c.Metrics.Textfile = filepath.Join(c.Output.Directory, "metrics.prom")
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "schemafuzz"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.schemafuzz/logs/")
	}
}

var secretPattern = regexp.MustCompile(`\$\{ENV:([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Metrics.Pushgateway, err = ResolveValue(c.Metrics.Pushgateway)
	if err != nil {
		return fmt.Errorf("metrics pushgateway: %w", err)
	}
	c.Metrics.DogStatsD, err = ResolveValue(c.Metrics.DogStatsD)
	if err != nil {
		return fmt.Errorf("metrics dogstatsd: %w", err)
	}
	c.Fuzz.Dictionary, err = ResolveValue(c.Fuzz.Dictionary)
	if err != nil {
		return fmt.Errorf("fuzz dictionary: %w", err)
	}
	return nil
}

// ResolveValue resolves ${ENV:NAME} references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	ref := matches[1]
	v := os.Getenv(ref)
	if v == "" {
		return "", fmt.Errorf("environment variable %s not set", ref)
	}
	return strings.Replace(val, matches[0], v, 1), nil
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
