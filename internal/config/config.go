// Package config holds the render configuration shared by the CLI
// subcommands. Values come from defaults, an optional YAML file and flag
// overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-host/internal/logging"
)

// Defaults.
const (
	DefaultSampleRate = 44100.0
	DefaultBlockSize  = 512
	DefaultBitDepth   = 16
	DefaultChannels   = 2
	DefaultLogLevel   = "info"
	DefaultLogFormat  = logging.FormatText
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the render configuration.
type Config struct {
	SampleRate  float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
	BlockSize   int     `mapstructure:"block_size" yaml:"block_size"`
	TailSeconds int     `mapstructure:"tail_seconds" yaml:"tail_seconds"`
	BitDepth    int     `mapstructure:"bit_depth" yaml:"bit_depth"`
	Channels    int     `mapstructure:"channels" yaml:"channels"`
	LogLevel    string  `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string  `mapstructure:"log_format" yaml:"log_format"`
	TraceFile   string  `mapstructure:"trace_file" yaml:"trace_file"`
	MetricsFile string  `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
		BitDepth:   DefaultBitDepth,
		Channels:   DefaultChannels,
		LogLevel:   DefaultLogLevel,
		LogFormat:  DefaultLogFormat,
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Scalars are weakly typed, so
// "48000" and 48000 are both accepted for sample_rate. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if len(raw) == 0 {
		return cfg, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the render path cannot use.
func (c Config) Validate() error {
	var problems []string
	if c.SampleRate <= 0 {
		problems = append(problems, fmt.Sprintf("sample_rate must be > 0: %v", c.SampleRate))
	}
	if c.BlockSize <= 0 {
		problems = append(problems, fmt.Sprintf("block_size must be > 0: %d", c.BlockSize))
	}
	if c.TailSeconds < 0 {
		problems = append(problems, fmt.Sprintf("tail_seconds must be >= 0: %d", c.TailSeconds))
	}
	switch c.BitDepth {
	case 8, 16, 24, 32:
	default:
		problems = append(problems, fmt.Sprintf("bit_depth must be 8, 16, 24 or 32: %d", c.BitDepth))
	}
	if c.Channels < 1 || c.Channels > 2 {
		problems = append(problems, fmt.Sprintf("channels must be 1 or 2: %d", c.Channels))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	switch strings.ToLower(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("log_format must be text or json: %q", c.LogFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
