package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfig is wrapped by every configuration error.
var ErrConfig = errors.New("config error")

// EnvVar names the environment variable that points at a config file.
const EnvVar = "SCHWIFT_CONFIG"

// DefaultFile is looked up in the home directory when no path is given.
const DefaultFile = ".schwift.yaml"

// Config is the CLI configuration.
type Config struct {
	Log   LogConfig   `yaml:"log"`
	REPL  REPLConfig  `yaml:"repl"`
	Watch WatchConfig `yaml:"watch"`
}

// LogConfig controls the structured logger on stderr.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `yaml:"level"`
	// Format is text or json (default text).
	Format string `yaml:"format"`
}

// REPLConfig controls the interactive prompt.
type REPLConfig struct {
	Prompt       string `yaml:"prompt"`
	Continuation string `yaml:"continuation"`
	// HistoryFile may start with ~/ (default ~/.schwift_history).
	HistoryFile string `yaml:"history_file"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce collapses bursts of file events (default 100ms).
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	var c Config
	c.normalize()
	return c
}

// Load reads the config at path. An empty path falls back to $SCHWIFT_CONFIG
// and then ~/.schwift.yaml; a missing fallback file yields the defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvVar)
		explicit = path != ""
	}
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return Default(), nil
		}
		path = filepath.Join(home, DefaultFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.normalize()
	return c, nil
}

// SlogLevel maps Log.Level to a slog level.
func (c Config) SlogLevel() slog.Level {
	lvl, _ := parseLevel(c.Log.Level)
	return lvl
}

// HistoryPath expands a leading ~/ in REPL.HistoryFile.
func (c Config) HistoryPath() string {
	p := c.REPL.HistoryFile
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}

func (c Config) validate() error {
	if _, ok := parseLevel(c.Log.Level); !ok {
		return fmt.Errorf("%w: unknown log level %q", ErrConfig, c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrConfig, c.Log.Format)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("%w: negative watch debounce %s", ErrConfig, c.Watch.Debounce)
	}
	return nil
}

// normalize fills defaults for unset fields.
func (c *Config) normalize() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.REPL.Prompt == "" {
		c.REPL.Prompt = "schwift> "
	}
	if c.REPL.Continuation == "" {
		c.REPL.Continuation = "...> "
	}
	if c.REPL.HistoryFile == "" {
		c.REPL.HistoryFile = "~/.schwift_history"
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 100 * time.Millisecond
	}
}

// ParseLevel reports the slog level named by s; the empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	lvl, ok := parseLevel(s)
	if !ok {
		return 0, fmt.Errorf("%w: unknown log level %q", ErrConfig, s)
	}
	return lvl, nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}
