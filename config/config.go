package config

import (
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

// Config is the content of config.yaml.
type Config struct {
	// DefaultOptions are put before the command line arguments.
	DefaultOptions []string `yaml:"default_options,omitempty"`
	DefaultScheme  string   `yaml:"default_scheme,omitempty"`
	BaseURL        string   `yaml:"base_url,omitempty"`
	MaxRedirects   int      `yaml:"max_redirects,omitempty"`
	LogFile        string   `yaml:"log_file,omitempty"`

	baseURL *url.URL
}

// Error reports a config file that cannot be used.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return "config " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Dir returns the directory holding config.yaml: $SPIE_CONFIG_DIR, else
// $XDG_CONFIG_HOME/spie, else ~/.config/spie.
func Dir(getenv func(string) string) string {
	if dir := getenv("SPIE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if dir := getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "spie")
	}
	home := getenv("HOME")
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, ".config", "spie")
}

// Load reads config.yaml from dir. A missing file yields an empty Config.
func Load(dir string) (*Config, error) {
	if dir == "" {
		return &Config{}, nil
	}
	path := filepath.Join(dir, fileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, errors.WithStack(&Error{Path: path, Err: err})
	}
	return Parse(path, data)
}

// Parse decodes and validates the content of a config file.
func Parse(path string, data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.WithStack(&Error{Path: path, Err: err})
	}

	switch cfg.DefaultScheme {
	case "", "http", "https":
	default:
		return nil, errors.WithStack(&Error{Path: path, Err: errors.Errorf("unsupported default_scheme '%s'", cfg.DefaultScheme)})
	}
	if cfg.MaxRedirects < 0 {
		return nil, errors.WithStack(&Error{Path: path, Err: errors.Errorf("max_redirects must not be negative")})
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, errors.WithStack(&Error{Path: path, Err: errors.Errorf("invalid base_url '%s'", cfg.BaseURL)})
		}
		cfg.baseURL = u
	}
	return &cfg, nil
}

// ParsedBaseURL returns base_url, or nil when it is not set.
func (c *Config) ParsedBaseURL() *url.URL {
	return c.baseURL
}
