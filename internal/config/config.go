package config

import (
	njson "encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the gavel configuration.
type Config struct {
	Provider     string        `koanf:"provider" json:"provider"`
	Model        string        `koanf:"model" json:"model"`
	Format       string        `koanf:"format" json:"format"`
	FailOn       string        `koanf:"fail_on" json:"fail_on"`
	MaxDiffBytes int           `koanf:"max_diff_bytes" json:"max_diff_bytes"`
	Include      []string      `koanf:"include" json:"include"`
	Exclude      []string      `koanf:"exclude" json:"exclude"`
	CriteriaFile string        `koanf:"criteria_file" json:"criteria_file,omitempty"`
	RulesFile    string        `koanf:"rules_file" json:"rules_file,omitempty"`
	Cache        CacheConfig   `koanf:"cache" json:"cache"`
	Privacy      PrivacyConfig `koanf:"privacy" json:"privacy"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `koanf:"enabled" json:"enabled"`
	Path       string `koanf:"path" json:"path,omitempty"`
	TTLSeconds int    `koanf:"ttl_seconds" json:"ttl_seconds"`
}

// PrivacyConfig controls secret redaction.
type PrivacyConfig struct {
	RedactSecrets bool     `koanf:"redact_secrets" json:"redact_secrets"`
	RedactPaths   []string `koanf:"redact_paths" json:"redact_paths,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:     "openai",
		Model:        "",
		Format:       "text",
		FailOn:       "blocking",
		MaxDiffBytes: 500000,
		Include:      []string{"**/*"},
		Exclude:      []string{"vendor/**", "**/dist/**", "**/node_modules/**"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

func defaultMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"provider":               d.Provider,
		"model":                  d.Model,
		"format":                 d.Format,
		"fail_on":                d.FailOn,
		"max_diff_bytes":         d.MaxDiffBytes,
		"include":                d.Include,
		"exclude":                d.Exclude,
		"criteria_file":          d.CriteriaFile,
		"rules_file":             d.RulesFile,
		"cache.enabled":          d.Cache.Enabled,
		"cache.path":             d.Cache.Path,
		"cache.ttl_seconds":      d.Cache.TTLSeconds,
		"privacy.redact_secrets": d.Privacy.RedactSecrets,
		"privacy.redact_paths":   d.Privacy.RedactPaths,
	}
}

// ConfigDir returns the platform-appropriate config directory for gavel.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gavel"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "gavel"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "gavel"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "gavel"), nil
	default:
		return filepath.Join(home, ".config", "gavel"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load builds the effective config by layering:
// defaults <- config file <- GAVEL_* env <- CLI flag overrides.
// Nested env keys use a double underscore: GAVEL_CACHE__ENABLED=false.
func Load(overrides map[string]interface{}) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), json.Parser()); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	envOpt := env.Opt{
		Prefix: "GAVEL_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "GAVEL_"))
			key = strings.ReplaceAll(key, "__", ".")
			return key, value
		},
	}
	if err := k.Load(env.Provider(".", envOpt), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("applying overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// LoadFile loads config from the config file only, with defaults applied.
// Returns the defaults if the file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := njson.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := njson.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "fail_on":
		cfg.FailOn = value
	case "max_diff_bytes":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_diff_bytes must be an integer: %w", err)
		}
		cfg.MaxDiffBytes = n
	case "criteria_file":
		cfg.CriteriaFile = value
	case "rules_file":
		cfg.RulesFile = value
	case "cache.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache.enabled must be a boolean: %w", err)
		}
		cfg.Cache.Enabled = b
	case "cache.path":
		cfg.Cache.Path = value
	case "cache.ttl_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttl_seconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	case "privacy.redact_secrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("privacy.redact_secrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
