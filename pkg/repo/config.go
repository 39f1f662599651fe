package repo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config stores repository-local settings from .nvcs/config.toml.
type Config struct {
	Core CoreConfig `toml:"core"`
	User UserConfig `toml:"user"`
}

// CoreConfig holds the [core] table.
type CoreConfig struct {
	DefaultBranch string `toml:"default_branch"`
}

// UserConfig holds the [user] table.
type UserConfig struct {
	Name  string `toml:"name,omitempty"`
	Email string `toml:"email,omitempty"`
}

// DefaultConfig returns the configuration a fresh repository starts with.
func DefaultConfig() *Config {
	return &Config{Core: CoreConfig{DefaultBranch: defaultBranchName}}
}

// configKeys maps dotted keys to field accessors.
var configKeys = map[string]func(*Config) *string{
	"core.default_branch": func(c *Config) *string { return &c.Core.DefaultBranch },
	"user.name":           func(c *Config) *string { return &c.User.Name },
	"user.email":          func(c *Config) *string { return &c.User.Email },
}

// ConfigKeys lists the supported dotted keys, sorted.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted key such as "user.name".
func (c *Config) Get(key string) (string, error) {
	field, ok := configKeys[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("config: unknown key %q: %w", key, ErrNotFound)
	}
	return *field(c), nil
}

// Set assigns value to a dotted key.
func (c *Config) Set(key, value string) error {
	key = strings.TrimSpace(key)
	field, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("config: unknown key %q: %w", key, ErrNotFound)
	}
	if strings.ContainsAny(value, "\n\x00") {
		return fmt.Errorf("config: value for %q must be a single line", key)
	}
	if key == "core.default_branch" {
		if err := validateBranchName(value); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	*field(c) = value
	return nil
}

func (r *Repo) configPath() string {
	return filepath.Join(r.MetaDir, "config.toml")
}

// ReadConfig reads .nvcs/config.toml. A missing file yields DefaultConfig.
func (r *Repo) ReadConfig() (*Config, error) {
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		r.log().Warn("ignoring unknown config keys", "keys", fmt.Sprint(undecoded))
	}
	return cfg, nil
}

// WriteConfig atomically writes .nvcs/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer unlock()
	return r.writeConfig(cfg)
}

func (r *Repo) writeConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := writeFileAtomic(r.configPath(), buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SetConfig updates one dotted key and persists the result.
func (r *Repo) SetConfig(key, value string) error {
	unlock, err := r.lock()
	if err != nil {
		return fmt.Errorf("set config: %w", err)
	}
	defer unlock()

	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	return r.writeConfig(cfg)
}

// ResolveAuthor picks the commit author: explicit, then user.name from the
// config, then $USER, then "unknown".
func (r *Repo) ResolveAuthor(explicit string) (string, error) {
	if a := strings.TrimSpace(explicit); a != "" {
		return a, nil
	}
	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	if name := strings.TrimSpace(cfg.User.Name); name != "" {
		if email := strings.TrimSpace(cfg.User.Email); email != "" {
			return fmt.Sprintf("%s <%s>", name, email), nil
		}
		return name, nil
	}
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return u, nil
	}
	return "unknown", nil
}
