package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Store compression settings accepted by config and init.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// Config stores repository-local settings: the committing identity and the
// object store's on-disk encoding.
type Config struct {
	User  UserConfig  `toml:"user"`
	Store StoreConfig `toml:"store"`
}

// UserConfig is the identity recorded on commits made from this repository.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// StoreConfig controls how loose objects are encoded on disk.
type StoreConfig struct {
	Compression string `toml:"compression"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.CaskDir, "config.toml")
}

// ReadConfig reads .cask/config.toml. A missing config returns defaults.
func (r *Repo) ReadConfig() (*Config, error) {
	cfg := &Config{Store: StoreConfig{Compression: CompressionNone}}
	if _, err := toml.DecodeFile(r.configPath(), cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if cfg.Store.Compression == "" {
		cfg.Store.Compression = CompressionNone
	}
	return cfg, nil
}

// WriteConfig atomically writes .cask/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Store.Compression == "" {
		cfg.Store.Compression = CompressionNone
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	tmp, err := os.CreateTemp(r.CaskDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}
