// Package config loads the meshcodec YAML configuration.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/WJ4IoT/meshcodec/internal/crypto"
)

// LedgerMemory selects the in-memory nonce ledger.
const LedgerMemory = "memory"

// Config holds the meshcodec configuration. Flags override file values.
type Config struct {
	// Key is the base64 channel PSK. Empty with no KeyFile means the public
	// default key.
	Key     string `yaml:"key" json:"key"`
	KeyFile string `yaml:"key_file" json:"key_file"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// Ledger is "" (off), "memory", or the path of a bbolt file.
	Ledger       string        `yaml:"ledger" json:"ledger"`
	LedgerWindow time.Duration `yaml:"ledger_window" json:"ledger_window"`

	// Encrypt makes the encoder send packets in the encrypted variant.
	Encrypt bool `yaml:"encrypt" json:"encrypt"`
}

// DefaultPath returns the default config file path: ~/.meshcodec/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".meshcodec", "config.yaml")
	}
	return filepath.Join(home, ".meshcodec", "config.yaml")
}

// Load reads the configuration from the given YAML file path.
// If the file does not exist, it returns a default Config with no error.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:     "info",
		LedgerWindow: 10 * time.Minute,
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	// The file may hold a channel key.
	if perm := info.Mode().Perm(); perm&0o077 != 0 && cfg.Key != "" {
		log.Printf("warning: config file %s has permissions %04o, expected 0600; the channel key may be exposed to other users", path, perm)
	}
	return cfg, nil
}

// ChannelKey resolves Key and KeyFile. A nil key means none is configured.
func (c *Config) ChannelKey() (crypto.Key, error) {
	if c.Key != "" && c.KeyFile != "" {
		return nil, fmt.Errorf("config: key and key_file are both set")
	}
	if c.KeyFile != "" {
		return crypto.LoadKeyFile(c.KeyFile)
	}
	k, err := crypto.ParseKey(c.Key)
	if err != nil {
		return nil, fmt.Errorf("config: key: %w", err)
	}
	return k, nil
}
