// Package config loads the YAML configuration file. Every field has a
// flag override in the CLI; the file is for the settings both peers agree
// on out-of-band (key material, addresses, limits).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fernet/fernet-go"
	"gopkg.in/yaml.v3"

	"github.com/ghostlink/ghostlink/crypto/envelope"
	"github.com/ghostlink/ghostlink/protocol"
)

// Config holds the ghostlink configuration.
type Config struct {
	Key        string `yaml:"key"`        // base64 Fernet key
	Passphrase string `yaml:"passphrase"` // alternative to key
	Salt       string `yaml:"salt"`       // salt for passphrase derivation

	Listen    string `yaml:"listen"`    // listener bind address
	Target    string `yaml:"target"`    // initiator peer address (or ws URL)
	Transport string `yaml:"transport"` // "tcp" or "ws"
	WSPath    string `yaml:"ws_path"`   // upgrade path for ws listeners

	MaxPayloadBytes int    `yaml:"max_payload_bytes"`
	RetryInterval   string `yaml:"retry_interval"`

	MetricsAddr string `yaml:"metrics_addr"` // serve /metrics when set
	Debug       bool   `yaml:"debug"`
}

// DefaultPath returns the default config file path: ~/.ghostlink/config.yaml
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".ghostlink", "config.yaml")
	}
	return filepath.Join(home, ".ghostlink", "config.yaml")
}

func defaults() *Config {
	return &Config{
		Listen:          "0.0.0.0:4815",
		Transport:       "tcp",
		WSPath:          "/ws",
		MaxPayloadBytes: protocol.DefaultMaxPayload,
		RetryInterval:   "2s",
	}
}

// Load reads the configuration from the given YAML file path. A missing
// file returns the defaults with no error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	// The file holds the symmetric key; warn when other users can read it.
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		fmt.Fprintf(os.Stderr,
			"warning: config file %s has permissions %04o, expected 0600. "+
				"The shared key may be exposed to other users.\n",
			path, perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RetryDuration parses the retry interval.
func (c *Config) RetryDuration() (time.Duration, error) {
	if c.RetryInterval == "" {
		return 0, nil
	}
	return time.ParseDuration(c.RetryInterval)
}

// EnvelopeKey resolves the symmetric key: an explicit key wins, otherwise
// a passphrase+salt pair is stretched into one.
func (c *Config) EnvelopeKey() (*fernet.Key, error) {
	if c.Key != "" {
		return envelope.ParseKey(c.Key)
	}
	if c.Passphrase != "" {
		if c.Salt == "" {
			return nil, errors.New("passphrase requires a salt")
		}
		return envelope.DeriveKey(c.Passphrase, c.Salt), nil
	}
	return nil, errors.New("no key material: set key or passphrase")
}
