// Package config loads rootlessd settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RootlessNet/protocol/rootless/messaging"
)

// Config is the resolved daemon configuration.
type Config struct {
	// Listen must be a loopback address. The control stream carries no
	// transport authentication.
	Listen            string
	Namespace         string
	KeyExchange       messaging.Scheme
	DirectoryCapacity int
	CompressThreshold int
	LogLevel          string
	LogFormat         string
	// AuthToken unlocks the methods that move private keys. Empty disables
	// them.
	AuthToken         string
}

// Default listens on 127.0.0.1:7420 with the Edwards key exchange.
func Default() Config {
	return Config{
		Listen:            "127.0.0.1:7420",
		Namespace:         "rootless",
		KeyExchange:       messaging.SchemeEdwards,
		DirectoryCapacity: 4096,
		CompressThreshold: 1024,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// File is the on-disk layout. Zero values leave defaults in place.
type File struct {
	Listen    string        `yaml:"listen"`
	Namespace string        `yaml:"namespace"`
	Messaging FileMessaging `yaml:"messaging"`
	Directory FileDirectory `yaml:"directory"`
	Protocol  FileProtocol  `yaml:"protocol"`
	Log       FileLog       `yaml:"log"`
	Auth      FileAuth      `yaml:"auth"`
}

type FileMessaging struct {
	KeyExchange string `yaml:"keyExchange"`
}

type FileDirectory struct {
	Capacity int `yaml:"capacity"`
}

type FileProtocol struct {
	// CompressThreshold of -1 disables compression.
	CompressThreshold int `yaml:"compressThreshold"`
}

type FileAuth struct {
	Token string `yaml:"token"`
}

type FileLog struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path when non-empty, merges it over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		var parsed File
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if err := Merge(&cfg, parsed); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge copies the non-zero fields of src over dst.
func Merge(dst *Config, src File) error {
	if src.Listen != "" {
		dst.Listen = src.Listen
	}
	if src.Namespace != "" {
		dst.Namespace = src.Namespace
	}
	if src.Messaging.KeyExchange != "" {
		s, err := messaging.ParseScheme(src.Messaging.KeyExchange)
		if err != nil {
			return fmt.Errorf("config: messaging.keyExchange: %w", err)
		}
		dst.KeyExchange = s
	}
	if src.Directory.Capacity != 0 {
		dst.DirectoryCapacity = src.Directory.Capacity
	}
	switch {
	case src.Protocol.CompressThreshold < 0:
		dst.CompressThreshold = 0
	case src.Protocol.CompressThreshold > 0:
		dst.CompressThreshold = src.Protocol.CompressThreshold
	}
	if src.Log.Level != "" {
		dst.LogLevel = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.LogFormat = src.Log.Format
	}
	if src.Auth.Token != "" {
		dst.AuthToken = src.Auth.Token
	}
	return nil
}

// ApplyEnvOverrides reads the ROOTLESS_* variables.
func ApplyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv("ROOTLESS_LISTEN")); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOTLESS_NAMESPACE")); v != "" {
		cfg.Namespace = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOTLESS_KEY_EXCHANGE")); v != "" {
		s, err := messaging.ParseScheme(v)
		if err != nil {
			return fmt.Errorf("config: ROOTLESS_KEY_EXCHANGE: %w", err)
		}
		cfg.KeyExchange = s
	}
	if v := strings.TrimSpace(os.Getenv("ROOTLESS_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOTLESS_AUTH_TOKEN")); v != "" {
		cfg.AuthToken = v
	}
	if v := strings.TrimSpace(os.Getenv("ROOTLESS_DIRECTORY_CAPACITY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: ROOTLESS_DIRECTORY_CAPACITY: %w", err)
		}
		cfg.DirectoryCapacity = n
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if host, _, err := net.SplitHostPort(c.Listen); err != nil {
		errs = append(errs, fmt.Errorf("listen %q: %w", c.Listen, err))
	} else if !isLoopback(host) {
		errs = append(errs, fmt.Errorf("listen %q: host must be a loopback address", c.Listen))
	}
	if c.Namespace == "" || strings.Contains(c.Namespace, ":") {
		errs = append(errs, fmt.Errorf("namespace %q must be non-empty and contain no ':'", c.Namespace))
	}
	if c.KeyExchange != messaging.SchemeEdwards && c.KeyExchange != messaging.SchemeLegacyHKDF {
		errs = append(errs, fmt.Errorf("key exchange %s: %w", c.KeyExchange, messaging.ErrUnknownScheme))
	}
	if c.DirectoryCapacity <= 0 {
		errs = append(errs, fmt.Errorf("directory capacity must be positive, got %d", c.DirectoryCapacity))
	}
	if c.CompressThreshold < 0 {
		errs = append(errs, fmt.Errorf("compress threshold must not be negative, got %d", c.CompressThreshold))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format %q must be text or json", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
