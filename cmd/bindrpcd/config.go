package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/bindrpc/internal/transport"
	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Addr            string `toml:"addr" yaml:"addr"`
	IdleTimeout     string `toml:"idle_timeout" yaml:"idle_timeout"`
	WriteTimeout    string `toml:"write_timeout" yaml:"write_timeout"`
	MaxPayloadBytes uint32 `toml:"max_payload_bytes" yaml:"max_payload_bytes"`
	LogLevel        string `toml:"log_level" yaml:"log_level"`
}

type daemonConfig struct {
	Transport transport.Config
	LogLevel  string
}

func defaultDaemonConfig() daemonConfig {
	return daemonConfig{Transport: transport.DefaultConfig()}
}

// loadConfig overlays the keys present in path onto the defaults. The
// format follows the extension: .toml, .yaml or .yml.
func loadConfig(path string) (daemonConfig, error) {
	cfg := defaultDaemonConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	var defined func(key string) bool
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return daemonConfig{}, fmt.Errorf("load config: %w", err)
		}
		defined = func(key string) bool { return meta.IsDefined(key) }
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return daemonConfig{}, fmt.Errorf("load config: %w", err)
		}
		var keys map[string]yaml.Node
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return daemonConfig{}, fmt.Errorf("load config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return daemonConfig{}, fmt.Errorf("load config: %w", err)
		}
		defined = func(key string) bool {
			_, ok := keys[key]
			return ok
		}
	default:
		return daemonConfig{}, fmt.Errorf("load config: unsupported extension %q", ext)
	}

	if defined("addr") {
		if addr := strings.TrimSpace(raw.Addr); addr != "" {
			cfg.Transport.Addr = addr
		}
	}
	if defined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return daemonConfig{}, fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.Transport.IdleTimeout = d
	}
	if defined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return daemonConfig{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Transport.WriteTimeout = d
	}
	if defined("max_payload_bytes") {
		if raw.MaxPayloadBytes == 0 {
			return daemonConfig{}, fmt.Errorf("max_payload_bytes must be positive")
		}
		cfg.Transport.Limits.MaxPayloadBytes = raw.MaxPayloadBytes
	}
	if defined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return cfg, nil
}
