package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/pepys/internal/server"
)

// pepys config.toml key mapping to server settings.
type fileConfig struct {
	Addr             string   `toml:"addr"`
	AdminAddr        string   `toml:"admin_addr"`
	AdminCORSOrigins []string `toml:"admin_cors_origins"`
	Concurrent       bool     `toml:"concurrent"`
	ReadTimeout      string   `toml:"read_timeout"`
	WriteTimeout     string   `toml:"write_timeout"`
	MaxGroupBytes    uint32   `toml:"max_group_bytes"`
	OutboundBytes    int      `toml:"outbound_bytes"`
	TLSEnabled       bool     `toml:"tls_enabled"`
	TLSCertFile      string   `toml:"tls_cert_file"`
	TLSKeyFile       string   `toml:"tls_key_file"`
	TimeLayout       string   `toml:"time_layout"`
}

// serveConfig is everything `pepys serve` needs to start.
type serveConfig struct {
	Server     server.Config
	TimeLayout string
}

func defaultServeConfig() serveConfig {
	return serveConfig{
		Server:     server.DefaultConfig(),
		TimeLayout: time.RFC1123,
	}
}

// loadServeConfig overlays the keys defined in path onto the defaults.
func loadServeConfig(path string) (serveConfig, error) {
	cfg := defaultServeConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return serveConfig{}, fmt.Errorf("load pepys config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return serveConfig{}, fmt.Errorf("load pepys config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("addr") {
		cfg.Server.ListenAddr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.Server.AdminListenAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_cors_origins") {
		cfg.Server.AdminCORSOrigins = normalizeList(raw.AdminCORSOrigins)
	}
	if meta.IsDefined("concurrent") {
		cfg.Server.Concurrent = raw.Concurrent
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return serveConfig{}, fmt.Errorf("parse read_timeout: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}
	if meta.IsDefined("write_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.WriteTimeout))
		if err != nil {
			return serveConfig{}, fmt.Errorf("parse write_timeout: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}
	if meta.IsDefined("max_group_bytes") {
		cfg.Server.Limits.MaxGroupBytes = raw.MaxGroupBytes
	}
	if meta.IsDefined("outbound_bytes") {
		cfg.Server.Limits.OutboundBytes = raw.OutboundBytes
	}
	if meta.IsDefined("tls_enabled") {
		cfg.Server.TLS.Enabled = raw.TLSEnabled
	}
	if meta.IsDefined("tls_cert_file") {
		cfg.Server.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}
	if meta.IsDefined("tls_key_file") {
		cfg.Server.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}
	if meta.IsDefined("time_layout") {
		if layout := strings.TrimSpace(raw.TimeLayout); layout != "" {
			cfg.TimeLayout = layout
		}
	}

	return cfg, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
