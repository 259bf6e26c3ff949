package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/pepys/internal/protocol/frame"
	"github.com/danmuck/pepys/internal/protocol/message"
)

var (
	ErrListenAddrRequired  = errors.New("server: listen addr required")
	ErrTLSCertFileRequired = errors.New("server: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("server: tls key file required")
	ErrInvalidLimits       = errors.New("server: invalid limits")
)

// TLSConfig enables a TLS listener for the protocol port.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

// Config defines the protocol listener, its admin endpoint and group limits.
type Config struct {
	ListenAddr       string
	AdminListenAddr  string
	AdminCORSOrigins []string

	// Concurrent serves each connection on its own goroutine. By default one
	// connection is served to completion before the next is accepted.
	Concurrent bool

	// ReadTimeout bounds the wait for each inbound group. Zero waits forever.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Limits frame.Limits
	TLS    TLSConfig
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:      fmt.Sprintf(":%d", message.Port),
		AdminListenAddr: "",
		Concurrent:      false,
		ReadTimeout:     0,
		WriteTimeout:    15 * time.Second,
		Limits:          frame.DefaultLimits(),
	}
}

// WithDefaults fills empty fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ReadTimeout < 0 {
		c.ReadTimeout = 0
	}
	c.Limits = c.Limits.WithDefaults()
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return ErrListenAddrRequired
	}
	if c.Limits.OutboundBytes <= 0 || uint64(c.Limits.OutboundBytes) > uint64(c.Limits.MaxGroupBytes) {
		return fmt.Errorf(
			"%w: outbound_bytes=%d max_group_bytes=%d",
			ErrInvalidLimits,
			c.Limits.OutboundBytes,
			c.Limits.MaxGroupBytes,
		)
	}
	if c.TLS.Enabled {
		if strings.TrimSpace(c.TLS.CertFile) == "" {
			return ErrTLSCertFileRequired
		}
		if strings.TrimSpace(c.TLS.KeyFile) == "" {
			return ErrTLSKeyFileRequired
		}
	}
	return nil
}
