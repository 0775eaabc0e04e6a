package transport

import (
	"time"

	"github.com/danmuck/bindrpc/internal/protocol/frame"
)

// DefaultPort is the conventional listen port.
const DefaultPort = 3727

// Config defines listener, dialer, and framing defaults.
type Config struct {
	Addr         string
	DialTimeout  time.Duration
	IdleTimeout  time.Duration
	WriteTimeout time.Duration
	Limits       frame.Limits
	Redial       Backoff
}

func DefaultConfig() Config {
	return Config{
		Addr:         "127.0.0.1:3727",
		DialTimeout:  5 * time.Second,
		IdleTimeout:  10 * time.Minute,
		WriteTimeout: 15 * time.Second,
		Limits:       frame.DefaultLimits(),
	}
}

// WithDefaults fills zero fields from DefaultConfig. A zero IdleTimeout
// disables the idle read deadline.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = def.DialTimeout
	}
	if c.IdleTimeout < 0 {
		c.IdleTimeout = 0
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = def.Limits
	}
	return c
}
