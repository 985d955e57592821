package modem

import (
	"log/slog"
	"maps"
	"time"

	"i4.energy/across/gsmat/gsm"
)

// Config configures a Modem. Use NewConfigBuilder to obtain a validated one.
type Config struct {
	// Dialer opens the transport. Required.
	Dialer Dialer
	// SimPIN is entered during initialization when the SIM asks for it.
	SimPIN string
	// APN is used by AttachGPRS when the caller does not name one.
	APN string
	// ATTimeout bounds a single command during initialization.
	ATTimeout time.Duration
	// InitTimeout bounds the whole initialization sequence.
	InitTimeout time.Duration
	// TickPeriod is the clock resolution of the command engine.
	TickPeriod time.Duration
	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
	// CommandTimeouts override the time budget of individual commands.
	CommandTimeouts map[gsm.CommandID]time.Duration
	// SIMPoll controls waiting for the SIM after the PIN was entered.
	SIMPoll PollConfig
	// Logger receives protocol traces. Nil discards them.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 30 * time.Second
	}
	if c.TickPeriod == 0 {
		c.TickPeriod = gsm.DefaultTickPeriod
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = 100
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder with no dialer and default timeouts.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: Config{CommandTimeouts: map[gsm.CommandID]time.Duration{}}}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithSimPIN(pin string) *ConfigBuilder {
	b.config.SimPIN = pin
	return b
}

func (b *ConfigBuilder) WithAPN(apn string) *ConfigBuilder {
	b.config.APN = apn
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

func (b *ConfigBuilder) WithTickPeriod(d time.Duration) *ConfigBuilder {
	b.config.TickPeriod = d
	return b
}

func (b *ConfigBuilder) WithEventBuffer(n int) *ConfigBuilder {
	b.config.EventBuffer = n
	return b
}

// WithCommandTimeout overrides the time budget of one command.
func (b *ConfigBuilder) WithCommandTimeout(id gsm.CommandID, d time.Duration) *ConfigBuilder {
	b.config.CommandTimeouts[id] = d
	return b
}

func (b *ConfigBuilder) WithSIMPoll(p PollConfig) *ConfigBuilder {
	b.config.SIMPoll = p
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	c.CommandTimeouts = maps.Clone(b.config.CommandTimeouts)
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
