package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/ini.v1"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// SimPIN is the SIM card PIN code
	SimPIN string
	// APN is the access point used for GPRS
	APN string
}

var logLevels = []string{"debug", "info", "warn", "error"}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		return nil
	}
}

// WithFile loads configuration from an INI file. An empty path is ignored.
//
//	[modem]
//	port = /dev/ttyUSB0
//	baud = 115200
//	sim_pin = 1234
//	apn = internet
//
//	[server]
//	bind_address = 0.0.0.0:8080
//
//	[log]
//	level = info
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		f, err := ini.Load(path)
		if err != nil {
			return fmt.Errorf("load config file: %w", err)
		}

		modemCfg := f.Section("modem")
		if modemCfg.HasKey("port") {
			c.SerialPort = modemCfg.Key("port").String()
		}
		if modemCfg.HasKey("baud") {
			baud, err := modemCfg.Key("baud").Int()
			if err != nil {
				return fmt.Errorf("modem baud value is '%s', must be a number", modemCfg.Key("baud").String())
			}
			c.BaudRate = baud
		}
		if modemCfg.HasKey("sim_pin") {
			c.SimPIN = modemCfg.Key("sim_pin").String()
		}
		if modemCfg.HasKey("apn") {
			c.APN = modemCfg.Key("apn").String()
		}

		if addr := f.Section("server").Key("bind_address").String(); addr != "" {
			c.BindAddress = addr
		}
		c.LogLevel = f.Section("log").Key("level").In(c.LogLevel, logLevels)
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if simPIN := os.Getenv("SIM_PIN"); simPIN != "" {
			c.SimPIN = simPIN
		}

		if apn := os.Getenv("APN"); apn != "" {
			c.APN = apn
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *flag.FlagSet) ConfigOption {
	return func(c *Config) error {
		fSet.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "bind-address":
				c.BindAddress = f.Value.String()
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "sim-pin":
				c.SimPIN = f.Value.String()
			case "apn":
				c.APN = f.Value.String()
			}
		})
		return nil
	}
}
