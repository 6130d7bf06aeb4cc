// go-etb
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-etb.
//
// go-etb is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-etb is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-etb; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package config loads etbctl settings from file, environment and flags
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	etb "github.com/ZaparooProject/go-etb"
	"github.com/ZaparooProject/go-etb/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. ETB_SERIAL_PORT
const EnvPrefix = "ETB"

// SerialConfig selects and configures the byte channel
type SerialConfig struct {
	Port        string        `mapstructure:"port" yaml:"port"`
	Driver      string        `mapstructure:"driver" yaml:"driver"`
	Baud        int           `mapstructure:"baud" yaml:"baud"`
	ReadTimeout time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
}

// ProtocolConfig holds the exchange settings
type ProtocolConfig struct {
	Board          string        `mapstructure:"board" yaml:"board"`
	Checksum       string        `mapstructure:"checksum" yaml:"checksum"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MinInterval    time.Duration `mapstructure:"minInterval" yaml:"minInterval"`
	RetryDelay     time.Duration `mapstructure:"retryDelay" yaml:"retryDelay"`
	MaxFrameLength int           `mapstructure:"maxFrameLength" yaml:"maxFrameLength"`
	Retries        int           `mapstructure:"retries" yaml:"retries"`
}

// HTTPConfig configures the gateway
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	MetricsPath  string        `mapstructure:"metricsPath" yaml:"metricsPath"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout"`
}

// WatchConfig configures status polling
type WatchConfig struct {
	Channels         []int         `mapstructure:"channels" yaml:"channels"`
	Interval         time.Duration `mapstructure:"interval" yaml:"interval"`
	OfflineThreshold int           `mapstructure:"offlineThreshold" yaml:"offlineThreshold"`
	Temperature      bool          `mapstructure:"temperature" yaml:"temperature"`
}

// Config is the top level configuration
type Config struct {
	Logging  logging.Config `mapstructure:"logging" yaml:"logging"`
	Serial   SerialConfig   `mapstructure:"serial" yaml:"serial"`
	Protocol ProtocolConfig `mapstructure:"protocol" yaml:"protocol"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Output   string         `mapstructure:"output" yaml:"output"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
}

// flagKeys maps configuration keys to the command line flags overriding them
var flagKeys = map[string]string{
	"serial.port":       "port",
	"serial.baud":       "baud",
	"serial.driver":     "driver",
	"protocol.board":    "board",
	"protocol.timeout":  "timeout",
	"protocol.checksum": "checksum",
	"protocol.retries":  "retries",
	"logging.level":     "log-level",
	"output":            "output",
}

// Load reads configuration from path (or ETB_CONFIG, or etb.yaml in the
// working directory and ~/.config/etb), then applies ETB_ environment
// variables and any flags in flags that were set. A missing file is not an
// error.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "etb"))
		}
		v.SetConfigName("etb")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.port", "")
	v.SetDefault("serial.driver", "serial")
	v.SetDefault("serial.baud", 9600)
	v.SetDefault("serial.readTimeout", "3s")

	v.SetDefault("protocol.board", "1")
	v.SetDefault("protocol.checksum", "masked")
	v.SetDefault("protocol.timeout", "3s")
	v.SetDefault("protocol.minInterval", "0s")
	v.SetDefault("protocol.retryDelay", "100ms")
	v.SetDefault("protocol.maxFrameLength", 256)
	v.SetDefault("protocol.retries", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.metricsPath", "/metrics")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("watch.channels", []int{1})
	v.SetDefault("watch.interval", "1s")
	v.SetDefault("watch.offlineThreshold", 3)
	v.SetDefault("watch.temperature", true)

	v.SetDefault("output", "text")
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	if len(c.Protocol.Board) != 1 {
		return fmt.Errorf("%w: board id must be one character, got %q", etb.ErrInvalidParameter, c.Protocol.Board)
	}
	if _, err := c.ChecksumMode(); err != nil {
		return err
	}
	if c.Protocol.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", etb.ErrInvalidParameter)
	}
	if c.Protocol.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", etb.ErrInvalidParameter)
	}
	switch c.Serial.Driver {
	case "serial", "periph":
	default:
		return fmt.Errorf("%w: unknown driver %q", etb.ErrInvalidParameter, c.Serial.Driver)
	}
	switch c.Output {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown output format %q", etb.ErrInvalidParameter, c.Output)
	}
	return nil
}

// BoardID returns the configured board id
func (c *Config) BoardID() byte {
	return c.Protocol.Board[0]
}

// ChecksumMode parses the configured checksum rendering
func (c *Config) ChecksumMode() (etb.ChecksumMode, error) {
	switch strings.ToLower(c.Protocol.Checksum) {
	case "", "masked":
		return etb.ChecksumMasked, nil
	case "legacy":
		return etb.ChecksumLegacy, nil
	default:
		return 0, fmt.Errorf("%w: unknown checksum mode %q", etb.ErrInvalidParameter, c.Protocol.Checksum)
	}
}

// ClientOptions converts the protocol settings to client options
func (c *Config) ClientOptions() ([]etb.Option, error) {
	mode, err := c.ChecksumMode()
	if err != nil {
		return nil, err
	}
	return []etb.Option{
		etb.WithTimeout(c.Protocol.Timeout),
		etb.WithChecksumMode(mode),
		etb.WithMaxFrameLength(c.Protocol.MaxFrameLength),
		etb.WithRateLimit(c.Protocol.MinInterval),
	}, nil
}
