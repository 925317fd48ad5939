package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/TheSmallBoat/meshcfg/logging"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Client  ClientConfig  `toml:"client"`
	Gateway GatewayConfig `toml:"gateway"`
	Log     LogConfig     `toml:"log"`
}

type ClientConfig struct {
	Timeout    string `toml:"timeout"`
	MaxPending int    `toml:"max_pending"`
	NetIdx     uint16 `toml:"net_idx"`
	TTL        uint8  `toml:"ttl"`
}

type GatewayConfig struct {
	Addr         string  `toml:"addr"`
	DialTimeout  string  `toml:"dial_timeout"`
	WriteTimeout string  `toml:"write_timeout"`
	SendRate     float64 `toml:"send_rate"`
	SendBurst    int     `toml:"send_burst"`
	MinBackoff   string  `toml:"min_backoff"`
	MaxBackoff   string  `toml:"max_backoff"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Client: ClientConfig{
			Timeout:    "4s",
			MaxPending: 64,
			TTL:        0xff,
		},
		Gateway: GatewayConfig{
			Addr:         "127.0.0.1:7070",
			DialTimeout:  "3s",
			WriteTimeout: "3s",
			SendRate:     20,
			SendBurst:    4,
			MinBackoff:   "500ms",
			MaxBackoff:   "5s",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	for key, v := range map[string]string{
		"client.timeout":        cfg.Client.Timeout,
		"gateway.dial_timeout":  cfg.Gateway.DialTimeout,
		"gateway.write_timeout": cfg.Gateway.WriteTimeout,
		"gateway.min_backoff":   cfg.Gateway.MinBackoff,
		"gateway.max_backoff":   cfg.Gateway.MaxBackoff,
	} {
		if _, err := parsePositive(v); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if cfg.Client.MaxPending < 0 {
		return fmt.Errorf("client.max_pending must not be negative")
	}
	if cfg.Client.NetIdx > 0x0fff {
		return fmt.Errorf("client.net_idx 0x%04x exceeds 12 bits", cfg.Client.NetIdx)
	}
	if strings.TrimSpace(cfg.Gateway.Addr) == "" {
		return fmt.Errorf("gateway.addr is required")
	}
	if cfg.Gateway.SendRate < 0 {
		return fmt.Errorf("gateway.send_rate must not be negative")
	}
	if cfg.Gateway.SendRate > 0 && cfg.Gateway.SendBurst < 1 {
		return fmt.Errorf("gateway.send_burst must be at least 1 when send_rate is set")
	}
	if cfg.ClientTimeout() <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	if cfg.Gateway.MinBackoffDuration() > cfg.Gateway.MaxBackoffDuration() {
		return fmt.Errorf("gateway.min_backoff exceeds gateway.max_backoff")
	}
	if _, ok := logging.LookupLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	return nil
}

func parsePositive(s string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

// The accessors below assume a validated config.

func (c Config) ClientTimeout() time.Duration {
	d, _ := parsePositive(c.Client.Timeout)
	return d
}

func (g GatewayConfig) DialTimeoutDuration() time.Duration {
	d, _ := parsePositive(g.DialTimeout)
	return d
}

func (g GatewayConfig) WriteTimeoutDuration() time.Duration {
	d, _ := parsePositive(g.WriteTimeout)
	return d
}

func (g GatewayConfig) MinBackoffDuration() time.Duration {
	d, _ := parsePositive(g.MinBackoff)
	return d
}

func (g GatewayConfig) MaxBackoffDuration() time.Duration {
	d, _ := parsePositive(g.MaxBackoff)
	return d
}
