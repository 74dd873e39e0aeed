package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QuoteConfig holds configuration for a one-shot quote.
type QuoteConfig struct {
	RPCURL       string
	BaseToken    string
	QuoteToken   string
	Fee          uint32
	Amount       string
	Window       string
	Factory      string
	InitCodeHash string
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into
// QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("fee", uint32(3000))
		v.SetDefault("window", "30m")
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		RPCURL:       v.GetString("rpc"),
		BaseToken:    v.GetString("base-token"),
		QuoteToken:   v.GetString("quote-token"),
		Fee:          v.GetUint32("fee"),
		Amount:       v.GetString("amount"),
		Window:       v.GetString("window"),
		Factory:      v.GetString("factory"),
		InitCodeHash: v.GetString("init-code-hash"),
		LogLevel:     v.GetString("log-level"),
	}

	return cfg, nil
}

// WatchConfig holds configuration for the continuous watch loop.
type WatchConfig struct {
	QuoteConfig

	Interval     string
	Out          string
	PGDSN        string
	MaxRetries   int
	RetryBackoff time.Duration
}

// LoadWatch merges config file, environment variables, and flags into
// WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("fee", uint32(3000))
		v.SetDefault("window", "30m")
		v.SetDefault("interval", "1m")
		v.SetDefault("out", "./data/quotes.jsonl")
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return WatchConfig{}, err
	}

	cfg := WatchConfig{
		QuoteConfig: QuoteConfig{
			RPCURL:       v.GetString("rpc"),
			BaseToken:    v.GetString("base-token"),
			QuoteToken:   v.GetString("quote-token"),
			Fee:          v.GetUint32("fee"),
			Amount:       v.GetString("amount"),
			Window:       v.GetString("window"),
			Factory:      v.GetString("factory"),
			InitCodeHash: v.GetString("init-code-hash"),
			LogLevel:     v.GetString("log-level"),
		},
		Interval:     v.GetString("interval"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}

	return cfg, nil
}

// ParseWindow converts a duration string into whole seconds for the oracle.
func ParseWindow(window string) (uint32, error) {
	d, err := time.ParseDuration(window)
	if err != nil {
		return 0, fmt.Errorf("invalid window: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("window must be positive")
	}
	seconds := uint64(d.Seconds())
	if seconds == 0 {
		return 0, fmt.Errorf("window must be at least 1s")
	}
	if seconds > uint64(^uint32(0)) {
		return 0, fmt.Errorf("window exceeds %d seconds", ^uint32(0))
	}
	return uint32(seconds), nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, setDefaults func(*viper.Viper)) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("TWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
