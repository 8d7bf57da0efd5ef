package main

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/iw2rmb/glimmer/assist"
)

// demoConfig is the optional glimmer.toml next to the binary. Every field
// has a usable default so the file can be absent or partial.
type demoConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`

	InlineDelayMS  int `toml:"inline_delay_ms"`
	RewriteDelayMS int `toml:"rewrite_delay_ms"`
	ScanDelayMS    int `toml:"scan_delay_ms"`
	CacheTTLSec    int `toml:"cache_ttl_sec"`

	LogFile string `toml:"log_file"`
}

func loadConfig(path string) (demoConfig, error) {
	var cfg demoConfig
	_, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	return cfg, err
}

func (c demoConfig) sessionOptions(log *slog.Logger) assist.Options {
	return assist.Options{
		InlineDelay:  time.Duration(c.InlineDelayMS) * time.Millisecond,
		RewriteDelay: time.Duration(c.RewriteDelayMS) * time.Millisecond,
		ScanDelay:    time.Duration(c.ScanDelayMS) * time.Millisecond,
		Logger:       log,
	}
}

func (c demoConfig) cacheTTL() time.Duration {
	if c.CacheTTLSec <= 0 {
		return 0 // gateway default
	}
	return time.Duration(c.CacheTTLSec) * time.Second
}

// newLogger writes JSON logs to the configured file. Without one, logs are
// discarded so they cannot tear up the terminal UI.
func newLogger(c demoConfig) (*slog.Logger, func() error) {
	if c.LogFile == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() error { return nil }
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() error { return nil }
	}
	return slog.New(slog.NewJSONHandler(f, nil)), f.Close
}
