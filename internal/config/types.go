package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`
	Dispatch DispatchConfig `json:"dispatch,omitempty"`
	Storage  *StorageConfig `json:"storage,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ChatID     int64  `json:"chat_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// DispatchConfig controls the message dispatch worker pool.
type DispatchConfig struct {
	QueueSize int `json:"queue_size,omitempty"`
	// InvokeTimeout caps one handler invocation. Go duration string;
	// "0s" disables the cap.
	InvokeTimeout string `json:"invoke_timeout,omitempty"`
}

// StorageConfig controls the optional event store.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./botlib_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// Validate rejects configs the process cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if _, err := c.PollTimeout(); err != nil {
		return fmt.Errorf("telegram.poll_timeout: %w", err)
	}
	if _, err := c.InvokeTimeout(); err != nil {
		return fmt.Errorf("dispatch.invoke_timeout: %w", err)
	}
	if c.Dispatch.QueueSize < 0 {
		return fmt.Errorf("dispatch.queue_size must be >= 0")
	}
	return nil
}

func (c *Config) PollTimeout() (time.Duration, error) {
	return parseOptionalDuration(c.Telegram.PollTimeout, 10*time.Second)
}

func (c *Config) InvokeTimeout() (time.Duration, error) {
	return parseOptionalDuration(c.Dispatch.InvokeTimeout, 0)
}

func parseOptionalDuration(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}
