// Package config holds the tunables of the dungeon server and its tools.
package config

import (
	"flag"
	"time"
)

// Config holds runtime parameters shared by the binaries.
type Config struct {
	// HTTP / WebSocket
	Addr             string
	PollInterval     time.Duration // how often the hub samples engine snapshots
	ClientSendBuffer int           // per WebSocket
	MaxMessageSize   int64         // largest command accepted from a client

	// Persistence
	DBPath          string // empty = in-memory store
	SaveKey         string
	SaveTimeout     time.Duration
	EventLogEnabled bool // write engine events through to SQLite

	// Game pacing
	TickInterval time.Duration // one BossTimer step per tick
	PacingDelay  time.Duration // pause between a kill and the next battle
}

// DefaultConfig returns the settings used by the shipped server.
func DefaultConfig() *Config {
	return &Config{
		Addr:             ":8080",
		PollInterval:     100 * time.Millisecond,
		ClientSendBuffer: 64,
		MaxMessageSize:   512,

		DBPath:          "data/dungeon.db",
		SaveKey:         "pythagorasDungeon_save",
		SaveTimeout:     2 * time.Second,
		EventLogEnabled: true,

		TickInterval: 100 * time.Millisecond,
		PacingDelay:  2 * time.Second,
	}
}

// LowResourceConfig returns settings for development and tests:
// no database, small buffers.
func LowResourceConfig() *Config {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.DBPath = ""
	cfg.EventLogEnabled = false
	cfg.ClientSendBuffer = 8
	return cfg
}

// RegisterFlags binds the config fields to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "SQLite database path (empty for an in-memory store)")
	fs.StringVar(&c.SaveKey, "save-key", c.SaveKey, "key of the save record")
	fs.BoolVar(&c.EventLogEnabled, "event-log", c.EventLogEnabled, "persist engine events to SQLite")
	fs.DurationVar(&c.TickInterval, "tick", c.TickInterval, "timer tick interval")
	fs.DurationVar(&c.PacingDelay, "pacing", c.PacingDelay, "delay between a kill and the next battle")
	fs.DurationVar(&c.PollInterval, "poll", c.PollInterval, "snapshot poll interval for WebSocket clients")
	fs.BoolFunc("memory", "run without a database (low-resource profile)", func(string) error {
		c.UseMemory()
		return nil
	})
}

// UseMemory applies the storage and buffer settings of LowResourceConfig,
// keeping the listen address.
func (c *Config) UseMemory() {
	low := LowResourceConfig()
	c.DBPath = low.DBPath
	c.EventLogEnabled = low.EventLogEnabled
	c.ClientSendBuffer = low.ClientSendBuffer
}
