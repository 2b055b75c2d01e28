package config

import (
	"flag"
	"testing"
	"time"
)

func TestRegisterFlagsOverridesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	if err := fs.Parse([]string{"-db", "", "-pacing", "50ms", "-addr", ":9000"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.DBPath != "" {
		t.Errorf("expected empty db path, got %q", cfg.DBPath)
	}
	if cfg.PacingDelay != 50*time.Millisecond {
		t.Errorf("expected 50ms pacing, got %v", cfg.PacingDelay)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected :9000, got %q", cfg.Addr)
	}
	if cfg.TickInterval != 100*time.Millisecond {
		t.Errorf("tick default changed: %v", cfg.TickInterval)
	}
}

func TestLowResourceConfigHasNoDatabase(t *testing.T) {
	cfg := LowResourceConfig()
	if cfg.DBPath != "" || cfg.EventLogEnabled {
		t.Errorf("expected in-memory config, got %+v", cfg)
	}
	if cfg.SaveKey != DefaultConfig().SaveKey {
		t.Errorf("save key must not change between configs")
	}
}

func TestMemoryFlagDropsDatabase(t *testing.T) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)

	if err := fs.Parse([]string{"-addr", ":9100", "-memory"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if cfg.DBPath != "" || cfg.EventLogEnabled {
		t.Errorf("expected in-memory storage, got db=%q eventLog=%v", cfg.DBPath, cfg.EventLogEnabled)
	}
	if cfg.ClientSendBuffer != LowResourceConfig().ClientSendBuffer {
		t.Errorf("expected low-resource send buffer, got %d", cfg.ClientSendBuffer)
	}
	if cfg.Addr != ":9100" {
		t.Errorf("-memory must keep the listen address, got %q", cfg.Addr)
	}
}
