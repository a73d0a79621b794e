package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.MinSelected != 100 || cfg.MaxSelected != 150 {
		t.Errorf("selection band = [%d,%d], want [100,150]", cfg.MinSelected, cfg.MaxSelected)
	}
	if cfg.MaxLatencyMS != 2000 {
		t.Errorf("max latency = %d, want 2000", cfg.MaxLatencyMS)
	}
	if cfg.ScanInterval != time.Hour {
		t.Errorf("scan interval = %s, want 1h", cfg.ScanInterval)
	}
	if cfg.GeoAPIBaseURL != "http://ip-api.com" {
		t.Errorf("geo api = %q", cfg.GeoAPIBaseURL)
	}
}

func TestLoadAppliesServerFloor(t *testing.T) {
	t.Setenv("SERVERS_TO_TEST", "5")
	if got := Load().ServersToTest; got != 1000 {
		t.Errorf("servers to test = %d, want floor 1000", got)
	}

	t.Setenv("SERVERS_TO_TEST", "2500")
	if got := Load().ServersToTest; got != 2500 {
		t.Errorf("servers to test = %d, want 2500 kept above the floor", got)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("SCAN_INTERVAL", "30m")
	t.Setenv("MAX_CONCURRENCY", "7")
	t.Setenv("TEST_TIMEOUT", "1500ms")

	cfg := Load()
	if cfg.ScanInterval != 30*time.Minute {
		t.Errorf("scan interval = %s, want 30m", cfg.ScanInterval)
	}
	if cfg.MaxConcurrency != 7 {
		t.Errorf("max concurrency = %d, want 7", cfg.MaxConcurrency)
	}
	if cfg.TestTimeout != 1500*time.Millisecond {
		t.Errorf("test timeout = %s, want 1.5s", cfg.TestTimeout)
	}
}
