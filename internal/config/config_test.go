package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Out != "./data/events.jsonl" || cfg.PayoutToleranceBps != 50 || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Feeds) != 0 {
		t.Fatalf("feeds should be empty")
	}
}

func TestLoadFileFlagsAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fundctl.yaml")
	body := "out: /tmp/events.jsonl\nfeed-max-age: 90s\nfeeds:\n  DEN: \"0x0000000000000000000000000000000000000a01\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FUNDCTL_PG_DSN", "postgres://localhost/fund")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Uint64("payout-tolerance-bps", 50, "")
	if err := flags.Parse([]string{"--log-level=debug", "--payout-tolerance-bps=25"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Out != "/tmp/events.jsonl" || cfg.FeedMaxAge != 90*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.PGDSN != "postgres://localhost/fund" {
		t.Fatalf("env value not applied: %q", cfg.PGDSN)
	}
	if cfg.LogLevel != "debug" || cfg.PayoutToleranceBps != 25 {
		t.Fatalf("flag values not applied: %+v", cfg)
	}
	if cfg.Feeds["den"] == "" && cfg.Feeds["DEN"] == "" {
		t.Fatalf("feeds not loaded: %v", cfg.Feeds)
	}
}

func TestLoadRejectsTolerance(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FUNDCTL_PAYOUT_TOLERANCE_BPS", "20000")
	if _, err := Load("", nil); err == nil {
		t.Fatalf("expected tolerance error")
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := map[string]uint64{
		"":                     0,
		"1700000000":           1700000000,
		"2023-11-14T22:13:20Z": 1700000000,
	}
	for in, want := range cases {
		got, err := ParseTimestamp(in)
		if err != nil || got != want {
			t.Fatalf("ParseTimestamp(%q) = %d, %v", in, got, err)
		}
	}
	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseStringMap(t *testing.T) {
	got := parseStringMap("a=1, b = 2,broken,=x")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("unexpected map %v", got)
	}
}
