package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadYAML verifies a full config file parses, including human-friendly
// duration and size values.
func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  address: 127.0.0.1
  port: 9090
  db_path: /tmp/branchdb
security:
  cors:
    allowed_origins: ["https://app.example.com"]
  rate_limit:
    rps: 12.5
    burst: 30
  api_keys:
    backend: ["bk-1"]
    frontend: ["fk-1", "fk-2"]
logging:
  level: debug
  format: json
retention:
  enabled: true
  cron: "0 3 * * *"
  period: 720h
  draft_period: 168h
  min_period: "24h"
defaults:
  model: openrouter/auto
  title_model: openrouter/auto
limits:
  max_name_len: 256
  max_part_bytes: 2MB
  max_parts: 32
  max_note_bytes: "65536"
  allowed_models: ["openrouter/auto"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Address != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if got := cfg.Addr(); got != "127.0.0.1:9090" {
		t.Fatalf("Addr() = %q", got)
	}
	if cfg.Security.RateLimit.RPS != 12.5 || cfg.Security.RateLimit.Burst != 30 {
		t.Fatalf("rate limit = %+v", cfg.Security.RateLimit)
	}
	if len(cfg.Security.APIKeys.Frontend) != 2 {
		t.Fatalf("frontend keys = %v", cfg.Security.APIKeys.Frontend)
	}
	if cfg.Retention.Period.Duration() != 720*time.Hour {
		t.Fatalf("retention period = %v", cfg.Retention.Period.Duration())
	}
	if cfg.Retention.DraftPeriod.Duration() != 168*time.Hour {
		t.Fatalf("draft period = %v", cfg.Retention.DraftPeriod.Duration())
	}
	if cfg.Limits.MaxPartBytes.Int64() != 2_000_000 {
		t.Fatalf("max_part_bytes = %d", cfg.Limits.MaxPartBytes.Int64())
	}
	if cfg.Limits.MaxNoteBytes.Int64() != 65536 {
		t.Fatalf("max_note_bytes = %d", cfg.Limits.MaxNoteBytes.Int64())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

// TestDurationNumericSeconds verifies bare numbers parse as seconds.
func TestDurationNumericSeconds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("retention:\n  period: 90\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retention.Period.Duration() != 90*time.Second {
		t.Fatalf("period = %v, want 90s", cfg.Retention.Period.Duration())
	}
}

// TestAddrDefaults verifies the listen address falls back to 0.0.0.0:8080.
func TestAddrDefaults(t *testing.T) {
	var cfg Config
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("Addr() = %q", got)
	}
	cfg.Server.Port = 9999
	if got := cfg.Addr(); got != "0.0.0.0:9999" {
		t.Fatalf("Addr() = %q", got)
	}
}

// TestParseConfigEnvs verifies environment variables land in the env-only
// config and backend keys double as signing keys.
func TestParseConfigEnvs(t *testing.T) {
	t.Setenv("BRANCHDB_ADDR", "10.0.0.5:7000")
	t.Setenv("BRANCHDB_DB_PATH", "/data/branchdb")
	t.Setenv("BRANCHDB_API_BACKEND_KEYS", "bk-1, bk-2")
	t.Setenv("BRANCHDB_LOG_LEVEL", "warn")
	t.Setenv("BRANCHDB_RATE_RPS", "3.5")

	cfg, res := ParseConfigEnvs()
	if !res.EnvUsed {
		t.Fatalf("EnvUsed = false")
	}
	if cfg.Server.Address != "10.0.0.5" || cfg.Server.Port != 7000 {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Server.DBPath != "/data/branchdb" {
		t.Fatalf("db path = %q", cfg.Server.DBPath)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Security.RateLimit.RPS != 3.5 {
		t.Fatalf("rps = %v", cfg.Security.RateLimit.RPS)
	}
	if len(res.BackendKeys) != 2 {
		t.Fatalf("backend keys = %v", res.BackendKeys)
	}
	if _, ok := res.SigningKeys["bk-2"]; !ok {
		t.Fatalf("backend key not mirrored into signing keys: %v", res.SigningKeys)
	}
}

// TestLoadEffectiveConfigPrecedence verifies the source selection order:
// explicit --config, then any addr/db flags, then the config file, then env.
func TestLoadEffectiveConfigPrecedence(t *testing.T) {
	fileCfg := &Config{}
	fileCfg.Server.Address = "file-host"
	fileCfg.Server.Port = 1111
	fileCfg.Server.DBPath = "/file/db"

	envCfg := &Config{}
	envCfg.Server.Address = "env-host"
	envCfg.Server.Port = 2222
	envCfg.Server.DBPath = "/env/db"

	// explicit --config wins and must exist
	res, err := LoadEffectiveConfig(Flags{Config: "c.yaml", Set: map[string]bool{"config": true}}, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "config" || res.Addr != "file-host:1111" {
		t.Fatalf("explicit config: source=%s addr=%s", res.Source, res.Addr)
	}
	if _, err := LoadEffectiveConfig(Flags{Config: "c.yaml", Set: map[string]bool{"config": true}}, &Config{}, false, envCfg, EnvResult{}); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}

	// addr/db flags beat both file and env
	res, err = LoadEffectiveConfig(Flags{Addr: ":5000", DB: "/flag/db", Set: map[string]bool{"addr": true, "db": true}}, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "flags" || res.Addr != ":5000" || res.DBPath != "/flag/db" {
		t.Fatalf("flags: %+v", res)
	}

	// a partial flag set fills the gap from env before file
	res, err = LoadEffectiveConfig(Flags{Addr: ":5000", Set: map[string]bool{"addr": true}}, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.DBPath != "/env/db" {
		t.Fatalf("partial flags db = %q, want env value", res.DBPath)
	}

	// no flags: the config file wins when present
	res, err = LoadEffectiveConfig(Flags{Set: map[string]bool{}}, fileCfg, true, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "config" || res.DBPath != "/file/db" {
		t.Fatalf("file fallback: %+v", res)
	}

	// nothing else: env
	res, err = LoadEffectiveConfig(Flags{Set: map[string]bool{}}, &Config{}, false, envCfg, EnvResult{})
	if err != nil {
		t.Fatalf("LoadEffectiveConfig: %v", err)
	}
	if res.Source != "env" || res.Addr != "env-host:2222" {
		t.Fatalf("env fallback: %+v", res)
	}
}

// TestResolveConfigPath verifies flag beats env beats default.
func TestResolveConfigPath(t *testing.T) {
	t.Setenv("BRANCHDB_CONFIG", "/env/config.yaml")
	if got := ResolveConfigPath("/flag/config.yaml", true); got != "/flag/config.yaml" {
		t.Fatalf("flag-set path = %q", got)
	}
	if got := ResolveConfigPath("./config.yaml", false); got != "/env/config.yaml" {
		t.Fatalf("env path = %q", got)
	}
	os.Unsetenv("BRANCHDB_CONFIG")
	if got := ResolveConfigPath("./config.yaml", false); got != "./config.yaml" {
		t.Fatalf("default path = %q", got)
	}
}

// TestRuntimeKeys verifies the runtime key registry returns copies.
func TestRuntimeKeys(t *testing.T) {
	SetRuntime(&RuntimeConfig{
		BackendKeys: map[string]struct{}{"bk": {}},
		SigningKeys: map[string]struct{}{"sk": {}},
	})
	t.Cleanup(func() { SetRuntime(nil) })

	got := GetBackendKeys()
	if _, ok := got["bk"]; !ok {
		t.Fatalf("backend keys = %v", got)
	}
	delete(got, "bk")
	if _, ok := GetBackendKeys()["bk"]; !ok {
		t.Fatalf("caller mutation leaked into registry")
	}
	if _, ok := GetSigningKeys()["sk"]; !ok {
		t.Fatalf("signing keys = %v", GetSigningKeys())
	}
}
