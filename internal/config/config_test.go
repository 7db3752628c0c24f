package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
[api_info]
account_name = "main"
exchange = "maicoin"
api_key = "key"
secret_key = "secret"

[settings]
fee_rate = 0.00105
response_timeout = 10
protect_tolerance = 0.001

[exchange]
rest_base_url = "https://max-api.maicoin.com"
ws_market_url = "wss://max-stream.maicoin.com/ws"
ws_user_url = "wss://max-stream.maicoin.com/ws"

[[triangles]]
symbols = ["BTC_USDT", "BTC_TWD", "USDT_TWD"]

[[triangles]]
symbols = ["ETH_USDT", "ETH_TWD", "USDT_TWD"]

[logging]
level = "info"
format = "json"
directory = "logs"
max_size_mb = 10

[risk]
max_consecutive_leg_failures = 3
cooldown = "30s"
`

func writeTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "triarb.toml")
	if err := os.WriteFile(path, []byte(sampleTOML), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIInfo.ApiKey != "key" {
		t.Errorf("ApiKey = %q, want %q", cfg.APIInfo.ApiKey, "key")
	}
	if cfg.Settings.FeeRate != 0.00105 {
		t.Errorf("FeeRate = %v, want 0.00105", cfg.Settings.FeeRate)
	}
	if len(cfg.Triangles) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(cfg.Triangles))
	}
	if cfg.Triangles[0].Symbols[0] != "BTC_USDT" {
		t.Errorf("Triangles[0].Symbols[0] = %q, want BTC_USDT", cfg.Triangles[0].Symbols[0])
	}
	if cfg.Risk.MaxConsecutiveLegFailures != 3 {
		t.Errorf("MaxConsecutiveLegFailures = %d, want 3", cfg.Risk.MaxConsecutiveLegFailures)
	}
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	path := writeTempConfig(t)
	t.Setenv("TRIARB_API_KEY", "env-key")
	t.Setenv("TRIARB_SECRET_KEY", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIInfo.ApiKey != "env-key" {
		t.Errorf("ApiKey = %q, want env-key", cfg.APIInfo.ApiKey)
	}
	if cfg.APIInfo.SecretKey != "env-secret" {
		t.Errorf("SecretKey = %q, want env-secret", cfg.APIInfo.SecretKey)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestValidateRequiresAtLeastOneTriangle(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		APIInfo:  APIInfoConfig{ApiKey: "k", SecretKey: "s"},
		Settings: SettingsConfig{ResponseTimeout: 10},
		Exchange: ExchangeConfig{RestBaseURL: "https://example.com"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for no triangles configured")
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		APIInfo:  APIInfoConfig{ApiKey: "k", SecretKey: "s"},
		Settings: SettingsConfig{ResponseTimeout: 10},
		Exchange: ExchangeConfig{RestBaseURL: "https://example.com"},
		Triangles: []TriangleConfig{
			{Symbols: [3]string{"BTC_USDT", "BTC_TWD", "USDT_TWD"}},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
