package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Safety.HourlyActionLimit != 8 {
		t.Errorf("hourly limit = %d, want 8", cfg.Safety.HourlyActionLimit)
	}
	if cfg.Safety.DailyActionLimit != 30 {
		t.Errorf("daily limit = %d, want 30", cfg.Safety.DailyActionLimit)
	}
	if cfg.Safety.WeeklyActionLimit != 150 {
		t.Errorf("weekly limit = %d, want 150", cfg.Safety.WeeklyActionLimit)
	}
	if cfg.Safety.ErrorRateThreshold != 0.3 {
		t.Errorf("error threshold = %v, want 0.3", cfg.Safety.ErrorRateThreshold)
	}
	if cfg.Aggregation.MinRelevanceScore != 10.0 {
		t.Errorf("min relevance = %v, want 10.0", cfg.Aggregation.MinRelevanceScore)
	}
	if cfg.Aggregation.AutoSaveThreshold != 35.0 {
		t.Errorf("auto-save threshold = %v, want 35.0", cfg.Aggregation.AutoSaveThreshold)
	}
	if got, want := cfg.Paths.Database, "data/openlinkedin.db"; got != want {
		t.Errorf("database path = %q, want %q", got, want)
	}
	if got, want := cfg.Server.Addr(), "127.0.0.1:8787"; got != want {
		t.Errorf("addr = %q, want %q", got, want)
	}
	if got, want := cfg.Gemini.Model, "gemini-flash-lite-latest"; got != want {
		t.Errorf("gemini model = %q, want %q", got, want)
	}
	if got := cfg.Aggregation.DefaultPriorities; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("default priorities = %v, want [1 2]", got)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	path := writeConfig(t, `
safety:
  hourly_action_limit: 3
  cooldown_minutes: 5
server:
  port: 9000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Safety.HourlyActionLimit != 3 {
		t.Errorf("hourly limit = %d, want 3", cfg.Safety.HourlyActionLimit)
	}
	if cfg.Safety.CooldownMinutes != 5 {
		t.Errorf("cooldown = %d, want 5", cfg.Safety.CooldownMinutes)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	// Untouched keys keep defaults.
	if cfg.Safety.DailyActionLimit != 30 {
		t.Errorf("daily limit = %d, want 30", cfg.Safety.DailyActionLimit)
	}
}

func TestEnvPlaceholderSubstitution(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("TEST_GEMINI_KEY", "secret-key-value")
	os.Unsetenv("TEST_MISSING_VAR")

	path := writeConfig(t, `
gemini:
  api_key: ${TEST_GEMINI_KEY}
linkedin:
  email: ${TEST_MISSING_VAR}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gemini.APIKey != "secret-key-value" {
		t.Errorf("api key = %q, want substituted value", cfg.Gemini.APIKey)
	}
	if cfg.LinkedIn.Email != "" {
		t.Errorf("email = %q, want empty for unknown variable", cfg.LinkedIn.Email)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero hourly limit", "safety:\n  hourly_action_limit: 0\n"},
		{"threshold above one", "safety:\n  error_rate_threshold: 1.5\n"},
		{"negative cooldown", "safety:\n  cooldown_minutes: -1\n"},
		{"zero error window", "safety:\n  error_window_seconds: 0\n"},
		{"inverted post bounds", "validation:\n  min_post_length: 500\n  max_post_length: 100\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			t.Cleanup(Reset)
			if _, err := Load(writeConfig(t, tt.yaml)); err == nil {
				t.Errorf("Load() succeeded, want validation error")
			}
		})
	}
}

func TestEnvVarBinding(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("OPENLINKEDIN_API_TOKEN", "env-token")

	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("api key = %q, want env-key", cfg.Gemini.APIKey)
	}
	if cfg.Server.APIToken != "env-token" {
		t.Errorf("api token = %q, want env-token", cfg.Server.APIToken)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
