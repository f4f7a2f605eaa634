package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
server:
  host: "0.0.0.0"
  port: 8080
database:
  host: "localhost"
  port: 5432
  name: "ironlog"
  user: "ironlog"
  password: "secret"
  sslmode: "disable"
auth:
  api_key: "test-key-123"
progress:
  weekly_target_days: 4
  weeks: 12
  unit: "lb"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all
// fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "ironlog" {
		t.Errorf("database.name = %q, want %q", cfg.Database.Name, "ironlog")
	}
	if cfg.Auth.APIKey != "test-key-123" {
		t.Errorf("auth.api_key = %q, want %q", cfg.Auth.APIKey, "test-key-123")
	}
	if cfg.Progress.WeeklyTargetDays != 4 {
		t.Errorf("progress.weekly_target_days = %d, want 4", cfg.Progress.WeeklyTargetDays)
	}
	if cfg.Progress.Weeks != 12 {
		t.Errorf("progress.weeks = %d, want 12", cfg.Progress.Weeks)
	}
	if cfg.Progress.Unit != "lb" {
		t.Errorf("progress.unit = %q, want %q", cfg.Progress.Unit, "lb")
	}
}

// TestProgressDefaults verifies the dashboard defaults apply when the
// progress section is omitted.
func TestProgressDefaults(t *testing.T) {
	yaml := `
server:
  port: 8080
database:
  host: "localhost"
  port: 5432
  name: "ironlog"
  user: "ironlog"
auth:
  api_key: "k"
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Progress.WeeklyTargetDays != 3 {
		t.Errorf("weekly_target_days = %d, want default 3", cfg.Progress.WeeklyTargetDays)
	}
	if cfg.Progress.Weeks != 8 {
		t.Errorf("weeks = %d, want default 8", cfg.Progress.Weeks)
	}
	if cfg.Progress.Unit != "kg" {
		t.Errorf("unit = %q, want default kg", cfg.Progress.Unit)
	}
}

// TestEnvOverride verifies that IRONLOG_ env vars take precedence over
// YAML values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("IRONLOG_DB_HOST", "override-host")
	t.Setenv("IRONLOG_DB_PORT", "9999")
	t.Setenv("IRONLOG_AUTH_API_KEY", "env-key")
	t.Setenv("IRONLOG_WEEKLY_TARGET", "6")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "override-host" {
		t.Errorf("database.host = %q, want %q", cfg.Database.Host, "override-host")
	}
	if cfg.Database.Port != 9999 {
		t.Errorf("database.port = %d, want 9999", cfg.Database.Port)
	}
	if cfg.Auth.APIKey != "env-key" {
		t.Errorf("auth.api_key = %q, want %q", cfg.Auth.APIKey, "env-key")
	}
	if cfg.Progress.WeeklyTargetDays != 6 {
		t.Errorf("weekly_target_days = %d, want 6", cfg.Progress.WeeklyTargetDays)
	}
}

// TestValidation verifies required fields are enforced.
func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"missing port without tailscale",
			`
database: {host: h, port: 5432, name: n, user: u}
auth: {api_key: k}
`,
		},
		{
			"missing database host",
			`
server: {port: 8080}
database: {port: 5432, name: n, user: u}
auth: {api_key: k}
`,
		},
		{
			"missing api key",
			`
server: {port: 8080}
database: {host: h, port: 5432, name: n, user: u}
`,
		},
		{
			"tailscale without hostname",
			`
database: {host: h, port: 5432, name: n, user: u}
auth: {api_key: k}
tailscale: {enabled: true}
`,
		},
		{
			"bad unit",
			`
server: {port: 8080}
database: {host: h, port: 5432, name: n, user: u}
auth: {api_key: k}
progress: {unit: stone}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tt.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// TestDSN verifies the connection string format and the sslmode default.
func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "ironlog", User: "u", Password: "p"}
	want := "postgres://u:p@db:5432/ironlog?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}

	d.SSLMode = "require"
	want = "postgres://u:p@db:5432/ironlog?sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
