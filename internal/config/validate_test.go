package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		DatabaseURL:            "postgres://localhost/audit",
		DBOpTimeoutStr:         "5s",
		HTTPShutdownTimeoutStr: "10s",
		NameCacheTTLStr:        "10m",
		MonitorSchedule:        "*/15 * * * *",
		MonitorWindowStr:       "24h",
		AlertWebhookTimeoutStr: "30s",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Errorf("Validate = %v, want nil", err)
	}
}

func TestValidate_RequiresDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted missing DATABASE_URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %v, want DATABASE_URL mentioned", err)
	}
}

func TestValidate_Durations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"garbage op timeout", func(c *Config) { c.DBOpTimeoutStr = "soon" }},
		{"negative ttl", func(c *Config) { c.NameCacheTTLStr = "-1m" }},
		{"zero window", func(c *Config) { c.MonitorWindowStr = "0s" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if Validate(cfg) == nil {
				t.Error("Validate accepted invalid duration")
			}
		})
	}
}

func TestValidate_MonitorSchedule(t *testing.T) {
	cfg := validConfig()
	cfg.MonitorEnabled = true
	cfg.MonitorSchedule = "every full moon"

	if Validate(cfg) == nil {
		t.Error("Validate accepted invalid cron expression")
	}

	// schedule is only checked when the monitor is enabled
	cfg.MonitorEnabled = false
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate = %v, want nil when monitor disabled", err)
	}
}

func TestValidate_AlertWebhookURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"empty is fine", "", false},
		{"https ok", "https://alerts.example.com/hook", false},
		{"http ok", "http://alerts.example.com/hook", false},
		{"bad scheme", "ftp://alerts.example.com", true},
		{"no host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.AlertWebhookURL = tt.url
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrors_Message(t *testing.T) {
	cfg := Config{DBOpTimeoutStr: "bad", NameCacheTTLStr: "worse"}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate accepted invalid config")
	}
	msg := err.Error()
	if !strings.Contains(msg, "validation errors") {
		t.Errorf("multi-error message = %q, want aggregated form", msg)
	}
}
