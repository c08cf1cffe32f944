package config

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Config holds all configuration for the draftaudit application.
// Values are loaded from environment variables; see printUsage() for the full list.
type Config struct {
	DatabaseURL string `json:"database_url"`
	RedisAddr   string `json:"redis_addr,omitempty"`
	HTTPAddr    string `json:"http_addr"`

	DBOpTimeout    time.Duration `json:"-"`
	DBOpTimeoutStr string        `json:"db_op_timeout"`

	DBMaxOpenConns       int           `json:"db_max_open_conns"`
	DBMaxIdleConns       int           `json:"db_max_idle_conns"`
	DBConnMaxLifetime    time.Duration `json:"-"`
	DBConnMaxLifetimeStr string        `json:"db_conn_max_lifetime"`
	DBConnMaxIdleTime    time.Duration `json:"-"`
	DBConnMaxIdleTimeStr string        `json:"db_conn_max_idle_time"`

	HTTPShutdownTimeout    time.Duration `json:"-"`
	HTTPShutdownTimeoutStr string        `json:"http_shutdown_timeout"`

	// EventFetchLimit caps the number of events pulled per pass;
	// callers must supply the full window in one result set.
	EventFetchLimit int `json:"event_fetch_limit"`

	NameCacheTTL    time.Duration `json:"-"`
	NameCacheTTLStr string        `json:"name_cache_ttl"`

	MetricsEnabled bool   `json:"metrics_enabled"`
	MetricsPath    string `json:"metrics_path"`

	MonitorEnabled  bool   `json:"monitor_enabled"`
	MonitorSchedule string `json:"monitor_schedule"`

	MonitorWindow    time.Duration `json:"-"`
	MonitorWindowStr string        `json:"monitor_window"`

	AlertWebhookURL    string `json:"alert_webhook_url,omitempty"`
	AlertWebhookSecret string `json:"alert_webhook_secret,omitempty"`

	AlertWebhookTimeout    time.Duration `json:"-"`
	AlertWebhookTimeoutStr string        `json:"alert_webhook_timeout"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	cfg := Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		HTTPAddr:               os.Getenv("HTTP_ADDR"),
		DBOpTimeoutStr:         os.Getenv("DB_OP_TIMEOUT"),
		DBConnMaxLifetimeStr:   os.Getenv("DB_CONN_MAX_LIFETIME"),
		DBConnMaxIdleTimeStr:   os.Getenv("DB_CONN_MAX_IDLE_TIME"),
		HTTPShutdownTimeoutStr: os.Getenv("HTTP_SHUTDOWN_TIMEOUT"),
		NameCacheTTLStr:        os.Getenv("NAME_CACHE_TTL"),
		MetricsEnabled:         os.Getenv("METRICS_ENABLED") == "true",
		MetricsPath:            os.Getenv("METRICS_PATH"),
		MonitorEnabled:         os.Getenv("MONITOR_ENABLED") == "true",
		MonitorSchedule:        os.Getenv("MONITOR_SCHEDULE"),
		MonitorWindowStr:       os.Getenv("MONITOR_WINDOW"),
		AlertWebhookURL:        os.Getenv("ALERT_WEBHOOK_URL"),
		AlertWebhookSecret:     os.Getenv("ALERT_WEBHOOK_SECRET"),
		AlertWebhookTimeoutStr: os.Getenv("ALERT_WEBHOOK_TIMEOUT"),
	}

	if limitStr := os.Getenv("EVENT_FETCH_LIMIT"); limitStr != "" {
		if n, err := parseInt(limitStr); err == nil && n > 0 {
			cfg.EventFetchLimit = n
		} else {
			log.Printf("config: invalid EVENT_FETCH_LIMIT %q (must be a positive integer), using default 10000", limitStr)
		}
	}
	if cfg.EventFetchLimit == 0 {
		cfg.EventFetchLimit = 10000
	}

	if maxOpenStr := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpenStr != "" {
		if n, err := parseInt(maxOpenStr); err == nil && n > 0 {
			cfg.DBMaxOpenConns = n
		}
	}
	if cfg.DBMaxOpenConns == 0 {
		cfg.DBMaxOpenConns = 25
	}

	if maxIdleStr := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdleStr != "" {
		if n, err := parseInt(maxIdleStr); err == nil && n > 0 {
			cfg.DBMaxIdleConns = n
		}
	}
	if cfg.DBMaxIdleConns == 0 {
		cfg.DBMaxIdleConns = 5
	}

	// Support Railway's PORT variable as fallback for HTTP_ADDR.
	if cfg.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		} else {
			cfg.HTTPAddr = ":8080"
		}
	}
	if cfg.DBOpTimeoutStr == "" {
		cfg.DBOpTimeoutStr = "5s"
	}
	if cfg.DBConnMaxLifetimeStr == "" {
		cfg.DBConnMaxLifetimeStr = "30m"
	}
	if cfg.DBConnMaxIdleTimeStr == "" {
		cfg.DBConnMaxIdleTimeStr = "5m"
	}
	if cfg.HTTPShutdownTimeoutStr == "" {
		cfg.HTTPShutdownTimeoutStr = "10s"
	}
	if cfg.NameCacheTTLStr == "" {
		cfg.NameCacheTTLStr = "10m"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	if cfg.MonitorSchedule == "" {
		cfg.MonitorSchedule = "*/15 * * * *"
	}
	if cfg.MonitorWindowStr == "" {
		cfg.MonitorWindowStr = "24h"
	}
	if cfg.AlertWebhookTimeoutStr == "" {
		cfg.AlertWebhookTimeoutStr = "30s"
	}

	// Parse durations; validation is handled separately by Validate().
	if d, err := time.ParseDuration(cfg.DBOpTimeoutStr); err == nil {
		cfg.DBOpTimeout = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxLifetimeStr); err == nil {
		cfg.DBConnMaxLifetime = d
	}
	if d, err := time.ParseDuration(cfg.DBConnMaxIdleTimeStr); err == nil {
		cfg.DBConnMaxIdleTime = d
	}
	if d, err := time.ParseDuration(cfg.HTTPShutdownTimeoutStr); err == nil {
		cfg.HTTPShutdownTimeout = d
	}
	if d, err := time.ParseDuration(cfg.NameCacheTTLStr); err == nil {
		cfg.NameCacheTTL = d
	}
	if d, err := time.ParseDuration(cfg.MonitorWindowStr); err == nil {
		cfg.MonitorWindow = d
	}
	if d, err := time.ParseDuration(cfg.AlertWebhookTimeoutStr); err == nil {
		cfg.AlertWebhookTimeout = d
	}

	return cfg
}

// parseInt parses a string as an integer.
func parseInt(s string) (int, error) {
	var n int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, os.ErrInvalid
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// MaskedJSON returns the configuration as JSON with secrets masked.
func (c Config) MaskedJSON() ([]byte, error) {
	masked := struct {
		DatabaseURL         string `json:"database_url"`
		RedisAddr           string `json:"redis_addr,omitempty"`
		HTTPAddr            string `json:"http_addr"`
		DBOpTimeout         string `json:"db_op_timeout"`
		DBMaxOpenConns      int    `json:"db_max_open_conns"`
		DBMaxIdleConns      int    `json:"db_max_idle_conns"`
		DBConnMaxLifetime   string `json:"db_conn_max_lifetime"`
		DBConnMaxIdleTime   string `json:"db_conn_max_idle_time"`
		HTTPShutdownTimeout string `json:"http_shutdown_timeout"`
		EventFetchLimit     int    `json:"event_fetch_limit"`
		NameCacheTTL        string `json:"name_cache_ttl"`
		MetricsEnabled      bool   `json:"metrics_enabled"`
		MetricsPath         string `json:"metrics_path"`
		MonitorEnabled      bool   `json:"monitor_enabled"`
		MonitorSchedule     string `json:"monitor_schedule"`
		MonitorWindow       string `json:"monitor_window"`
		AlertWebhookURL     string `json:"alert_webhook_url,omitempty"`
		AlertWebhookSecret  string `json:"alert_webhook_secret,omitempty"`
		AlertWebhookTimeout string `json:"alert_webhook_timeout"`
	}{
		DatabaseURL:         maskSecret(c.DatabaseURL),
		RedisAddr:           c.RedisAddr,
		HTTPAddr:            c.HTTPAddr,
		DBOpTimeout:         c.DBOpTimeoutStr,
		DBMaxOpenConns:      c.DBMaxOpenConns,
		DBMaxIdleConns:      c.DBMaxIdleConns,
		DBConnMaxLifetime:   c.DBConnMaxLifetimeStr,
		DBConnMaxIdleTime:   c.DBConnMaxIdleTimeStr,
		HTTPShutdownTimeout: c.HTTPShutdownTimeoutStr,
		EventFetchLimit:     c.EventFetchLimit,
		NameCacheTTL:        c.NameCacheTTLStr,
		MetricsEnabled:      c.MetricsEnabled,
		MetricsPath:         c.MetricsPath,
		MonitorEnabled:      c.MonitorEnabled,
		MonitorSchedule:     c.MonitorSchedule,
		MonitorWindow:       c.MonitorWindowStr,
		AlertWebhookURL:     c.AlertWebhookURL,
		AlertWebhookSecret:  maskSecret(c.AlertWebhookSecret),
		AlertWebhookTimeout: c.AlertWebhookTimeoutStr,
	}
	return json.MarshalIndent(masked, "", "  ")
}

// maskSecret masks a secret value, preserving only the URI scheme if present.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if len(s) >= len(scheme) && s[:len(scheme)] == scheme {
			return scheme + "***"
		}
	}
	return "***"
}
