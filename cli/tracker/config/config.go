package config

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

type Settings struct {
	Host          string `yaml:"host"`
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"log_level"`
	LogFilePath   string `yaml:"log_file_path"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`

	AlertRadiusM         float64 `yaml:"alert_radius_m"`
	DedupeWindowS        int     `yaml:"dedupe_window_s"`
	SessionQueueCapacity int     `yaml:"session_queue_capacity"`
	PingIntervalS        int     `yaml:"ping_interval_s"`
	HistoryTTLDays       int     `yaml:"history_ttl_days"`
	HistoryCapPerVehicle int     `yaml:"history_cap_per_vehicle"`
	ActiveFreshnessS     int     `yaml:"active_freshness_s"`
	RequestDeadlineS     int     `yaml:"request_deadline_s"`
	EtaAvgSpeedKmh       float64 `yaml:"eta_avg_speed_kmh"`
	AlertRetentionDays   int     `yaml:"alert_retention_days"`

	MigrationsPath string                       `yaml:"migrations_path"`
	Store          map[string]map[string]string `yaml:"storage"`
	MQTT           map[string]string            `yaml:"mqtt"`
	APIKeys        []APIKey                     `yaml:"api_keys"`
}

// APIKey maps a static ingress token onto a principal.
type APIKey struct {
	Key       string `yaml:"key"`
	Principal string `yaml:"principal"`
	CompanyID string `yaml:"company_id"`
	Admin     bool   `yaml:"admin"`
}

func (s *Settings) GetListenAddress() string {
	return s.Host + ":" + s.Port
}

func (s *Settings) GetDedupeWindow() time.Duration {
	return time.Duration(s.DedupeWindowS) * time.Second
}

func (s *Settings) GetPingInterval() time.Duration {
	return time.Duration(s.PingIntervalS) * time.Second
}

func (s *Settings) GetHistoryTTL() time.Duration {
	return time.Duration(s.HistoryTTLDays) * 24 * time.Hour
}

func (s *Settings) GetActiveFreshness() time.Duration {
	return time.Duration(s.ActiveFreshnessS) * time.Second
}

func (s *Settings) GetRequestDeadline() time.Duration {
	return time.Duration(s.RequestDeadlineS) * time.Second
}

func (s *Settings) GetAlertRetention() time.Duration {
	return time.Duration(s.AlertRetentionDays) * 24 * time.Hour
}

func (s *Settings) GetLogLevel() log.Level {
	var lvl log.Level

	switch s.LogLevel {
	case "DEBUG":
		lvl = log.DebugLevel
	case "INFO":
		lvl = log.InfoLevel
	case "WARN":
		lvl = log.WarnLevel
	case "ERROR":
		lvl = log.ErrorLevel
	default:
		lvl = log.InfoLevel
	}
	return lvl
}

func New(confPath string) (Settings, error) {
	c := Settings{}
	data, err := os.ReadFile(confPath)
	if err != nil {
		return c, err
	}
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return c, err
	}

	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == "" {
		c.Port = "8080"
	}

	if c.AlertRadiusM <= 0 {
		c.AlertRadiusM = 1000
	}
	if c.DedupeWindowS <= 0 {
		c.DedupeWindowS = 60
	}
	if c.SessionQueueCapacity <= 0 {
		c.SessionQueueCapacity = 256
	}
	if c.PingIntervalS <= 0 {
		c.PingIntervalS = 20
	}
	if c.HistoryTTLDays <= 0 {
		c.HistoryTTLDays = 7
	}
	if c.HistoryCapPerVehicle <= 0 {
		c.HistoryCapPerVehicle = 10000
	}
	if c.ActiveFreshnessS <= 0 {
		c.ActiveFreshnessS = 300
	}
	if c.RequestDeadlineS <= 0 {
		c.RequestDeadlineS = 5
	}
	if c.EtaAvgSpeedKmh <= 0 {
		c.EtaAvgSpeedKmh = 40
	}
	if c.AlertRetentionDays <= 0 {
		c.AlertRetentionDays = 90
	}

	return c, err
}
