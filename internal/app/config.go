package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/curiofm/curio-backend/internal/platform/envutil"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/services"
)

type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns URL when set, otherwise a postgres url built from the parts.
func (d DatabaseConfig) DSN() string {
	if strings.TrimSpace(d.URL) != "" {
		return strings.TrimSpace(d.URL)
	}
	if d.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

type SonglinkConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Country    string        `yaml:"user_country"`
	Timeout    time.Duration `yaml:"timeout"`
	RatePerSec float64       `yaml:"rate_per_sec"`
	Burst      int           `yaml:"burst"`
}

type NotifyConfig struct {
	URL     string        `yaml:"url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type EngagementConfig struct {
	AllowSelfTip           bool    `yaml:"allow_self_tip"`
	ShareXP                int64   `yaml:"share_xp"`
	TasteOverlapXP         int64   `yaml:"taste_overlap_xp"`
	OverlapScanLimit       int     `yaml:"overlap_scan_limit"`
	SuccessTipThresholdUSD float64 `yaml:"success_tip_threshold_usd"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	Port           string           `yaml:"port"`
	LogMode        string           `yaml:"log_mode"`
	Environment    string           `yaml:"environment"`
	ServiceName    string           `yaml:"service_name"`
	CORSOrigins    []string         `yaml:"cors_origins"`
	MetricsEnabled bool             `yaml:"metrics_enabled"`
	Database       DatabaseConfig   `yaml:"database"`
	Songlink       SonglinkConfig   `yaml:"songlink"`
	FarcasterHub   string           `yaml:"farcaster_hub_url"`
	Notify         NotifyConfig     `yaml:"notify"`
	Redis          RedisConfig      `yaml:"redis"`
	Engagement     EngagementConfig `yaml:"engagement"`
	Otel           OtelConfig       `yaml:"otel"`
}

func defaultConfig() Config {
	eng := services.DefaultEngagementConfig()
	return Config{
		Port:           "8080",
		LogMode:        "development",
		Environment:    "development",
		ServiceName:    "curio-api",
		MetricsEnabled: true,
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    20,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Songlink: SonglinkConfig{
			BaseURL:    "https://api.song.link/v1-alpha.1/links",
			Country:    "US",
			Timeout:    5 * time.Second,
			RatePerSec: 8,
			Burst:      4,
		},
		FarcasterHub: "https://hub.pinata.cloud",
		Notify:       NotifyConfig{Timeout: 3 * time.Second},
		Redis:        RedisConfig{Channel: "curio-events"},
		Engagement: EngagementConfig{
			AllowSelfTip:           eng.AllowSelfTip,
			ShareXP:                eng.ShareXP,
			TasteOverlapXP:         eng.TasteOverlapXP,
			OverlapScanLimit:       eng.OverlapScanLimit,
			SuccessTipThresholdUSD: eng.SuccessTipThresholdUSD,
		},
		Otel: OtelConfig{SampleRatio: 1},
	}
}

// LoadDotEnv loads .env when present. Variables already set win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadConfig layers defaults, the YAML file named by CURIO_CONFIG and then the
// environment.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CURIO_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("loaded config file", "path", path)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment)
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName)
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	db := &cfg.Database
	db.URL = envutil.String("DATABASE_URL", db.URL)
	db.Host = envutil.String("POSTGRES_HOST", db.Host)
	db.Port = envutil.Int("POSTGRES_PORT", db.Port)
	db.User = envutil.String("POSTGRES_USER", db.User)
	db.Password = envutil.String("POSTGRES_PASSWORD", db.Password)
	db.Name = envutil.String("POSTGRES_NAME", db.Name)
	db.SSLMode = envutil.String("POSTGRES_SSLMODE", db.SSLMode)
	db.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", db.MaxOpenConns)
	db.MaxIdleConns = envutil.Int("DB_MAX_IDLE_CONNS", db.MaxIdleConns)

	sl := &cfg.Songlink
	sl.BaseURL = envutil.String("SONGLINK_BASE_URL", sl.BaseURL)
	sl.APIKey = envutil.String("SONGLINK_API_KEY", sl.APIKey)
	sl.Country = envutil.String("SONGLINK_USER_COUNTRY", sl.Country)
	sl.Timeout = envutil.Duration("SONGLINK_TIMEOUT", sl.Timeout)
	sl.RatePerSec = envutil.Float("SONGLINK_RATE_PER_SEC", sl.RatePerSec)
	sl.Burst = envutil.Int("SONGLINK_BURST", sl.Burst)

	cfg.FarcasterHub = envutil.String("FARCASTER_HUB_URL", cfg.FarcasterHub)

	cfg.Notify.URL = envutil.String("NOTIFY_URL", cfg.Notify.URL)
	cfg.Notify.Token = envutil.String("NOTIFY_TOKEN", cfg.Notify.Token)
	cfg.Notify.Timeout = envutil.Duration("NOTIFY_TIMEOUT", cfg.Notify.Timeout)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	eng := &cfg.Engagement
	eng.AllowSelfTip = envutil.Bool("ALLOW_SELF_TIP", eng.AllowSelfTip)
	eng.ShareXP = int64(envutil.Int("SHARE_XP", int(eng.ShareXP)))
	eng.TasteOverlapXP = int64(envutil.Int("TASTE_OVERLAP_XP", int(eng.TasteOverlapXP)))
	eng.OverlapScanLimit = envutil.Int("OVERLAP_SCAN_LIMIT", eng.OverlapScanLimit)
	eng.SuccessTipThresholdUSD = envutil.Float("SUCCESS_TIP_THRESHOLD_USD", eng.SuccessTipThresholdUSD)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", cfg.Otel.SampleRatio)
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	e := c.Engagement
	if e.ShareXP < 0 || e.TasteOverlapXP < 0 {
		return fmt.Errorf("xp rewards must not be negative")
	}
	if e.OverlapScanLimit <= 0 {
		return fmt.Errorf("OVERLAP_SCAN_LIMIT must be positive")
	}
	if e.SuccessTipThresholdUSD < 0 {
		return fmt.Errorf("SUCCESS_TIP_THRESHOLD_USD must not be negative")
	}
	return nil
}

func (c Config) EngagementRules() services.EngagementConfig {
	return services.EngagementConfig{
		ShareXP:                c.Engagement.ShareXP,
		TasteOverlapXP:         c.Engagement.TasteOverlapXP,
		OverlapScanLimit:       c.Engagement.OverlapScanLimit,
		SuccessTipThresholdUSD: c.Engagement.SuccessTipThresholdUSD,
		AllowSelfTip:           c.Engagement.AllowSelfTip,
	}
}
