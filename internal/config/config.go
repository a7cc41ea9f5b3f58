package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	DatabaseDriver    string
	DatabaseMaxOpen   int
	DatabaseMaxIdle   int
	DatabaseLifetime  time.Duration
	CORSAllowOrigins  string
	AccessLog         bool
	RedisURL          string
	NATSURL           string
	EventChannelBase  string
	JWTSecret         string
	DefaultTimeZone   string
	PassingGrade      float64
	SweepConcurrency  int
	SweepSchedule     string
	SweepTimeout      time.Duration
	GenerateRateLimit int
	GenerateWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCHOLARWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ScholarWatch API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("http.cors_allow_origins", "*")
	v.SetDefault("http.access_log", false)
	v.SetDefault("events.channel_base", "scholarwatch")
	v.SetDefault("monitoring.default_timezone", "UTC")
	v.SetDefault("monitoring.passing_grade", 60)
	v.SetDefault("monitoring.sweep_concurrency", 4)
	v.SetDefault("monitoring.sweep_timeout", "5m")
	v.SetDefault("monitoring.generate_rate_limit", 5)
	v.SetDefault("monitoring.generate_window", "1m")

	sweepTimeout, err := time.ParseDuration(v.GetString("monitoring.sweep_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid sweep timeout: %w", err)
	}

	dbLifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	generateWindow, err := time.ParseDuration(v.GetString("monitoring.generate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid generate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		DatabaseDriver:    strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseMaxOpen:   v.GetInt("database.max_open_conns"),
		DatabaseMaxIdle:   v.GetInt("database.max_idle_conns"),
		DatabaseLifetime:  dbLifetime,
		CORSAllowOrigins:  v.GetString("http.cors_allow_origins"),
		AccessLog:         v.GetBool("http.access_log"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventChannelBase:  v.GetString("events.channel_base"),
		JWTSecret:         v.GetString("jwt.secret"),
		DefaultTimeZone:   v.GetString("monitoring.default_timezone"),
		PassingGrade:      v.GetFloat64("monitoring.passing_grade"),
		SweepConcurrency:  v.GetInt("monitoring.sweep_concurrency"),
		SweepSchedule:     strings.TrimSpace(v.GetString("monitoring.sweep_schedule")),
		SweepTimeout:      sweepTimeout,
		GenerateRateLimit: v.GetInt("monitoring.generate_rate_limit"),
		GenerateWindow:    generateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if _, err := time.LoadLocation(cfg.DefaultTimeZone); err != nil {
		return Config{}, fmt.Errorf("invalid default time zone: %w", err)
	}

	if cfg.PassingGrade <= 0 || cfg.PassingGrade > 100 {
		return Config{}, fmt.Errorf("passing grade must be within (0, 100], got %v", cfg.PassingGrade)
	}

	if cfg.SweepConcurrency <= 0 {
		cfg.SweepConcurrency = 4
	}

	return cfg, nil
}
