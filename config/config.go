// Package config resolves runtime settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	Addr        string
	DatabaseURL string
	SQLitePath  string
	RedisURL    string

	SessionTTL   time.Duration
	CookieSecure bool

	RateLimit float64
	RateBurst int

	SendGridAPIKey string
	MailFrom       string

	StaticDir   string
	AutoMigrate bool

	BackupDir  string
	BackupKeep int
}

// Production reports whether APP_ENV is "production".
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("app_env", "development")
	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "taskflow.db")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("rate_limit", 20.0)
	v.SetDefault("rate_burst", 40)
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("mail_from", "donotreply@taskflow.local")
	v.SetDefault("static_dir", "./public")
	v.SetDefault("auto_migrate", true)
	v.SetDefault("backup_dir", "backups")
	v.SetDefault("backup_keep", 10)
	return v
}

// Load reads .env outside production, then resolves every setting.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, continuing..")
		}
	}
	return fromViper(newViper())
}

func fromViper(v *viper.Viper) (*Config, error) {
	ttl, err := time.ParseDuration(v.GetString("session_ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
	}

	cfg := &Config{
		AppEnv:         v.GetString("app_env"),
		Addr:           v.GetString("addr"),
		DatabaseURL:    v.GetString("database_url"),
		SQLitePath:     v.GetString("sqlite_path"),
		RedisURL:       v.GetString("redis_url"),
		SessionTTL:     ttl,
		CookieSecure:   v.GetBool("cookie_secure"),
		RateLimit:      v.GetFloat64("rate_limit"),
		RateBurst:      v.GetInt("rate_burst"),
		SendGridAPIKey: v.GetString("sendgrid_api_key"),
		MailFrom:       v.GetString("mail_from"),
		StaticDir:      v.GetString("static_dir"),
		AutoMigrate:    v.GetBool("auto_migrate"),
		BackupDir:      v.GetString("backup_dir"),
		BackupKeep:     v.GetInt("backup_keep"),
	}

	if cfg.RateLimit <= 0 || cfg.RateBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT and RATE_BURST must be positive")
	}
	if cfg.BackupKeep < 1 {
		return nil, fmt.Errorf("BACKUP_KEEP must be at least 1")
	}
	return cfg, nil
}
