// Package config holds the typed service configuration parsed from the
// environment.
package config

import (
	"fmt"
	"net"

	envparse "github.com/caarlos0/env/v10"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	App      App      `envPrefix:"APP_"`
	Database Database `envPrefix:"DB_"`
	Cache    Cache    `envPrefix:"CACHE_"`
	SePay    SePay    `envPrefix:"SEPAY_"`
	Archive  Archive  `envPrefix:"S3_ARCHIVE_"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`
}

type App struct {
	Env  string `env:"ENV" envDefault:"prod"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"4000"`
}

type Database struct {
	Driver      string `env:"DRIVER" envDefault:"mysql"`
	Host        string `env:"HOST" envDefault:"127.0.0.1"`
	Port        string `env:"PORT" envDefault:"3306"`
	User        string `env:"USER"`
	Password    string `env:"PASSWORD"`
	Name        string `env:"NAME"`
	Path        string `env:"PATH" envDefault:"nuoi.db"` // sqlite file
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

type Cache struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
}

type SePay struct {
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	CodePrefix    string `env:"CODE_PREFIX" envDefault:"BTT"`
}

type Archive struct {
	Enabled         bool   `env:"ENABLED" envDefault:"false"`
	Bucket          string `env:"BUCKET"`
	Region          string `env:"REGION" envDefault:"ap-southeast-1"`
	Endpoint        string `env:"ENDPOINT"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	PathStyle       bool   `env:"PATH_STYLE" envDefault:"false"`
}

// Load parses the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envparse.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Database.Driver != DriverMySQL && cfg.Database.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Archive.Enabled && cfg.Archive.Bucket == "" {
		return nil, fmt.Errorf("S3_ARCHIVE_BUCKET is required when the archive is enabled")
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.App.Env == "dev"
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.App.Host, c.App.Port)
}

// Enabled reports whether a Redis-compatible cache is configured.
func (c Cache) Enabled() bool {
	return c.Host != ""
}

func (c Cache) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// MySQLDSN builds the go-sql-driver DSN. Times are stored and read as UTC.
func (d Database) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, net.JoinHostPort(d.Host, d.Port), d.Name)
}
