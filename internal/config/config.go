package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds application configuration values.
type Config struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	// DatabaseDSN, when set, is used verbatim instead of the composed DSN.
	DatabaseDSN string

	HTTPPort string
	Secret   string
}

// Default returns the built-in connection settings.
func Default() Config {
	return Config{
		Driver:   DriverSQLite,
		Host:     "localhost",
		Port:     "3306",
		User:     "root",
		Password: "password",
		Name:     "sales_system",
		HTTPPort: "8080",
		Secret:   "dev_secret",
	}
}

// Load reads an optional .env file and overlays POS_* environment variables
// on top of Default.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("unable to read .env file")
	}

	cfg := Default()
	cfg.Driver = envOr("POS_DB_DRIVER", cfg.Driver)
	cfg.Host = envOr("POS_DB_HOST", cfg.Host)
	cfg.Port = envOr("POS_DB_PORT", cfg.Port)
	cfg.User = envOr("POS_DB_USER", cfg.User)
	cfg.Password = envOr("POS_DB_PASSWORD", cfg.Password)
	cfg.Name = envOr("POS_DB_NAME", cfg.Name)
	cfg.DatabaseDSN = os.Getenv("POS_DB_DSN")
	cfg.HTTPPort = envOr("POS_HTTP_PORT", cfg.HTTPPort)
	cfg.Secret = envOr("POS_SECRET", cfg.Secret)

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Warn().Str("value", cfg.HTTPPort).Msg("invalid POS_HTTP_PORT, defaulting to 8080")
		cfg.HTTPPort = "8080"
	}

	return cfg
}

// DSN returns the data source name handed to the driver.
func (c Config) DSN() string {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN
	}
	switch c.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     c.Host + ":" + c.Port,
			Path:     "/" + c.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	default:
		return fmt.Sprintf("file:%s.db?_pragma=foreign_keys(1)", c.Name)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
