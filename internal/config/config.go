// Package config loads process configuration from the environment via viper.
// The resulting Config is built once in main and passed by reference into
// every component; nothing reads the environment after startup.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// DefaultJWTSecret is only acceptable for local development. main logs a
// warning when the server starts in release mode with this value.
const DefaultJWTSecret = "dev-secret-change-me"

type Config struct {
	ServerPort string
	GinMode    string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	JWTSecret string
	JWTTTL    time.Duration

	BcryptCost int
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "tudu")
	v.SetDefault("DB_PASSWORD", "tudu")
	v.SetDefault("DB_NAME", "tudu")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_PATH", "tudu.db")

	v.SetDefault("JWT_SECRET", DefaultJWTSecret)
	v.SetDefault("JWT_TTL", "60m")

	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)

	cfg := &Config{
		ServerPort: v.GetString("SERVER_PORT"),
		GinMode:    v.GetString("GIN_MODE"),
		DBDriver:   v.GetString("DB_DRIVER"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		DBPath:     v.GetString("DB_PATH"),
		JWTSecret:  v.GetString("JWT_SECRET"),
		JWTTTL:     v.GetDuration("JWT_TTL"),
		BcryptCost: v.GetInt("BCRYPT_COST"),
	}

	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be a positive duration")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return cfg, nil
}

// UsingDefaultSecret reports whether the signing secret was left at the
// development default.
func (c *Config) UsingDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}
