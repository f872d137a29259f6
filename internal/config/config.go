package config

import "github.com/caarlos0/env/v10"

// Config centralizes configuration for the client stack and the emulator.
type Config struct {
	BackendURL      string `env:"BACKEND_URL" envDefault:"http://localhost:8080/db"`
	IdentityURL     string `env:"IDENTITY_URL" envDefault:"http://localhost:8080/identity"`
	APIKey          string `env:"API_KEY"`
	CredentialsFile string `env:"CREDENTIALS_FILE" envDefault:".evolve-session.json"`

	HTTPPort            string `env:"HTTP_PORT" envDefault:"8080"`
	JWTSecret           string `env:"JWT_SECRET" envDefault:"evolve-dev-secret"`
	JWTAccessTTLMinutes int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`
	JWTRefreshTTLDays   int    `env:"JWT_REFRESH_TTL_DAYS" envDefault:"30"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL   string `env:"DATABASE_URL"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
