// Package config loads server configuration from the environment.
package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"8080"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"15"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"`
	} `envPrefix:"SERVER_"`
	Database struct {
		Path string `env:"PATH" envDefault:"shifts.db"`
	} `envPrefix:"DATABASE_"`
	Auth struct {
		// JWTSecret enables the JWT identity provider. When empty, the server
		// falls back to trusted headers (development only).
		JWTSecret string `env:"JWT_SECRET"`
	} `envPrefix:"AUTH_"`
	CORS struct {
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173,http://localhost:8080"`
	} `envPrefix:"CORS_"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) {
			// Only return the first error to keep startup logs readable.
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}
	return cfg, nil
}
