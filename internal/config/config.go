package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/spottheball.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	TokenSecret         string        `env:"TOKEN_SECRET,required,notEmpty"`
	AdminTokenTTL       time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`
	CompetitionTokenTTL time.Duration `env:"COMPETITION_TOKEN_TTL" envDefault:"1h"`
	ParticipantTokenTTL time.Duration `env:"PARTICIPANT_TOKEN_TTL" envDefault:"24h"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"changeme"`

	MaxTicketsPerParticipant int `env:"MAX_TICKETS_PER_PARTICIPANT" envDefault:"10"`

	// Empty keeps winner results in process memory.
	RedisURL       string        `env:"REDIS_URL"`
	ResultCacheTTL time.Duration `env:"RESULT_CACHE_TTL" envDefault:"24h"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.MaxTicketsPerParticipant < 1 {
		return nil, fmt.Errorf("MAX_TICKETS_PER_PARTICIPANT must be at least 1, got %d", cfg.MaxTicketsPerParticipant)
	}
	return &cfg, nil
}
