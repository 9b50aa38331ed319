package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8086" validate:"min=1000,max=65535"`

	// Piston-compatible execution engine. The default points at the
	// public instance.
	ExecApiUrl     string        `env:"EXEC_API_URL"     envDefault:"https://emkc.org/api/v2/piston/execute" validate:"url"`
	ExecApiTimeout time.Duration `env:"EXEC_API_TIMEOUT" envDefault:"10s"`

	// Optional result cache for the execution engine. Empty host disables it.
	RedisCacheHost string        `env:"REDIS_CACHE_HOST" envDefault:""`
	RedisCachePort uint16        `env:"REDIS_CACHE_PORT" envDefault:"6379" validate:"omitempty,min=1000,max=65535"`
	RedisCacheTTL  time.Duration `env:"REDIS_CACHE_TTL"  envDefault:"5m"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
