// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"ledger-bank/internal/publisher"
	"ledger-bank/pkg/db" // Import db package for its Config struct
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	Env        string `env:"APP_ENV" env-default:"local"`
	LogLevel   string `env:"LOG_LEVEL" env-default:""`
	ServerPort string `env:"SERVER_PORT" env-default:"8080"`

	DB     db.Config
	Redis  publisher.Config
	Ledger LedgerConfig

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	BcryptCost         int      `env:"BCRYPT_COST" env-default:"10"`
}

// LedgerConfig tunes the transaction processor.
type LedgerConfig struct {
	// LockTimeout bounds the wait for an account row lock. Zero waits indefinitely.
	LockTimeout time.Duration `env:"LEDGER_LOCK_TIMEOUT" env-default:"5s"`
}

// LoadConfig loads configuration from environment variables, after merging an optional
// .env file from the working directory. Variables already set in the environment win.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg AppConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.Ledger.LockTimeout < 0 {
		return nil, fmt.Errorf("invalid LEDGER_LOCK_TIMEOUT: %s", cfg.Ledger.LockTimeout)
	}
	return &cfg, nil
}
