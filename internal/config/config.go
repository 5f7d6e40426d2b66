// Package config loads process configuration from .env files and the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port             string        `env:"APP_PORT" envDefault:"8080"`
	PublicURL        string        `env:"PUBLIC_URL"`
	JWTSecret        string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL         time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	SessionSecret    string        `env:"SESSION_SECRET" envDefault:"dev_fallback_secret"`
	UploadDir        string        `env:"UPLOAD_DIR" envDefault:"uploads"`
	AllowedOrigins   []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	ResetPasswordURL string        `env:"RESET_PASSWORD_URL" envDefault:"http://localhost:5173/reset-password"`

	Database Database `envPrefix:"DB_"`
	SMTP     SMTP     `envPrefix:"SMTP_"`
	Logger   Logger   `envPrefix:"LOG_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"postgres"`
	DSN    string `env:"DSN,required,notEmpty"`
}

// SMTP is optional; an empty Host disables outgoing mail.
type SMTP struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type Logger struct {
	Mode       string `env:"MODE" envDefault:"development"`
	FileEnable bool   `env:"FILE_ENABLE" envDefault:"false"`
	Filename   string `env:"FILENAME" envDefault:"logs/customerapp.log"`
}

// Load reads .env from the working directory and its parents (running from
// cmd/server finds the repo root file), then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Overload(".env", "../.env", "../../.env")
	return Parse()
}

// Parse reads the configuration from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
