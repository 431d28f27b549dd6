package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Cardpay    CardpayConfig
	Aamarpay   AamarpayConfig
	Frontend   FrontendConfig
	Sweeper    SweeperConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT"`
	Env          string        `env:"APP_ENV"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	DSN             string        `env:"DATABASE_DSN"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY"`
	RefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY"`
	Issuer        string        `env:"JWT_ISSUER"`
}

type OAuthConfig struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

type CloudinaryConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
}

// CardpayConfig holds credentials for the hosted-checkout card gateway.
type CardpayConfig struct {
	BaseURL       string        `env:"CARDPAY_BASE_URL"`
	SecretKey     string        `env:"CARDPAY_SECRET_KEY"`
	WebhookSecret string        `env:"CARDPAY_WEBHOOK_SECRET"`
	Currency      string        `env:"CARDPAY_CURRENCY"`
	Timeout       time.Duration `env:"CARDPAY_TIMEOUT"`
}

// AamarpayConfig holds credentials for the redirect-style gateway.
// CallbackBaseURL is this server's public base; the gateway posts back to
// CallbackBaseURL + /api/v1/payments/aamarpay/{success,fail,cancel}.
type AamarpayConfig struct {
	BaseURL         string        `env:"AAMARPAY_BASE_URL"`
	VerifyURL       string        `env:"AAMARPAY_VERIFY_URL"` // server-to-server verification; empty disables the check
	StoreID         string        `env:"AAMARPAY_STORE_ID"`
	SignatureKey    string        `env:"AAMARPAY_SIGNATURE_KEY"`
	Currency        string        `env:"AAMARPAY_CURRENCY"`
	CallbackBaseURL string        `env:"AAMARPAY_CALLBACK_BASE_URL"`
	Timeout         time.Duration `env:"AAMARPAY_TIMEOUT"`
}

type FrontendConfig struct {
	BaseURL string `env:"FRONTEND_URL"`
}

// SweeperConfig controls the campaign expiry sweep. Interval bounds how stale
// an expired-but-still-active campaign can be.
type SweeperConfig struct {
	Interval time.Duration `env:"SWEEP_INTERVAL"`
}

// Load returns the default configuration with environment overrides applied.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         "8090",
			Env:          "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             "fundify:fundify@tcp(localhost:3306)/fundify?charset=utf8mb4&parseTime=True&loc=Local",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  "change-me-in-production",
			RefreshSecret: "change-me-refresh",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "fundify",
		},
		Cardpay: CardpayConfig{
			BaseURL:  "https://api.cardpay.example.com",
			Currency: "USD",
			Timeout:  30 * time.Second,
		},
		Aamarpay: AamarpayConfig{
			BaseURL:         "https://sandbox.aamarpay.com/jsonpost.php",
			Currency:        "BDT",
			CallbackBaseURL: "http://localhost:8090",
			Timeout:         30 * time.Second,
		},
		Frontend: FrontendConfig{
			BaseURL: "http://localhost:3000",
		},
		Sweeper: SweeperConfig{
			Interval: time.Minute,
		},
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
