// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"tradehub-ledger/pkg/db" // Import db package for its Config struct

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort      string
	DB              db.Config
	RedisAddr       string // empty disables the processed-reference cache
	WebhookSecret   string
	GatewayURL      string
	GatewayAPIKey   string
	Currency        string
	CallbackBaseURL string
	MinWithdrawal   decimal.Decimal
}

// LoadConfig loads configuration from the environment, with an optional .env
// file for local development. It returns an AppConfig instance or an error
// if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	serverPort := getEnv("SERVER_PORT", "8080")

	dbHost := getEnv("DB_HOST", "localhost")
	dbPortStr := getEnv("DB_PORT", "5432")
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbUser := getEnv("DB_USER", "user")
	dbPassword := getEnv("DB_PASSWORD", "password")
	dbName := getEnv("DB_NAME", "ledgerdb")
	dbSSLMode := getEnv("DB_SSLMODE", "disable")

	webhookSecret := os.Getenv("WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, fmt.Errorf("WEBHOOK_SECRET is required")
	}

	minWithdrawalStr := getEnv("MIN_WITHDRAWAL", "1000")
	minWithdrawal, err := decimal.NewFromString(minWithdrawalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_WITHDRAWAL: %w", err)
	}

	return &AppConfig{
		ServerPort: serverPort,
		DB: db.Config{
			Host:     dbHost,
			Port:     dbPort,
			User:     dbUser,
			Password: dbPassword,
			DBName:   dbName,
			SSLMode:  dbSSLMode,
		},
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		WebhookSecret:   webhookSecret,
		GatewayURL:      getEnv("GATEWAY_URL", "https://api.paygateway.local"),
		GatewayAPIKey:   os.Getenv("GATEWAY_API_KEY"),
		Currency:        getEnv("CURRENCY", "NGN"),
		CallbackBaseURL: getEnv("CALLBACK_BASE_URL", "http://localhost:8080"),
		MinWithdrawal:   minWithdrawal,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
