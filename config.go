package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	SessionSecret []byte
	SessionTTL    time.Duration
	DatabasePath  string
	Port          string
	RosterSources string
	SheetAPIKey   string
	SheetRange    string
	AccountsFile  string
	LogLevel      string
	Environment   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	config := &Config{}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if len(sessionSecret) < 32 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters long")
	}
	config.SessionSecret = []byte(sessionSecret)

	ttlSeconds, err := strconv.Atoi(getEnvWithDefault("SESSION_TTL_SECONDS", "1800"))
	if err != nil || ttlSeconds <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL_SECONDS: %s", getEnvWithDefault("SESSION_TTL_SECONDS", "1800"))
	}
	config.SessionTTL = time.Duration(ttlSeconds) * time.Second

	config.DatabasePath = getEnvWithDefault("DATABASE_PATH", "./portal.db")
	config.Port = getEnvWithDefault("PORT", "8080")
	config.RosterSources = getEnvWithDefault("ROSTER_SOURCES", "./data/roster.xlsx")
	config.SheetAPIKey = os.Getenv("SHEETS_API_KEY")
	config.SheetRange = getEnvWithDefault("SHEET_RANGE", "A:Z")
	config.AccountsFile = os.Getenv("ACCOUNTS_FILE")
	config.LogLevel = getEnvWithDefault("LOG_LEVEL", "INFO")
	config.Environment = getEnvWithDefault("ENVIRONMENT", "development")

	return config, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func GenerateCSRFToken() (string, error) {
	return GenerateSecureToken(32)
}
