package config

import "os"

// Config holds server configuration.
type Config struct {
	Port         string
	LogLevel     string
	DatabasePath string
	TokenSecret  string
	PolicyPath   string
	NetworkID    string
}

// Load loads configuration from environment variables.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "veristake.db"
	}

	secret := os.Getenv("TOKEN_SECRET")
	if secret == "" {
		// Dev-only default. Production deployments must set TOKEN_SECRET.
		secret = "veristake-dev-secret"
	}

	policyPath := os.Getenv("POLICY_PATH")

	networkID := os.Getenv("NETWORK_ID")
	if networkID == "" {
		networkID = "testnet"
	}

	return &Config{
		Port:         port,
		LogLevel:     logLevel,
		DatabasePath: dbPath,
		TokenSecret:  secret,
		PolicyPath:   policyPath,
		NetworkID:    networkID,
	}
}
