package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	JWTSecret string
	CBRURL    string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ForecastCacheTTL time.Duration

	StartingBalance     float64
	SimulationBatchSize int
	LookbackMonths      int

	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SenderEmail     string
	AlertRecipients []string

	AlertCron     string
	ReconcileCron string
}

// NewConfig loads configuration from the environment, reading .env first if present
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment")
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=cashflow sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		CBRURL:        getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SenderEmail:   getEnv("SENDER_EMAIL", "noreply@cashflow.local"),
		AlertCron:     getEnv("ALERT_CRON", "0 8 * * *"),
		ReconcileCron: getEnv("RECONCILE_CRON", "0 2 1 * *"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SimulationBatchSize, err = getEnvInt("SIMULATION_BATCH_SIZE", 50); err != nil {
		return nil, err
	}
	if cfg.LookbackMonths, err = getEnvInt("LOOKBACK_MONTHS", 24); err != nil {
		return nil, err
	}
	if cfg.StartingBalance, err = getEnvFloat("STARTING_BALANCE", 500000); err != nil {
		return nil, err
	}
	if cfg.ForecastCacheTTL, err = getEnvDuration("FORECAST_CACHE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	cfg.AlertRecipients = splitList(getEnv("ALERT_RECIPIENTS", ""))

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SimulationBatchSize <= 0 {
		return nil, fmt.Errorf("SIMULATION_BATCH_SIZE must be positive")
	}
	if cfg.LookbackMonths <= 0 {
		return nil, fmt.Errorf("LOOKBACK_MONTHS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
