package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Mock   MockConfig
	Tracer TracerConfig
}

type AppConfig struct {
	APIURL      string
	Environment string
	LogFilePath string
	Debug       bool
}

type HTTPConfig struct {
	Timeout      time.Duration // 0 keeps the transport default
	GetRetries   int
	DeleteMethod string // "POST" or "DELETE"
	LogoutPath   string // empty disables the logout notice
}

// MockConfig drives cmd/mockserver.
type MockConfig struct {
	Port      string
	JWTSecret string
	TokenTTL  time.Duration
}

type TracerConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			APIURL:      getEnv("API_URL", "http://0.0.0.0:5000"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "logs/ragchat.log"),
			Debug:       getEnvAsBool("DEBUG", false),
		},
		HTTP: HTTPConfig{
			Timeout:      getEnvAsDuration("HTTP_TIMEOUT", 0),
			GetRetries:   getEnvAsInt("HTTP_GET_RETRIES", 0),
			DeleteMethod: strings.ToUpper(getEnv("DELETE_METHOD", "POST")),
			LogoutPath:   getEnv("LOGOUT_PATH", ""),
		},
		Mock: MockConfig{
			Port:      getEnv("MOCK_PORT", "5000"),
			JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
			TokenTTL:  getEnvAsDuration("JWT_TTL", 24*time.Hour),
		},
		Tracer: TracerConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
