package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Ai         AIConfig
	Generation GenerationConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret string
}

type AIConfig struct {
	LLMProvider   string // "ollama" or "gemini"
	LLMModel      string // e.g. "llama3", "gemini-1.5-flash"
	OllamaBaseURL string
	GeminiAPIKey  string
}

// GenerationConfig holds the tunables of the generation and orchestration
// loops. Everything here is env-driven; domain code never hard-codes them.
type GenerationConfig struct {
	AcceptanceThreshold    int
	MaxAttempts            int
	ToolCallTimeoutSeconds int
	DocExcerptCharLimit    int
	BridgeBufferSize       int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "websocket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GeminiAPIKey:  getEnv("GOOGLE_GEMINI_API_KEY", ""),
		},
		Generation: GenerationConfig{
			AcceptanceThreshold:    getEnvAsInt("GEN_ACCEPTANCE_THRESHOLD", 80),
			MaxAttempts:            getEnvAsInt("GEN_MAX_ATTEMPTS", 3),
			ToolCallTimeoutSeconds: getEnvAsInt("TOOL_CALL_TIMEOUT_SECONDS", 5),
			DocExcerptCharLimit:    getEnvAsInt("DOC_EXCERPT_CHAR_LIMIT", 4000),
			BridgeBufferSize:       getEnvAsInt("WS_BRIDGE_BUFFER_SIZE", 256),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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
