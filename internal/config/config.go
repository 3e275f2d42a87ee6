// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Conversation settings
	BackupPath    string
	DefaultTitle  string
	Greeting      string
	TitleMaxChars int
	SearchLimit   int

	// Agent settings
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	DefaultLLM        string
	AgentModel        string
	AgentSystemPrompt string
	AgentMaxTokens    int
	AgentStreaming    bool

	// NATS settings (events disabled when NATSURL is empty)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// JWT settings
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

const defaultSystemPrompt = "Eres un asesor inmobiliario experto. Responde en español, " +
	"de forma clara y práctica, a consultas sobre compra, venta, alquiler, " +
	"financiación e impuestos de inmuebles."

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Conversations
		BackupPath:    getEnv("BACKUP_PATH", "respaldo_conversaciones.json"),
		DefaultTitle:  getEnv("DEFAULT_TITLE", "Nueva Consulta"),
		Greeting:      getEnv("GREETING", "¡Hola! Soy tu asesor inmobiliario. ¿En qué puedo ayudarte?"),
		TitleMaxChars: getIntEnv("TITLE_MAX_CHARS", 30),
		SearchLimit:   getIntEnv("SEARCH_LIMIT", 10),

		// Agent
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:        getEnv("DEFAULT_LLM", "anthropic"),
		AgentModel:        getEnv("AGENT_MODEL", ""),
		AgentSystemPrompt: getEnv("AGENT_SYSTEM_PROMPT", defaultSystemPrompt),
		AgentMaxTokens:    getIntEnv("AGENT_MAX_TOKENS", 4096),
		AgentStreaming:    getBoolEnv("AGENT_STREAMING", true),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
