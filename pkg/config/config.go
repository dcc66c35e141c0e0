package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Model gateway
	OpenAIAPIURL   string
	OpenAIAPIKey   string
	ModelID        string
	GatewayTimeout time.Duration

	// Orchestrator
	MaxToolRounds   int
	MaxSessionTurns int
	ToolTimeout     time.Duration
	ToolParallelism int

	// Voice services
	STTServiceURL string
	TTSServiceURL string

	// Planning (Notion)
	NotionAPIKey       string
	NotionParentPageID string

	// Email
	SMTPHost        string
	SMTPPort        int
	IMAPHost        string
	IMAPPort        int
	MailAddress     string
	MailAppPassword string

	// Transcript archive (optional; disabled when URI is empty)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		OpenAIAPIURL:       getEnv("OPENAI_API_URL", "https://api.openai.com/v1"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		ModelID:            getEnv("MODEL_ID", "gpt-4o"),
		GatewayTimeout:     time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxToolRounds:      getEnvInt("MAX_TOOL_ROUNDS", 5),
		MaxSessionTurns:    getEnvInt("MAX_SESSION_TURNS", 50),
		ToolTimeout:        time.Duration(getEnvInt("TOOL_TIMEOUT_SECONDS", 10)) * time.Second,
		ToolParallelism:    getEnvInt("TOOL_PARALLELISM", 4),
		STTServiceURL:      getEnv("STT_SERVICE_URL", "http://localhost:8001"),
		TTSServiceURL:      getEnv("TTS_SERVICE_URL", "http://localhost:8002"),
		NotionAPIKey:       getEnv("NOTION_API_KEY", ""),
		NotionParentPageID: getEnv("NOTION_PARENT_PAGE_ID", ""),
		SMTPHost:           getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		IMAPHost:           getEnv("IMAP_HOST", "imap.gmail.com"),
		IMAPPort:           getEnvInt("IMAP_PORT", 993),
		MailAddress:        getEnv("MAIL_ADDRESS", ""),
		MailAppPassword:    getEnv("MAIL_APP_PASSWORD", ""),
		Neo4jURI:           getEnv("NEO4J_URI", ""),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.ModelID == "" {
		return fmt.Errorf("MODEL_ID is required")
	}
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("MAX_TOOL_ROUNDS must be at least 1")
	}
	if c.MaxSessionTurns < 3 {
		return fmt.Errorf("MAX_SESSION_TURNS must be at least 3")
	}
	// Notion, email and archive credentials are optional; the matching
	// tools degrade to failure results when unset
	return nil
}

// ArchiveEnabled reports whether the transcript archive collaborator is configured
func (c *Config) ArchiveEnabled() bool {
	return c.Neo4jURI != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
