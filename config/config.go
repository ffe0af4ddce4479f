package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
	LogDir       string

	DatabaseURL string

	OpenAIAPIKey    string
	ChatModel       string
	ChatAPIURL      string
	EmbeddingModel  string
	EmbeddingAPIURL string
	ImageModel      string
	ImageAPIURL     string
	VisionModel     string
	VisionAPIURL    string

	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicAPIURL string

	EmbeddingDimension int
	VectorNamespace    string
	VectorCapacity     int64

	HistoryDir          string
	MaxToolSteps        int
	MaintenanceInterval time.Duration
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		Domains:      []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		HTTPPort:     getEnv("HTTP_PORT", "8086"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		LogDir:       getEnv("LOG_DIR", "logs"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		ChatModel:       getEnv("CHAT_MODEL", "gpt-4o-mini"),
		ChatAPIURL:      getEnv("CHAT_API_URL", "https://api.openai.com/v1/chat/completions"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingAPIURL: getEnv("EMBEDDING_API_URL", "https://api.openai.com/v1/embeddings"),
		ImageModel:      getEnv("IMAGE_MODEL", "dall-e-3"),
		ImageAPIURL:     getEnv("IMAGE_API_URL", "https://api.openai.com/v1/images/generations"),
		VisionModel:     getEnv("VISION_MODEL", "gpt-4o"),
		VisionAPIURL:    getEnv("VISION_API_URL", "https://api.openai.com/v1/chat/completions"),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		AnthropicAPIURL: getEnv("ANTHROPIC_API_URL", "https://api.anthropic.com/v1/messages"),

		EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 1536),
		VectorNamespace:    getEnv("VECTOR_NAMESPACE", "ailab"),
		VectorCapacity:     int64(getEnvAsInt("VECTOR_CAPACITY", 100000)),

		HistoryDir:          getEnv("HISTORY_DIR", "data/history"),
		MaxToolSteps:        getEnvAsInt("MAX_TOOL_STEPS", 5),
		MaintenanceInterval: time.Duration(getEnvAsInt("MAINTENANCE_INTERVAL", 3600)) * time.Second,
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
