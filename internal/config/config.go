package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	GoogleAPIKey string
	ExaAPIKey    string
	HTTPPort     string
	LogLevel     string

	// On-disk locations
	IndexPath        string
	RawDataPath      string
	CleanedDataPath  string
	ConversationsDir string

	// Model configuration
	EmbeddingModel string
	LLMModel       string
	LLMTemperature float32

	// Chunking configuration
	ChunkSize    int
	ChunkOverlap int

	// Retrieval configuration
	RetrievalK int

	// Search provider configuration
	ExaNumResults int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		GoogleAPIKey: getEnv("GOOGLE_API_KEY", ""),
		ExaAPIKey:    getEnv("EXA_API_KEY", ""),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),

		IndexPath:        getEnv("INDEX_PATH", "loan_index.db"),
		RawDataPath:      getEnv("RAW_DATA_PATH", "loan_data_raw.txt"),
		CleanedDataPath:  getEnv("CLEANED_DATA_PATH", "loan_data_cleaned.txt"),
		ConversationsDir: getEnv("CONVERSATIONS_DIR", "conversations"),

		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-004"),
		LLMModel:       getEnv("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature: 0.2,

		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),

		RetrievalK: getEnvAsInt("RETRIEVAL_K", 5),

		ExaNumResults: getEnvAsInt("EXA_NUM_RESULTS", 3),
	}

	if AppConfig.GoogleAPIKey == "" {
		log.Fatal("GOOGLE_API_KEY environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
