package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort      string `yaml:"api_port"`
	LogLevel     string `yaml:"log_level"`
	APIAuthToken string `yaml:"api_auth_token"`

	OpenAIBaseURL    string  `yaml:"openai_base_url"`
	OpenAIAPIKey     string  `yaml:"openai_api_key"`
	OpenAIGenModel   string  `yaml:"openai_gen_model"`
	OpenAIEmbedModel string  `yaml:"openai_embed_model"`
	Temperature      float64 `yaml:"temperature"`

	ChunkSize     int `yaml:"chunk_size"`
	ChunkOverlap  int `yaml:"chunk_overlap"`
	RetrievalTopK int `yaml:"retrieval_top_k"`

	QdrantURL        string `yaml:"qdrant_url"`
	QdrantCollection string `yaml:"qdrant_collection"`

	RawDocsPath string `yaml:"raw_docs_path"`

	// Optional: when empty, no audit trail is written.
	PostgresDSN string `yaml:"postgres_dsn"`

	RateLimitRPS   int `yaml:"rate_limit_rps"`
	RateLimitBurst int `yaml:"rate_limit_burst"`
	MaxInFlight    int `yaml:"max_in_flight"`
}

// Load reads configuration from the environment, with a .env file filling
// in unset variables and an optional YAML file (CONFIG_FILE) supplying base
// values. Precedence: environment > .env > YAML > defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		APIPort:          "8080",
		LogLevel:         "info",
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIGenModel:   "gpt-4o",
		OpenAIEmbedModel: "text-embedding-3-small",
		Temperature:      0,
		ChunkSize:        1200,
		ChunkOverlap:     200,
		RetrievalTopK:    5,
		QdrantURL:        "http://localhost:6333",
		QdrantCollection: "policy_documents",
		RawDocsPath:      "./data/raw",
		RateLimitRPS:     10,
		RateLimitBurst:   20,
		MaxInFlight:      32,
	}
}

func applyEnv(cfg *Config) {
	setEnv(&cfg.APIPort, "API_PORT")
	setEnv(&cfg.LogLevel, "LOG_LEVEL")
	setEnv(&cfg.APIAuthToken, "API_AUTH_TOKEN")

	setEnv(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")
	setEnv(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setEnv(&cfg.OpenAIGenModel, "OPENAI_GEN_MODEL")
	setEnv(&cfg.OpenAIEmbedModel, "OPENAI_EMBED_MODEL")
	setEnvFloat(&cfg.Temperature, "TEMPERATURE")

	setEnvInt(&cfg.ChunkSize, "CHUNK_SIZE")
	setEnvInt(&cfg.ChunkOverlap, "CHUNK_OVERLAP")
	setEnvInt(&cfg.RetrievalTopK, "RETRIEVAL_TOP_K")

	setEnv(&cfg.QdrantURL, "QDRANT_URL")
	setEnv(&cfg.QdrantCollection, "QDRANT_COLLECTION")

	setEnv(&cfg.RawDocsPath, "RAW_DOCS_PATH")
	setEnv(&cfg.PostgresDSN, "POSTGRES_DSN")

	setEnvInt(&cfg.RateLimitRPS, "RATE_LIMIT_RPS")
	setEnvInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST")
	setEnvInt(&cfg.MaxInFlight, "MAX_IN_FLIGHT")
}

func setEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setEnvInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func setEnvFloat(target *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}
