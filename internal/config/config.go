package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	DataDir    string `env:"DATA_DIR" envDefault:"data"`
	UsersDir   string `env:"USERS_DIR"`
	HistoryDir string `env:"HISTORY_DIR"`
	PromptsDir string `env:"PROMPTS_DIR" envDefault:"prompts"`

	// ReferenceSource is the training book indexed for retrieval: a local
	// .txt/.md/.html path or an http(s) URL.
	ReferenceSource string `env:"REFERENCE_SOURCE"`
	RAGIndexPath    string `env:"RAG_INDEX_PATH"`
	RAGTopK         int    `env:"RAG_TOP_K" envDefault:"6"`
	RAGChunkChars   int    `env:"RAG_CHUNK_CHARS" envDefault:"1200"`

	// RAGMaxSourceBytes caps how much of the reference source is read.
	RAGMaxSourceBytes int64 `env:"RAG_MAX_SOURCE_BYTES" envDefault:"33554432"`

	LLMProvider      string        `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMModelExtract  string        `env:"LLM_MODEL_EXTRACT"`
	LLMModelAssemble string        `env:"LLM_MODEL_ASSEMBLE"`
	LLMEmbedModel    string        `env:"LLM_EMBED_MODEL"`
	LLMRetries       int           `env:"LLM_RETRIES" envDefault:"3"`
	LLMRetryDelay    time.Duration `env:"LLM_RETRY_DELAY" envDefault:"1s"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"90s"`
	LLMMaxFetchBytes int           `env:"LLM_MAX_FETCH_BYTES" envDefault:"65536"`

	OpenaiKey     string `env:"OPENAI_API_KEY"`
	OpenaiBaseURL string `env:"OPENAI_BASE_URL"`
	GeminiKey     string `env:"GEMINI_API_KEY"`

	HistoryQueryLimit        int `env:"HISTORY_QUERY_LIMIT" envDefault:"7"`
	DefaultMaxSessionMinutes int `env:"DEFAULT_MAX_SESSION_MINUTES" envDefault:"60"`

	Debug bool   `env:"DEBUG" envDefault:"false"`
	Addr  string `env:"ADDR" envDefault:":8080"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDerived() {
	if c.UsersDir == "" {
		c.UsersDir = filepath.Join(c.DataDir, "users")
	}
	if c.HistoryDir == "" {
		c.HistoryDir = filepath.Join(c.DataDir, "history")
	}
	if c.RAGIndexPath == "" {
		c.RAGIndexPath = filepath.Join(c.DataDir, "rag.db")
	}
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.LLMProvider)
	}
	if c.LLMRetries < 1 {
		return fmt.Errorf("LLM_RETRIES must be >= 1, got %d", c.LLMRetries)
	}
	if c.RAGTopK < 1 {
		return fmt.Errorf("RAG_TOP_K must be >= 1, got %d", c.RAGTopK)
	}
	if c.HistoryQueryLimit < 1 {
		return fmt.Errorf("HISTORY_QUERY_LIMIT must be >= 1, got %d", c.HistoryQueryLimit)
	}
	if c.DefaultMaxSessionMinutes < 1 {
		return fmt.Errorf("DEFAULT_MAX_SESSION_MINUTES must be >= 1, got %d", c.DefaultMaxSessionMinutes)
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiKey
	}
	return c.OpenaiKey
}
