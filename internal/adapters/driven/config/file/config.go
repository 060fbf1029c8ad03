package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/lecta-labs/lecta-cli/internal/core/domain"
)

// Provider names accepted in the configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderPinecone  = "pinecone"
	ProviderPgvector  = "pgvector"
	ProviderMemory    = "memory"
)

// Config is the application configuration, loaded from
// ~/.lecta/config.toml. Zero values fall back to defaults; API keys
// come from the environment, never from this file.
type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Index     IndexConfig     `toml:"index"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Answer    AnswerConfig    `toml:"answer"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	Provider   string `toml:"provider" validate:"oneof=openai ollama"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url" validate:"omitempty,url"`
	Dimensions int    `toml:"dimensions" validate:"min=0"`
	BatchSize  int    `toml:"batch_size" validate:"min=1,max=2048"`
	InFlight   int    `toml:"in_flight" validate:"min=1,max=64"`
}

// LLMConfig selects and tunes the generation provider.
type LLMConfig struct {
	Provider    string  `toml:"provider" validate:"oneof=anthropic openai"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url" validate:"omitempty,url"`
	Temperature float64 `toml:"temperature" validate:"min=0,max=2"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend   string `toml:"backend" validate:"oneof=pinecone pgvector memory"`
	Namespace string `toml:"namespace" validate:"required"`

	// Host is the Pinecone index endpoint.
	Host string `toml:"host" validate:"omitempty,url"`

	// ConnString is the PostgreSQL connection string for pgvector.
	ConnString string `toml:"conn_string"`
}

// ChunkingConfig tunes the text chunker.
type ChunkingConfig struct {
	MaxChunkSize int `toml:"max_chunk_size" validate:"min=100,max=100000"`
	Overlap      int `toml:"overlap" validate:"min=0"`
	SnapWindow   int `toml:"snap_window" validate:"min=0"`
}

// RetrievalConfig tunes ranked retrieval.
type RetrievalConfig struct {
	TopK       int     `toml:"top_k" validate:"min=1,max=100"`
	Oversample int     `toml:"oversample" validate:"min=1,max=10"`
	MinScore   float64 `toml:"min_score" validate:"min=-1,max=1"`
	Diversify  *bool   `toml:"diversify"`
}

// AnswerConfig tunes answer composition.
type AnswerConfig struct {
	MaxAnswerTokens  int `toml:"max_answer_tokens" validate:"min=50,max=8192"`
	MaxContextTokens int `toml:"max_context_tokens" validate:"min=200,max=100000"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	diversify := true
	return Config{
		Embedding: EmbeddingConfig{
			Provider:  ProviderOpenAI,
			BatchSize: 32,
			InFlight:  4,
		},
		LLM: LLMConfig{
			Provider: ProviderAnthropic,
		},
		Index: IndexConfig{
			Backend:   ProviderMemory,
			Namespace: "default",
		},
		Chunking: ChunkingConfig{
			MaxChunkSize: 1000,
			Overlap:      100,
			SnapWindow:   50,
		},
		Retrieval: RetrievalConfig{
			TopK:       5,
			Oversample: 3,
			MinScore:   0.0,
			Diversify:  &diversify,
		},
		Answer: AnswerConfig{
			MaxAnswerTokens:  1000,
			MaxContextTokens: 6000,
		},
	}
}

// DefaultPath returns ~/.lecta/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".lecta", "config.toml"), nil
}

// Load reads the configuration file at path, layering it over the
// defaults and validating the result. A missing file yields the
// defaults; a malformed or invalid file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field invariants.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	// The chunker needs room to advance past the overlapping prefix.
	if cfg.Chunking.Overlap+cfg.Chunking.SnapWindow >= cfg.Chunking.MaxChunkSize {
		return fmt.Errorf("%w: overlap (%d) plus snap window (%d) must be smaller than max chunk size (%d)",
			domain.ErrInvalidInput, cfg.Chunking.Overlap, cfg.Chunking.SnapWindow, cfg.Chunking.MaxChunkSize)
	}

	switch cfg.Index.Backend {
	case ProviderPinecone:
		if cfg.Index.Host == "" {
			return fmt.Errorf("%w: index.host is required for the pinecone backend", domain.ErrInvalidInput)
		}
	case ProviderPgvector:
		if cfg.Index.ConnString == "" {
			return fmt.Errorf("%w: index.conn_string is required for the pgvector backend", domain.ErrInvalidInput)
		}
	}
	return nil
}

// Save writes the configuration to path, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
