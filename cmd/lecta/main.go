// Command lecta is a personal research library with grounded Q&A.
// It wires the configured adapters into the core services and hands
// control to the CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	configfile "github.com/lecta-labs/lecta-cli/internal/adapters/driven/config/file"
	"github.com/lecta-labs/lecta-cli/internal/adapters/driven/content/web"
	ollamaembed "github.com/lecta-labs/lecta-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/lecta-labs/lecta-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/lecta-labs/lecta-cli/internal/adapters/driven/llm/anthropic"
	openaillm "github.com/lecta-labs/lecta-cli/internal/adapters/driven/llm/openai"
	"github.com/lecta-labs/lecta-cli/internal/adapters/driven/registry/sqlite"
	memoryindex "github.com/lecta-labs/lecta-cli/internal/adapters/driven/vectorindex/memory"
	"github.com/lecta-labs/lecta-cli/internal/adapters/driven/vectorindex/pgvector"
	"github.com/lecta-labs/lecta-cli/internal/adapters/driven/vectorindex/pinecone"
	"github.com/lecta-labs/lecta-cli/internal/adapters/driving/cli"
	"github.com/lecta-labs/lecta-cli/internal/chunker"
	"github.com/lecta-labs/lecta-cli/internal/core/ports/driven"
	"github.com/lecta-labs/lecta-cli/internal/core/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	path, err := configfile.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := configfile.Load(path)
	if err != nil {
		return err
	}

	registry, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer registry.Close()

	embedding, err := buildEmbedding(cfg)
	if err != nil {
		return err
	}

	index, err := buildIndex(cfg)
	if err != nil {
		return err
	}

	chunks, err := chunker.New(
		chunker.WithMaxChunkSize(cfg.Chunking.MaxChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
		chunker.WithSnapWindow(cfg.Chunking.SnapWindow),
	)
	if err != nil {
		return err
	}

	composer := services.NewComposer(buildLLM(cfg), services.ComposerConfig{
		MaxAnswerTokens:  cfg.Answer.MaxAnswerTokens,
		MaxContextTokens: cfg.Answer.MaxContextTokens,
		Temperature:      cfg.LLM.Temperature,
	})

	if prompts, err := configfile.NewPromptStore(""); err == nil {
		composer.SetPromptStore(prompts)
	} else {
		fmt.Fprintf(os.Stderr, "Warning: prompt store unavailable, using built-in prompts: %v\n", err)
	}

	library := services.NewLibrary(
		web.NewFetcher(web.Config{}),
		chunks,
		embedding,
		index,
		registry,
		composer,
		services.LibraryConfig{
			Namespace:      cfg.Index.Namespace,
			EmbedBatchSize: cfg.Embedding.BatchSize,
			MaxInFlight:    cfg.Embedding.InFlight,
		},
	)

	retrieverCfg := services.DefaultRetrieverConfig()
	retrieverCfg.TopK = cfg.Retrieval.TopK
	retrieverCfg.Oversample = cfg.Retrieval.Oversample
	retrieverCfg.MinScore = cfg.Retrieval.MinScore
	if cfg.Retrieval.Diversify != nil {
		retrieverCfg.Diversify = *cfg.Retrieval.Diversify
	}
	retriever, err := services.NewRetriever(embedding, index, registry, retrieverCfg)
	if err != nil {
		return err
	}

	assistant := services.NewAssistant(retriever, composer, library, registry)

	cli.SetServices(cli.Services{
		Library: library,
		Ask:     assistant,
	})
	return cli.Execute()
}

func buildEmbedding(cfg configfile.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case configfile.ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	case configfile.ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// buildLLM returns nil when the provider cannot be constructed; the
// composer then degrades to retrieval-only behaviour instead of
// blocking ingestion and search.
func buildLLM(cfg configfile.Config) driven.LLMService {
	var (
		llm driven.LLMService
		err error
	)
	switch cfg.LLM.Provider {
	case configfile.ProviderOpenAI:
		llm, err = openaillm.NewLLMService(openaillm.Config{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	case configfile.ProviderAnthropic:
		llm, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	default:
		err = fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: generation disabled: %v\n", err)
		return nil
	}
	return llm
}

func buildIndex(cfg configfile.Config) (driven.VectorIndex, error) {
	switch cfg.Index.Backend {
	case configfile.ProviderMemory:
		return memoryindex.NewIndex(), nil
	case configfile.ProviderPinecone:
		return pinecone.NewIndex(pinecone.Config{
			APIKey:    os.Getenv("PINECONE_API_KEY"),
			IndexHost: cfg.Index.Host,
		})
	case configfile.ProviderPgvector:
		dims := cfg.Embedding.Dimensions
		if dims == 0 {
			// Matches the default text-embedding-3-small dimension.
			dims = 1536
		}
		return pgvector.NewIndex(context.Background(), pgvector.Config{
			ConnString: cfg.Index.ConnString,
			Dimensions: dims,
		})
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}
