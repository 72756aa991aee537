// Package config loads Corral's runtime configuration from the
// environment. The core never computes these values itself — the
// operator supplies them (or accepts the defaults).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// DataDir holds the SQLite database.
	DataDir string

	// OpenAIAPIKey authenticates embedding and chat calls. Empty is
	// allowed: the retrieval pipeline then degrades to live data only.
	OpenAIAPIKey string

	// OpenAIBaseURL overrides the API endpoint (for proxies or
	// compatible local servers). Empty uses the SDK default.
	OpenAIBaseURL string

	// EmbeddingModel and EmbeddingDimensions configure the vector index.
	EmbeddingModel      string
	EmbeddingDimensions int

	// ChatModel produces the final synthesized answer.
	ChatModel string

	// MaxContextTokens is the soft budget for assembled retrieval
	// context, approximated by word count.
	MaxContextTokens int

	// UpstreamTimeout bounds each embedding or chat call.
	UpstreamTimeout time.Duration
}

// Load reads configuration from CORRAL_* environment variables with
// sensible defaults.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CORRAL")
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()
	v.SetDefault("data_dir", filepath.Join(home, ".corral"))
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("embedding_dimensions", 1536)
	v.SetDefault("chat_model", "gpt-4o-mini")
	v.SetDefault("max_context_tokens", 2000)
	v.SetDefault("upstream_timeout_seconds", 30)

	cfg := Config{
		DataDir:             v.GetString("data_dir"),
		OpenAIAPIKey:        v.GetString("openai_api_key"),
		OpenAIBaseURL:       v.GetString("openai_base_url"),
		EmbeddingModel:      v.GetString("embedding_model"),
		EmbeddingDimensions: v.GetInt("embedding_dimensions"),
		ChatModel:           v.GetString("chat_model"),
		MaxContextTokens:    v.GetInt("max_context_tokens"),
		UpstreamTimeout:     time.Duration(v.GetInt("upstream_timeout_seconds")) * time.Second,
	}

	if cfg.EmbeddingDimensions <= 0 {
		return Config{}, fmt.Errorf("config: embedding_dimensions must be positive, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.MaxContextTokens <= 0 {
		return Config{}, fmt.Errorf("config: max_context_tokens must be positive, got %d", cfg.MaxContextTokens)
	}
	if cfg.UpstreamTimeout <= 0 {
		return Config{}, fmt.Errorf("config: upstream_timeout_seconds must be positive")
	}

	return cfg, nil
}
