// Package config provides configuration loading and structs for the Sarabun server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds settings for the remote embedding provider.
// An empty BaseURL or Model means no provider is configured; semantic and hybrid
// search are unavailable in that state and keyword mode still works.
type EmbeddingConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Dimensions     int    `yaml:"dimensions"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheSize      int    `yaml:"cache_size"`
}

// BoostConfig holds the domain-boost policy: a curated list of high-value terms
// (store names, entity names) and the additive bonus applied when one matches.
// When PolicyPath is set, the file is loaded at startup and hot-reloaded on change,
// overriding the inline Terms/Amount.
type BoostConfig struct {
	Terms      []string `yaml:"terms"`
	Amount     float64  `yaml:"amount"`
	PolicyPath string   `yaml:"policy_path"`
}

// SearchConfig holds retrieval and chunking settings.
type SearchConfig struct {
	DefaultLimit     int     `yaml:"default_limit"`
	MaxLimit         int     `yaml:"max_limit"`
	DefaultThreshold float64 `yaml:"default_threshold"`
	KeywordWeight    float64 `yaml:"keyword_weight"`
	VectorWeight     float64 `yaml:"vector_weight"`
	TopKCandidates   int     `yaml:"top_k_candidates"`
	// KeywordScoreCap caps the scorer output on the pure-keyword evaluation path.
	// The hybrid path consumes the uncapped score.
	KeywordScoreCap float64     `yaml:"keyword_score_cap"`
	ChunkSize       int         `yaml:"chunk_size"`
	ChunkOverlap    int         `yaml:"chunk_overlap"`
	ListingLimit    int         `yaml:"listing_limit"`
	Boost           BoostConfig `yaml:"boost"`
}

// Load reads and parses the config file at path, applies defaults, and expands
// relative paths. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Search.Boost.PolicyPath != "" {
		cfg.Search.Boost.PolicyPath = expandPath(cfg.Search.Boost.PolicyPath, configDir)
	}

	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("SARABUN_EMBEDDING_API_KEY")
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
