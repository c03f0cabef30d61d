package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ConfigDirName  = ".semcache"
	ConfigFileName = "config.json"
)

// EmbeddingsConfig selects the embedding provider. The OpenAI API key is
// read from the OPENAI_API_KEY environment variable, never persisted
type EmbeddingsConfig struct {
	Provider    string `json:"provider"` // "ollama" or "openai"
	OllamaURL   string `json:"ollama_url,omitempty"`
	OllamaModel string `json:"ollama_model,omitempty"`
	OpenAIModel string `json:"openai_model,omitempty"`
}

// StoreConfig selects the vector store backend
type StoreConfig struct {
	Backend string `json:"backend"` // "memory", "sqlite", "postgres" or "weaviate"

	// SQLite config
	SQLitePath string `json:"sqlite_path,omitempty"`

	// Postgres config
	PostgresDSN string `json:"postgres_dsn,omitempty"`

	// Weaviate config
	WeaviateHost   string `json:"weaviate_host,omitempty"`
	WeaviateScheme string `json:"weaviate_scheme,omitempty"`
	WeaviateClass  string `json:"weaviate_class,omitempty"`
}

// AdjudicatorConfig selects the match adjudicator backend
type AdjudicatorConfig struct {
	Backend     string `json:"backend"` // "claude-code" or "openai"
	OpenAIModel string `json:"openai_model,omitempty"`
}

// RetrievalConfig tunes candidate retrieval. MaxDistance trades recall
// against adjudicator cost; TopK caps the candidate set size
type RetrievalConfig struct {
	MaxDistance float64 `json:"max_distance"`
	TopK        int     `json:"top_k"`
}

// Config represents the application configuration
type Config struct {
	Embeddings  *EmbeddingsConfig  `json:"embeddings"`
	Store       *StoreConfig       `json:"store"`
	Adjudicator *AdjudicatorConfig `json:"adjudicator"`
	Retrieval   *RetrievalConfig   `json:"retrieval,omitempty"`
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// DefaultSQLitePath returns the default location for the SQLite cache
func DefaultSQLitePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cache.db"), nil
}

// Load reads the configuration from disk
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return nil (not an error)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists
func Exists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
