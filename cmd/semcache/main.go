package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/iishyfishyy/semcache/internal/cache"
	"github.com/iishyfishyy/semcache/internal/cache/adjudicator"
	"github.com/iishyfishyy/semcache/internal/cache/embeddings"
	"github.com/iishyfishyy/semcache/internal/cache/vectorstore"
	"github.com/iishyfishyy/semcache/internal/config"
	"github.com/iishyfishyy/semcache/internal/history"
	"github.com/iishyfishyy/semcache/internal/ui"

	"github.com/spf13/cobra"
)

var (
	// version is set by goreleaser at build time
	version = "dev"

	// CLI flags
	namespace  string
	metaFlags  []string
	copyAnswer bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "semcache",
		Short:   "Semantic cache for LLM answers",
		Long:    "semcache caches question/answer pairs and finds them again by meaning, not by exact text",
		Version: version,
	}

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure the embedding provider, vector store, and adjudicator",
		RunE:  runConfigure,
	}

	addCmd := &cobra.Command{
		Use:   "add <question> <answer>",
		Short: "Cache a question/answer pair",
		Args:  cobra.ExactArgs(2),
		RunE:  runAdd,
	}
	addCmd.Flags().StringVarP(&namespace, "namespace", "n", "default", "Namespace to store the pair under")
	addCmd.Flags().StringArrayVarP(&metaFlags, "meta", "m", nil, "Additional metadata as key=value (repeatable)")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Look up a query in the cache",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
	searchCmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Restrict the lookup to one namespace")
	searchCmd.Flags().BoolVarP(&copyAnswer, "copy", "c", false, "Copy the top answer to the clipboard")

	importCmd := &cobra.Command{
		Use:   "import <seed-file.yaml>",
		Short: "Bulk-load question/answer pairs from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show hit/miss statistics from the lookup log",
		RunE:  runStats,
	}
	statsCmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Restrict stats to one namespace")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runConfigure walks through provider, store, and adjudicator selection
func runConfigure(cmd *cobra.Command, args []string) error {
	ui.ShowInfo("Let's set up semcache.\n")

	cfg := &config.Config{}

	// Embedding provider
	provider, err := ui.SelectEmbeddingProvider()
	if err != nil {
		return err
	}
	cfg.Embeddings = &config.EmbeddingsConfig{Provider: provider}

	switch provider {
	case "ollama":
		url, err := ui.PromptInput("Ollama URL:", "http://localhost:11434")
		if err != nil {
			return err
		}
		model, err := ui.PromptInput("Ollama embedding model:", "nomic-embed-text")
		if err != nil {
			return err
		}
		cfg.Embeddings.OllamaURL = url
		cfg.Embeddings.OllamaModel = model
	case "openai":
		if os.Getenv("OPENAI_API_KEY") == "" {
			ui.ShowWarning("OPENAI_API_KEY is not set; export it before using semcache")
		}
		model, err := ui.PromptInput("OpenAI embedding model:", "text-embedding-3-small")
		if err != nil {
			return err
		}
		cfg.Embeddings.OpenAIModel = model
	}

	// Vector store
	backend, err := ui.SelectStoreBackend()
	if err != nil {
		return err
	}
	cfg.Store = &config.StoreConfig{Backend: backend}

	switch backend {
	case "sqlite":
		defaultPath, err := config.DefaultSQLitePath()
		if err != nil {
			return err
		}
		path, err := ui.PromptInput("SQLite database path:", defaultPath)
		if err != nil {
			return err
		}
		cfg.Store.SQLitePath = path
	case "postgres":
		dsn, err := ui.PromptRequiredInput("Postgres DSN (pgvector required):")
		if err != nil {
			return err
		}
		cfg.Store.PostgresDSN = dsn
	case "weaviate":
		host, err := ui.PromptInput("Weaviate host:", "localhost:8080")
		if err != nil {
			return err
		}
		scheme, err := ui.PromptInput("Weaviate scheme:", "http")
		if err != nil {
			return err
		}
		cfg.Store.WeaviateHost = host
		cfg.Store.WeaviateScheme = scheme
	case "memory":
		ui.ShowWarning("The memory store does not persist between runs; use it for testing only")
	}

	// Adjudicator
	adjBackend, err := ui.SelectAdjudicatorBackend()
	if err != nil {
		return err
	}
	cfg.Adjudicator = &config.AdjudicatorConfig{Backend: adjBackend}

	if adjBackend == "claude-code" && !adjudicator.IsClaudeCLIInstalled() {
		ui.ShowWarning("Claude CLI not found; install it and run 'claude auth' before searching")
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	configPath, _ := config.GetConfigPath()
	ui.ShowSuccess(fmt.Sprintf("Configuration saved to %s", configPath))
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	manager, err := buildManager()
	if err != nil {
		return err
	}

	metadata, err := parseMetaFlags(metaFlags)
	if err != nil {
		return err
	}

	item := cache.Item{Question: args[0], Answer: args[1]}
	if err := manager.Add(context.Background(), item, namespace, metadata); err != nil {
		ui.ShowError(err.Error())
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Cached under namespace %q", namespace))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	manager, err := buildManager()
	if err != nil {
		return err
	}

	query := args[0]
	result, err := manager.Search(context.Background(), query, namespace)
	if err != nil {
		ui.ShowError(err.Error())
		return err
	}

	recordLookup(query, result)

	if !result.Hit() {
		ui.ShowInfo("No cached answer found.")
		return nil
	}

	for _, item := range result.Items {
		ui.ShowAnswer(string(result.MatchType), item.Question, item.Answer)
	}

	if copyAnswer {
		if err := clipboard.WriteAll(result.Items[0].Answer); err != nil {
			ui.ShowWarning(fmt.Sprintf("Failed to copy answer: %v", err))
		} else {
			ui.ShowSuccess("Top answer copied to clipboard")
		}
	}

	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	seed, err := cache.LoadSeedFile(args[0])
	if err != nil {
		ui.ShowError(err.Error())
		return err
	}

	manager, err := buildManager()
	if err != nil {
		return err
	}

	added, err := manager.Import(context.Background(), seed)
	if err != nil {
		ui.ShowError(fmt.Sprintf("Imported %d pairs before failing: %v", added, err))
		return err
	}

	ui.ShowSuccess(fmt.Sprintf("Imported %d pairs into namespace %q", added, seed.Namespace))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	hist, err := history.Load()
	if err != nil {
		return err
	}

	stats := hist.Summarize(namespace)
	if stats.Lookups == 0 {
		ui.ShowInfo("No lookups recorded yet.")
		return nil
	}

	bold := color.New(color.Bold)
	bold.Println("Lookup statistics:")
	fmt.Printf("  Lookups:  %d\n", stats.Lookups)
	fmt.Printf("  Exact:    %d\n", stats.Exact)
	fmt.Printf("  Similar:  %d\n", stats.Similar)
	fmt.Printf("  Misses:   %d\n", stats.Misses)
	fmt.Printf("  Hit rate: %.0f%%\n", stats.HitRate()*100)
	return nil
}

// buildManager assembles the cache manager from the saved configuration
func buildManager() (*cache.Manager, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no configuration found; run 'semcache configure' first")
	}
	if cfg.Embeddings == nil || cfg.Store == nil || cfg.Adjudicator == nil {
		return nil, fmt.Errorf("configuration is incomplete; run 'semcache configure' again")
	}

	embedder, err := embeddings.NewEmbedder(embeddings.Config{
		Provider:    cfg.Embeddings.Provider,
		OllamaURL:   cfg.Embeddings.OllamaURL,
		OllamaModel: cfg.Embeddings.OllamaModel,
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: cfg.Embeddings.OpenAIModel,
	})
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg.Store, embedder)
	if err != nil {
		return nil, err
	}

	adj, err := adjudicator.NewAdjudicator(adjudicator.Config{
		Backend:     cfg.Adjudicator.Backend,
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: cfg.Adjudicator.OpenAIModel,
	})
	if err != nil {
		return nil, err
	}

	maxDistance := 0.0
	limit := 0
	if cfg.Retrieval != nil {
		maxDistance = cfg.Retrieval.MaxDistance
		limit = cfg.Retrieval.TopK
	}

	return cache.NewManager(embedder, store, adj, maxDistance, limit), nil
}

// buildStore opens the configured vector store backend
func buildStore(cfg *config.StoreConfig, embedder embeddings.Embedder) (vectorstore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return vectorstore.NewMemoryStore(), nil

	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			defaultPath, err := config.DefaultSQLitePath()
			if err != nil {
				return nil, err
			}
			path = defaultPath
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return vectorstore.NewSQLiteStore(path, providerOf(embedder), embedder.Name(), embedder.Dimensions())
		}

		store, err := vectorstore.OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		if store.Dimensions() != embedder.Dimensions() {
			store.Close()
			return nil, fmt.Errorf("cache at %s was built with %d-dimensional vectors, but %s produces %d; delete it or switch models",
				path, store.Dimensions(), embedder.Name(), embedder.Dimensions())
		}
		return store, nil

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend requires a DSN; run 'semcache configure'")
		}
		return vectorstore.NewPostgresStore(cfg.PostgresDSN, embedder.Dimensions())

	case "weaviate":
		return vectorstore.NewWeaviateStore(vectorstore.WeaviateConfig{
			Host:   cfg.WeaviateHost,
			Scheme: cfg.WeaviateScheme,
			APIKey: os.Getenv("WEAVIATE_API_KEY"),
			Class:  cfg.WeaviateClass,
		})

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

// providerOf extracts the provider part of an embedder name like "ollama/model"
func providerOf(embedder embeddings.Embedder) string {
	name := embedder.Name()
	if idx := strings.Index(name, "/"); idx > 0 {
		return name[:idx]
	}
	return name
}

// parseMetaFlags converts repeated key=value flags into a metadata map
func parseMetaFlags(flags []string) (map[string]interface{}, error) {
	if len(flags) == 0 {
		return nil, nil
	}

	metadata := make(map[string]interface{}, len(flags))
	for _, flag := range flags {
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid metadata flag %q: expected key=value", flag)
		}
		metadata[parts[0]] = parts[1]
	}

	return metadata, nil
}

// recordLookup appends the search outcome to the lookup log. Logging is
// best-effort; a failure never affects the search result
func recordLookup(query string, result cache.MatchResult) {
	hist, err := history.Load()
	if err != nil {
		return
	}
	hist.AddEntry(history.NewEntry(query, namespace, string(result.MatchType), len(result.Items)))
	hist.Save()
}
