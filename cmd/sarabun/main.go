// Package main is the Sarabun CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/thaidocs/sarabun/internal/config"
	"github.com/thaidocs/sarabun/internal/embedding"
	"github.com/thaidocs/sarabun/internal/ingest"
	"github.com/thaidocs/sarabun/internal/keyword"
	"github.com/thaidocs/sarabun/internal/models"
	"github.com/thaidocs/sarabun/internal/search"
	"github.com/thaidocs/sarabun/internal/server"
	"github.com/thaidocs/sarabun/internal/store"
	"github.com/thaidocs/sarabun/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/sarabun/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists it
// is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "ingest":
		runIngest()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("sarabun version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var policyWatcher *keyword.PolicyWatcher
	if path := cfg.Search.Boost.PolicyPath; path != "" {
		if policy, loadErr := keyword.LoadPolicy(path); loadErr != nil {
			logger.Warn("boost policy load failed, using inline config", zap.String("path", path), zap.Error(loadErr))
		} else {
			components.Engine.SetBoostPolicy(policy)
		}
		watchOpts := []keyword.PolicyWatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, keyword.WithLogger(logger))
		}
		policyWatcher = keyword.NewPolicyWatcher(path, components.Engine.SetBoostPolicy, watchOpts...)
		if err := policyWatcher.Start(watchCtx); err != nil {
			logger.Warn("boost policy watcher failed to start", zap.String("path", path), zap.Error(err))
		}
	}

	srv := server.NewServer(
		components.Engine,
		components.Ingestor,
		components.Store,
		cfg,
		logger,
	)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if policyWatcher != nil {
		policyWatcher.Stop()
	}
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	userID := fs.String("user", "", "user id (required)")
	searchType := fs.String("type", "hybrid", "search type: semantic, keyword, or hybrid")
	limit := fs.Int("limit", 10, "number of results")
	threshold := fs.Float64("threshold", -1, "minimum score to retain (negative = use config default)")
	useBM25 := fs.Bool("bm25", false, "use BM25 ranking in keyword mode")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: sarabun search --user <user-id> [flags] <query>")
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())

	opts := models.SearchOptions{
		SearchType: models.SearchType(*searchType),
		Limit:      *limit,
		UseBM25:    *useBM25,
	}
	if *threshold >= 0 {
		opts.Threshold = threshold
	}

	var response *models.ResultList
	if *serverURL != "" {
		res, err := searchViaHTTP(*serverURL, queryStr, *userID, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		response = res
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		logger, err := utils.NewLogger(cfg.Debug)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()

		components, err := initializeComponents(cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize", zap.Error(err))
		}
		defer components.Close()

		response, err = components.Engine.Search(context.Background(), queryStr, *userID, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		printResults(response)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func printResults(response *models.ResultList) {
	if response.Kind == models.KindListing {
		fmt.Printf("%d document(s):\n", len(response.Items))
		for _, r := range response.Items {
			fmt.Printf("  %s  %s\n", r.ID, r.Name)
		}
		return
	}
	fmt.Printf("%d result(s) in %dms:\n", len(response.Items), response.QueryTime)
	for i, r := range response.Items {
		fmt.Printf("%d. %s (score %.3f, %s)\n", i+1, r.Name, r.Similarity, r.MatchType)
		fmt.Printf("   %s\n", utils.Truncate(r.Content, 160))
	}
}

func searchViaHTTP(serverURL, query, userID string, opts models.SearchOptions) (*models.ResultList, error) {
	payload := map[string]interface{}{
		"query":       query,
		"user_id":     userID,
		"search_type": opts.SearchType,
		"limit":       opts.Limit,
		"use_bm25":    opts.UseBM25,
	}
	if opts.Threshold != nil {
		payload["threshold"] = *opts.Threshold
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.ResultList
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	userID := fs.String("user", "", "owning user id (required)")
	name := fs.String("name", "", "document name (default: file basename)")
	category := fs.String("category", "", "document category")
	_ = fs.Parse(os.Args[2:])

	if *userID == "" || fs.NArg() < 1 {
		fmt.Println("Usage: sarabun ingest --user <user-id> [flags] <text-file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}
	docName := *name
	if docName == "" {
		docName = filepath.Base(path)
	}
	info, _ := os.Stat(path)
	input := models.DocumentInput{
		UserID:     *userID,
		Name:       docName,
		Content:    string(content),
		AICategory: *category,
	}
	if info != nil {
		input.FileSize = info.Size()
	}

	doc, err := components.Ingestor.IngestDocument(context.Background(), input)
	if err != nil {
		fmt.Printf("Ingestion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document ingested: %s\n", doc.ID)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: sarabun delete [flags] <document-id>")
		os.Exit(1)
	}
	docID := fs.Arg(0)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	if err := components.Ingestor.DeleteDocument(context.Background(), docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document deleted: %s\n", docID)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		_, _ = io.Copy(os.Stdout, resp.Body)
		fmt.Println()
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	docCount, err := components.Store.CountDocuments(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count documents failed: %v\n", err)
		os.Exit(1)
	}
	chunkCount, err := components.Store.CountChunks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Count chunks failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("documents:  %d\n", docCount)
	fmt.Printf("chunks:     %d\n", chunkCount)
	fmt.Printf("embedding:  %s (%d dims)\n", cfg.Embedding.Model, cfg.Embedding.Dimensions)
	fmt.Printf("database:   %s\n", cfg.Storage.DatabasePath)
}

// Components holds initialized services.
type Components struct {
	Store    store.Store
	Embedder embedding.Embedder
	Engine   *search.Engine
	Ingestor *ingest.Ingestor
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	st, err := store.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	var embedder embedding.Embedder
	client, err := embedding.NewClient(cfg.Embedding, embedding.WithLogger(logger))
	if err != nil {
		if !errors.Is(err, embedding.ErrNotConfigured) {
			_ = st.Close()
			return nil, fmt.Errorf("failed to initialize embedding client: %w", err)
		}
		logger.Warn("no embedding provider configured, semantic and hybrid search unavailable")
	} else {
		embedder = client
		if cfg.Embedding.CacheSize > 0 {
			embedder = embedding.NewCachedEmbedder(embedder, cfg.Embedding.CacheSize)
		}
	}

	engine := search.NewEngine(st, embedder, cfg.Search, search.WithLogger(logger))
	chunker := ingest.NewChunker(cfg.Search.ChunkSize, cfg.Search.ChunkOverlap)
	ingestor := ingest.NewIngestor(st, embedder, chunker, ingest.WithLogger(logger))

	return &Components{
		Store:    st,
		Embedder: embedder,
		Engine:   engine,
		Ingestor: ingestor,
	}, nil
}

func printUsage() {
	fmt.Println(`sarabun - Hybrid document retrieval service

Usage:
  sarabun server [flags]                      Start the HTTP server
  sarabun search --user <id> [flags] <query>  Search documents (empty query lists documents)
  sarabun ingest --user <id> [flags] <file>   Ingest a text file as a document
  sarabun delete [flags] <document-id>        Delete a document and its chunks
  sarabun status [flags]                      Show store and configuration status
  sarabun version                             Show version
  sarabun help                                Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/sarabun/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string     Config file path (for direct storage mode)
  --server string     Server URL (default: http://localhost:8080). Use empty (--server "") for direct storage.
  --user string       User id whose documents to search (required)
  --type string       Search type: semantic, keyword, or hybrid (default: hybrid)
  --limit int         Number of results (default: 10)
  --threshold float   Minimum score to retain (negative = config default)
  --bm25              Use BM25 ranking in keyword mode
  --output string     Output format: text or json (default: text)

Examples:
  sarabun server
  sarabun search --user u1 quarterly revenue report
  sarabun search --user u1 --type keyword --bm25 invoice
  sarabun ingest --user u1 --name "Q3 Report" report.txt
  sarabun delete doc-123
  sarabun status`)
}
