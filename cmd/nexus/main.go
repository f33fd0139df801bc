// Package main is the Nexus ingestion CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
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

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cache"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cli"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/config"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/embedding"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/extract"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/inbox"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/index"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/ingest"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/keyword"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/logging"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/pipeline"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/server"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/smb"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/stats"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/status"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/vector"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/nexus/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
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
	case "ingest":
		runIngest()
	case "serve":
		runServe()
	case "search":
		runSearch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("nexus version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-file pipeline stages, skip decisions, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := logging.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	client, err := newShareClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to shares", zap.Error(err))
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	runStats := stats.NewRunStats()
	ingestor := ingest.New(client, components.Cache, components.Index, runStats, cfg, ingest.WithLogger(logger))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := ingestor.Run(ctx); err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := logging.NewLogger(debugMode)
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

	inboxCtx, inboxCancel := context.WithCancel(context.Background())
	defer inboxCancel()
	var inboxWatcher *inbox.Watcher
	if cfg.Inbox.Directory != "" {
		inboxWatcher, err = newInboxWatcher(cfg, components, logger)
		if err != nil {
			logger.Fatal("Failed to start inbox watcher", zap.Error(err))
		}
		if err := inboxWatcher.Start(inboxCtx); err != nil {
			logger.Fatal("Failed to start inbox watcher", zap.Error(err))
		}
		go inboxWatcher.SyncExisting(inboxCtx)
	}

	srv := server.NewServer(components.Index, components.Cache, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	inboxCancel()
	if inboxWatcher != nil {
		inboxWatcher.Stop()
	}
	if err := components.Index.Save(cfg.Storage.VectorIndexPath); err != nil {
		logger.Warn("vector index save failed", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = open the index directly when the server is not running)")
	limit := fs.Int("limit", 10, "number of results")
	kwEnabled := fs.Bool("keyword", false, "use keyword search instead of semantic search")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: nexus search [flags] <query>")
		os.Exit(1)
	}
	queryStr := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if queryStr == "" {
		fmt.Println("Usage: nexus search [flags] <query>")
		os.Exit(1)
	}

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
		format = cli.OutputText
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	query := &models.SearchQuery{
		Query:          queryStr,
		Limit:          *limit,
		KeywordEnabled: *kwEnabled,
	}

	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids the Bleve/SQLite
		// lock conflict).
		response, err := searchViaHTTP(*serverURL, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Direct index access (when the server is not running).
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewLogger(cfg.Debug)
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

	if err := query.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid query: %v\n", err)
		os.Exit(1)
	}
	start := time.Now()
	var results []*models.ScoredDocument
	if query.KeywordEnabled {
		results, err = components.Index.KeywordQuery(context.Background(), query.Query, query.Limit)
	} else {
		results, err = components.Index.Query(context.Background(), query.Query, query.Limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	response := &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     query.Query,
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
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
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	artifact, found, err := status.Read(cfg.Status.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if !found {
		fmt.Println("No ingestion run has written status yet.")
		return
	}

	format := cli.OutputText
	if *outputFormat == "json" {
		format = cli.OutputJSON
	}
	if err := cli.WriteStatus(os.Stdout, artifact, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// newShareClient builds the share client from config. Network shares are
// expected to be mounted locally; smb.local_root points at the mount root.
func newShareClient(cfg *config.Config) (smb.ShareClient, error) {
	if cfg.SMB.LocalRoot == "" {
		return nil, fmt.Errorf("smb.local_root is not set; point it at the directory where the shares are mounted")
	}
	return smb.NewDirClient(cfg.SMB.LocalRoot)
}

func newInboxWatcher(cfg *config.Config, components *Components, logger *zap.Logger) (*inbox.Watcher, error) {
	client, err := smb.NewFolderClient(cfg.Inbox.Directory, inbox.Share)
	if err != nil {
		return nil, err
	}
	pipe := pipeline.New(
		client, components.Cache, extract.NewExtractor(), components.Index,
		stats.NewRunStats(),
		cfg.Pipeline.AllowedExtensions, cfg.Pipeline.MaxFileSizeBytes,
		cfg.Pipeline.WorkerPoolSize, cfg.Crawl.FetchRetries,
		pipeline.WithLogger(logger),
	)
	return inbox.NewWatcher(
		cfg.Inbox.Directory, cfg.Inbox.Extensions,
		components.Cache, pipe,
		inbox.WithLogger(logger),
	), nil
}

// Components holds initialized services.
type Components struct {
	Cache        cache.MetadataCache
	Embedder     embedding.Embedder
	VectorIndex  vector.Index
	KeywordIndex keyword.Index
	Index        *index.SearchIndex
}

func (c *Components) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	metadata, err := cache.NewSQLiteCache(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metadata cache: %w", err)
	}

	embedder, onnx := embedding.NewEmbedder(
		cfg.Embedding.ModelPath,
		cfg.Embedding.Dimensions,
		cfg.Embedding.MaxTokens,
		cfg.Embedding.CacheSize,
	)
	logger.Info("embedder initialized",
		zap.Int("dimensions", embedder.Dimensions()),
		zap.Bool("onnx", onnx))

	vectorIndex, err := vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		_ = metadata.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if loadErr := vectorIndex.Load(cfg.Storage.VectorIndexPath); loadErr != nil {
		logger.Warn("vector index load skipped",
			zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(loadErr))
	}

	keywordIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		_ = metadata.Close()
		_ = vectorIndex.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	searchIndex := index.NewSearchIndex(embedder, vectorIndex, keywordIndex, metadata, index.WithLogger(logger))

	return &Components{
		Cache:        metadata,
		Embedder:     embedder,
		VectorIndex:  vectorIndex,
		KeywordIndex: keywordIndex,
		Index:        searchIndex,
	}, nil
}

func printUsage() {
	fmt.Println(`nexus - Network share ingestion and search

Usage:
  nexus ingest [flags]            Crawl shares and ingest file content
  nexus serve [flags]             Start the dashboard HTTP API (and inbox watcher)
  nexus search [flags] <query>    Search indexed documents
  nexus status [flags]            Show the latest ingestion run status
  nexus version                   Show version
  nexus help                      Show this help

Ingest Flags:
  --config string    Config file path (default: /usr/local/etc/nexus/config.yaml)
  --debug            Enable debug logging (per-file pipeline stages, skip decisions, etc.)

Serve Flags:
  --config string    Config file path
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct index mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to open the index directly.
  --limit int        Number of results (default: 10)
  --keyword          Use keyword search instead of semantic search
  --output string    Output format: text or json (default: text)

Status Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Examples:
  nexus ingest
  nexus serve
  nexus search quarterly financial report
  nexus search --keyword invoice
  nexus search --output json "project plan"
  nexus status
  nexus status --output json`)
}
