// Package main is the docpack CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/docpack/internal/blobstore"
	"github.com/hyperjump/docpack/internal/catalog"
	"github.com/hyperjump/docpack/internal/cli"
	"github.com/hyperjump/docpack/internal/config"
	"github.com/hyperjump/docpack/internal/extract"
	"github.com/hyperjump/docpack/internal/fileid"
	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/internal/pipeline"
	"github.com/hyperjump/docpack/internal/publish"
	"github.com/hyperjump/docpack/internal/reconcile"
	"github.com/hyperjump/docpack/internal/refdata"
	"github.com/hyperjump/docpack/internal/server"
	"github.com/hyperjump/docpack/internal/watcher"
	"github.com/hyperjump/docpack/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docpack/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present, and a missing default file means environment and defaults
// only. Returns the config and the path that was loaded ("" when none).
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
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Load("")
			return cfg, "", err
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
	case "serve", "server":
		runServe()
	case "watch":
		runWatch()
	case "process":
		runProcess()
	case "lookup":
		runLookup()
	case "config":
		runConfig()
	case "version", "--version", "-v":
		fmt.Printf("docpack version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads and validates the configuration and builds the logger.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolvedConfigPath, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("extraction_backend", cfg.Extraction.Backend),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("output_bucket", cfg.Storage.OutputBucket),
	)
	return cfg, logger
}

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Orchestrator(components.Input), components.Reference, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	waitForSignal()
	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// watchTarget returns the directory to watch and the disk store and bucket its files are
// read from. An explicit watch.directory is read as its own bucket named after the
// directory; otherwise the watch bucket inside the disk root is used.
func watchTarget(cfg *config.Config) (dir string, store *blobstore.Disk, bucket string, err error) {
	if cfg.Watch.Directory != "" {
		dir = filepath.Clean(cfg.Watch.Directory)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", nil, "", err
		}
		store, err = blobstore.NewDisk(filepath.Dir(dir))
		return dir, store, filepath.Base(dir), err
	}
	if cfg.Storage.DiskRoot == "" {
		return "", nil, "", errors.New("watch needs watch.directory or storage.disk_root")
	}
	store, err = blobstore.NewDisk(cfg.Storage.DiskRoot)
	if err != nil {
		return "", nil, "", err
	}
	return filepath.Join(store.Root(), cfg.Watch.Bucket), store, cfg.Watch.Bucket, nil
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	dirFlag := fs.String("dir", "", "directory to watch (overrides watch.directory)")
	syncExisting := fs.Bool("sync", false, "process files already in the directory at startup")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *dirFlag != "" {
		cfg.Watch.Directory = *dirFlag
	}

	dir, input, bucket, err := watchTarget(cfg)
	if err != nil {
		logger.Fatal("Failed to prepare watch directory", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()
	orch := components.Orchestrator(input)

	watchOpts := []watcher.WatcherOption{}
	if cfg.Debug || *debug {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	w := watcher.NewWatcher(dir, bucket, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(),
		func(ev models.ObjectEvent) {
			// Failures are logged by the orchestrator.
			_, _ = orch.Handle(ctx, ev)
		},
		watchOpts...,
	)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	logger.Info("watching directory", zap.String("dir", dir), zap.String("bucket", bucket))
	if *syncExisting || cfg.Watch.SyncExisting {
		go w.SyncExistingFiles()
	}

	waitForSignal()
	logger.Info("Shutting down...")
	w.Stop()
}

func runProcess() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	bucket := fs.String("bucket", "", "input bucket")
	name := fs.String("name", "", "input object name")
	file := fs.String("file", "", "local file to process instead of -bucket/-name")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ev, localStore, err := processTarget(*bucket, *name, *file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		os.Exit(1)
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	var input blobstore.Store = components.Input
	if localStore != nil {
		input = localStore
	}
	out, err := components.Orchestrator(input).Handle(ctx, ev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "processing failed: %v\n", err)
		components.Close()
		os.Exit(1)
	}
	if err := cli.WriteOutcome(os.Stdout, out, format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// processTarget resolves the event for the process command. A local file is read through
// a disk store rooted at its grandparent so its directory acts as the bucket.
func processTarget(bucket, name, file string) (models.ObjectEvent, *blobstore.Disk, error) {
	if file == "" {
		ev := models.ObjectEvent{Bucket: bucket, Name: name}
		return ev, nil, ev.Validate()
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return models.ObjectEvent{}, nil, err
	}
	dir := filepath.Dir(abs)
	store, err := blobstore.NewDisk(filepath.Dir(dir))
	if err != nil {
		return models.ObjectEvent{}, nil, err
	}
	return models.ObjectEvent{Bucket: filepath.Base(dir), Name: filepath.Base(abs)}, store, nil
}

func runLookup() {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	name := fs.String("name", "", "first-name fragment")
	surname := fs.String("surname", "", "last-name fragment")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ref, err := refdata.Load(cfg.Reference.PersonnelPath, cfg.Reference.ClustersPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if err := cli.WritePersons(os.Stdout, ref.FindPerson(*name, *surname), format); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConfig() {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	write := fs.String("write", "", "write the effective config to this path instead of stdout")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *write != "" {
		if err := config.Save(*write, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("config written to %s\n", *write)
		return
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Stdout.Write(data)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		os.Exit(1)
	}
}

func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
}

// Components holds the long-lived dependencies of a handling.
type Components struct {
	Input     blobstore.Store
	Output    blobstore.Store
	Extractor extract.Extractor
	Reference *refdata.Store
	Catalog   catalog.Catalog
	Strategy  fileid.Strategy

	cfg    *config.Config
	logger *zap.Logger
}

// Orchestrator builds a pipeline reading from input.
func (c *Components) Orchestrator(input blobstore.Store) *pipeline.Orchestrator {
	pub := publish.New(c.Output, c.cfg.Storage.OutputBucket,
		publish.WithCatalog(c.Catalog),
		publish.WithLogger(c.logger),
	)
	return pipeline.New(input, c.Extractor, reconcile.New(c.Reference, reconcile.WithLogger(c.logger)), pub,
		pipeline.WithLogger(c.logger),
		pipeline.WithTempDir(c.cfg.Workspace.TempDir),
		pipeline.WithIDStrategy(c.Strategy),
	)
}

func (c *Components) Close() {
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	strategy, err := fileid.ParseStrategy(cfg.Workspace.IDStrategy)
	if err != nil {
		return nil, err
	}

	ref, err := refdata.Load(cfg.Reference.PersonnelPath, cfg.Reference.ClustersPath)
	if err != nil {
		logger.Warn("reference data not fully loaded, enrichment may be empty", zap.Error(err))
	}
	stats := ref.Stats()
	logger.Info("reference data loaded", zap.Int("personnel", stats.Personnel), zap.Int("clusters", stats.Clusters))

	var googleOpts []option.ClientOption
	if cfg.Storage.CredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.Storage.CredentialsFile))
	}

	var store blobstore.Store
	switch cfg.Storage.Backend {
	case config.StorageDisk:
		disk, err := blobstore.NewDisk(cfg.Storage.DiskRoot)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize disk storage: %w", err)
		}
		store = disk
	default:
		opts := googleOpts
		if cfg.Storage.Endpoint != "" {
			opts = append(append([]option.ClientOption(nil), googleOpts...), option.WithEndpoint(cfg.Storage.Endpoint))
		}
		gcs, err := blobstore.NewGCS(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage client: %w", err)
		}
		store = gcs
	}

	var ex extract.Extractor
	switch cfg.Extraction.Backend {
	case config.ExtractionLocal:
		ex = extract.NewLocal(nil)
	default:
		dai, err := extract.NewDocumentAI(ctx, extract.DocumentAIConfig{
			Project:     cfg.Extraction.Project,
			Location:    cfg.Extraction.Location,
			ProcessorID: cfg.Extraction.ProcessorID,
			Endpoint:    cfg.Extraction.Endpoint,
		}, logger, googleOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize document ai client: %w", err)
		}
		logger.Info("document ai processor", zap.String("processor", dai.Name()))
		ex = dai
	}
	if rps := cfg.Extraction.RequestsPerSecond; rps > 0 {
		ex = extract.NewRateLimited(ex, rps, cfg.Extraction.Burst)
		logger.Info("extraction throttled", zap.Float64("requests_per_second", rps), zap.Int("burst", cfg.Extraction.Burst))
	}

	var cat catalog.Catalog = catalog.Noop{}
	if cfg.Catalog.Driver == config.CatalogSQLite {
		sqlite, err := catalog.NewSQLite(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize catalog: %w", err)
		}
		cat = sqlite
	}

	return &Components{
		Input:     store,
		Output:    store,
		Extractor: ex,
		Reference: ref,
		Catalog:   cat,
		Strategy:  strategy,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

func printUsage() {
	fmt.Println(`docpack - Document record packaging service

Usage:
  docpack serve [flags]      Receive storage events over HTTP and process them
  docpack watch [flags]      Process files appearing in a local directory
  docpack process [flags]    Process one object or local file
  docpack lookup [flags]     Search the personnel reference table
  docpack config [flags]     Print or write the effective configuration
  docpack version            Show version
  docpack help               Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/docpack/config.yaml)
  --debug            Enable debug logging

Watch Flags:
  --dir string       Directory to watch (overrides watch.directory)
  --sync             Process files already present at startup

Process Flags:
  --bucket string    Input bucket
  --name string      Input object name
  --file string      Local file to process instead of --bucket/--name
  --output string    Output format: text or json (default: text)

Lookup Flags:
  --name string      First-name fragment (case-insensitive substring)
  --surname string   Last-name fragment (case-insensitive substring)
  --output string    Output format: text or json (default: text)

Config Flags:
  --write string     Write the effective config to a file

Environment:
  GCP_PROJECT, DOCUMENT_AI_LOCATION, DOCUMENT_AI_PROCESSOR_ID, OUTPUT_BUCKET, PORT
  override the matching settings in the config file.

Examples:
  docpack serve
  docpack process --bucket incoming --name scans/doc1.pdf
  docpack process --file ./doc1.pdf --output json
  docpack lookup --name mario --surname rossi`)
}
