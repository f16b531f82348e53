// Package main is the dlf CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/dlf/internal/cli"
	"github.com/hyperjump/dlf/internal/config"
	"github.com/hyperjump/dlf/internal/extract"
	"github.com/hyperjump/dlf/internal/indexer"
	"github.com/hyperjump/dlf/internal/models"
	"github.com/hyperjump/dlf/internal/search"
	"github.com/hyperjump/dlf/internal/server"
	"github.com/hyperjump/dlf/internal/solr"
	"github.com/hyperjump/dlf/internal/storage"
	"github.com/hyperjump/dlf/internal/structure"
	"github.com/hyperjump/dlf/internal/watcher"
	"github.com/hyperjump/dlf/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/dlf/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded (for saving, etc.).
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
	case "add":
		runAdd()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "create-core":
		runCreateCore()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("dlf version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config, creates the logger and initializes components. It exits on failure.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	logger, err := utils.NewLogger(debugMode, "dlf")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (structure changes, indexing, hydration)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()
	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	watchSvc := watcher.New(
		components.Indexer,
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		watcher.WithRecursive(cfg.Watch.RecursiveOrDefault()),
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watchSvc.SyncExisting()

	srv := server.NewServer(
		components.Repository,
		components.Indexer,
		components.Engine,
		components.Storage,
		cfg,
		logger,
		server.WithWatch(watchSvc, resolvedConfigPath),
		server.WithSuggester(components.Suggester),
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
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: dlf search [flags] [query]\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Without a query every document in scope is listed.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Results are collapsed to one hit per document. numFound counts every matching
record, pages included; count is the number of whole documents on the page.

Examples:
  dlf search -core dlfCore0 Dresden
  dlf search -core dlfCore0 -fulltext Elbwiesen      # include page fulltext
  dlf search -core dlfCore0 -collection saxonica,maps  # documents in any of the collections
  dlf search -core dlfCore0 -pid 20000 -rows 20 -start 20 "*"
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// searchRequest holds the search flags shared by the HTTP and direct paths.
type searchRequest struct {
	Core        string
	PID         int64
	Collections []string
	Query       string
	Fulltext    bool
	Rows        int
	Start       int
	Sort        []string
}

// values encodes r as /api/v1/search query parameters. A negative PID is omitted
// so the server default applies.
func (r searchRequest) values() url.Values {
	v := url.Values{}
	if r.Core != "" {
		v.Set("core", r.Core)
	}
	if r.PID >= 0 {
		v.Set("pid", strconv.FormatInt(r.PID, 10))
	}
	for _, c := range r.Collections {
		v.Add("collection", c)
	}
	if r.Query != "" {
		v.Set("query", r.Query)
	}
	if r.Fulltext {
		v.Set("fulltext", "true")
	}
	if r.Rows > 0 {
		v.Set("rows", strconv.Itoa(r.Rows))
	}
	if r.Start > 0 {
		v.Set("start", strconv.Itoa(r.Start))
	}
	for _, s := range r.Sort {
		v.Add("sort", s)
	}
	return v
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	core := fs.String("core", "", "core to query (default from config)")
	pid := fs.Int64("pid", -1, "storage scope (default from config)")
	collections := fs.String("collection", "", "comma separated collection index names")
	fulltext := fs.Bool("fulltext", false, "also match page fulltext")
	rows := fs.Int("rows", 0, "documents per page (default from config)")
	start := fs.Int("start", 0, "offset of the first document")
	sortFields := fs.String("sort", "", "comma separated sort fields, prefix - for descending")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format := cli.OutputText
	switch *outputFormat {
	case "json":
		format = cli.OutputJSON
	case "text":
	default:
		fmt.Printf("Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}

	req := searchRequest{
		Core:        *core,
		PID:         *pid,
		Collections: splitList(*collections),
		Query:       buildSearchQuery(fs.Args()),
		Fulltext:    *fulltext,
		Rows:        *rows,
		Start:       *start,
		Sort:        splitList(*sortFields),
	}

	if *serverURL != "" {
		// The HTTP API avoids the index lock held by a running server.
		out, err := newAPIClient(*serverURL).search(context.Background(), req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteSearchResults(os.Stdout, out, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	out, err := searchDirect(context.Background(), components, cfg, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, out, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchDirect(ctx context.Context, c *Components, cfg *config.Config, req searchRequest) (*cli.SearchOutput, error) {
	settings := search.Settings{Core: req.Core, StoragePID: cfg.Search.StoragePID}
	if settings.Core == "" {
		settings.Core = cfg.Search.DefaultCore
	}
	if req.PID >= 0 {
		settings.StoragePID = req.PID
	}
	var collections []*models.Collection
	if len(req.Collections) > 0 {
		var err error
		collections, err = c.Repository.FindCollectionsBySettings(ctx, req.Collections)
		if err != nil {
			return nil, err
		}
	}
	rs, err := c.Repository.FindByCollection(ctx, collections, settings, search.Params{
		Query:    req.Query,
		Fulltext: req.Fulltext,
		Sort:     req.Sort,
		Start:    req.Start,
		Rows:     req.Rows,
	})
	if err != nil {
		return nil, err
	}
	out := cli.NewSearchOutput(ctx, req.Query, rs)
	if out.NumFound == 0 && req.Query != "" {
		out.Suggestion = c.Suggester.Correct(ctx, settings.Core, req.Query)
	}
	return out, nil
}

// parseUIDs parses positional document uids.
func parseUIDs(args []string) ([]int64, error) {
	uids := make([]int64, 0, len(args))
	for _, a := range args {
		uid, err := strconv.ParseInt(a, 10, 64)
		if err != nil || uid <= 0 {
			return nil, fmt.Errorf("invalid document uid %q", a)
		}
		uids = append(uids, uid)
	}
	return uids, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	location := fs.String("location", "", "re-index every document with this structure location")
	_ = fs.Parse(os.Args[2:])

	uids, err := parseUIDs(fs.Args())
	if err != nil || (len(uids) == 0 && *location == "") {
		fmt.Println("Usage: dlf index [flags] <document-uid>...")
		fmt.Println("       dlf index -location <structure-file>")
		os.Exit(1)
	}

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	failed := false
	if *location != "" {
		loc := *location
		if abs, err := filepath.Abs(loc); err == nil && !strings.Contains(loc, "://") {
			loc = abs
		}
		if err := components.Indexer.StructureChanged(ctx, loc); err != nil {
			fmt.Printf("Indexing %s failed: %v\n", loc, err)
			failed = true
		} else {
			fmt.Printf("Indexed documents at %s\n", loc)
		}
	}
	for _, uid := range uids {
		if _, err := components.Indexer.IndexUID(ctx, uid); err != nil {
			fmt.Printf("Indexing document %d failed: %v\n", uid, err)
			failed = true
			continue
		}
		fmt.Printf("Document indexed successfully: %d\n", uid)
	}
	if failed {
		os.Exit(1)
	}
}

// addDocument registers the document described by the structure file at location,
// links it to the named collections (created when missing) and assigns coreUID.
func addDocument(ctx context.Context, store storage.Storage, loader structure.Loader, location string, pid, coreUID int64, collections []string) (*models.Document, error) {
	s, err := loader.Load(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load structure %s: %w", location, err)
	}
	doc := &models.Document{
		PID:            pid,
		Title:          s.Title(),
		Location:       location,
		RecordID:       s.RecordID,
		DocumentFormat: s.Format,
		CoreUID:        coreUID,
	}
	if coreUID > 0 {
		if _, err := store.FindCore(ctx, coreUID); err != nil {
			return nil, fmt.Errorf("find core %d: %w", coreUID, err)
		}
	}
	if err := store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	existing, err := store.FindCollectionsByIndexNames(ctx, collections)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*models.Collection, len(existing))
	for _, c := range existing {
		byName[c.IndexName] = c
	}
	for _, name := range collections {
		c, ok := byName[name]
		if !ok {
			c = &models.Collection{PID: pid, Label: name, IndexName: name}
			if err := store.CreateCollection(ctx, c); err != nil {
				return nil, err
			}
			byName[name] = c
		}
		if err := store.AddDocumentToCollection(ctx, doc.UID, c.UID); err != nil {
			return nil, err
		}
	}
	doc.SetStructure(s)
	return doc, nil
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	pid := fs.Int64("pid", -1, "storage scope (default from config)")
	coreUID := fs.Int64("core", 0, "uid of the core the document is indexed into")
	collections := fs.String("collection", "", "comma separated collection index names")
	noIndex := fs.Bool("no-index", false, "register the document without indexing it")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: dlf add [flags] <structure-file>")
		os.Exit(1)
	}
	location, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid path: %v\n", err)
		os.Exit(1)
	}

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	scope := cfg.Search.StoragePID
	if *pid >= 0 {
		scope = *pid
	}
	doc, err := addDocument(ctx, components.Storage, components.Loader, location, scope, *coreUID, splitList(*collections))
	if err != nil {
		fmt.Printf("Adding document failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document added: %d\n", doc.UID)
	if *noIndex || doc.CoreUID == 0 {
		return
	}
	if err := components.Indexer.Add(ctx, doc); err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document indexed successfully: %d\n", doc.UID)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	uids, err := parseUIDs(fs.Args())
	if err != nil || len(uids) == 0 {
		fmt.Println("Usage: dlf delete [flags] <document-uid>...")
		os.Exit(1)
	}

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	failed := false
	for _, uid := range uids {
		doc, err := components.Storage.FindDocument(ctx, uid)
		if err == nil {
			err = components.Indexer.Delete(ctx, doc)
		}
		if err != nil {
			fmt.Printf("Deletion of %d failed: %v\n", uid, err)
			failed = true
			continue
		}
		fmt.Printf("Document records deleted: %d\n", uid)
	}
	if failed {
		os.Exit(1)
	}
}

// createCore creates the engine core and its relational record.
func createCore(ctx context.Context, engine *solr.Engine, store storage.Storage, name, label string, pid int64) (*models.Core, error) {
	name, err := engine.CreateCore(ctx, name)
	if err != nil {
		return nil, err
	}
	if label == "" {
		label = name
	}
	core := &models.Core{PID: pid, Label: label, IndexName: name}
	if err := store.CreateCore(ctx, core); err != nil {
		return nil, err
	}
	return core, nil
}

func runCreateCore() {
	fs := flag.NewFlagSet("create-core", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	label := fs.String("label", "", "human readable label (default: core name)")
	pid := fs.Int64("pid", 0, "storage scope of the core record")
	_ = fs.Parse(os.Args[2:])

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	core, err := createCore(context.Background(), components.Engine, components.Storage, fs.Arg(0), *label, *pid)
	if err != nil {
		fmt.Printf("Creating core failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Core created: %s (uid %d)\n", core.IndexName, core.UID)
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Documents      int64             `json:"documents"`
	Cores          map[string]uint64 `json:"cores"`
	DiskUsageBytes *int64            `json:"disk_usage_bytes,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := newAPIClient(*serverURL).status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		res, err := statusDirect(context.Background(), components, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusDirect(ctx context.Context, c *Components, cfg *config.Config) (*statusResponse, error) {
	docCount, err := c.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	names, err := c.Engine.Cores()
	if err != nil {
		return nil, err
	}
	status := &statusResponse{Documents: docCount, Cores: make(map[string]uint64, len(names))}
	for _, name := range names {
		if n, err := c.Engine.Instance(name).Count(); err == nil {
			status.Cores[name] = n
		}
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.IndexPath); err == nil {
		status.DiskUsageBytes = &diskBytes
	}
	return status, nil
}

func writeStatusText(w io.Writer, status *statusResponse) {
	fmt.Fprintf(w, "documents:          %d   # documents in storage\n", status.Documents)
	if status.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + cores on disk\n", *status.DiskUsageBytes)
	}
	if len(status.Cores) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "# cores (records)")
		names := make([]string, 0, len(status.Cores))
		for name := range status.Cores {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%-20s%d\n", name+":", status.Cores[name])
		}
	}
}

// Components holds initialized services.
type Components struct {
	Storage    storage.Storage
	Engine     *solr.Engine
	Loader     structure.Loader
	Indexer    *indexer.Indexer
	Repository *search.Repository
	Suggester  *search.Suggester
}

// Close closes the engine cores and the database.
func (c *Components) Close() {
	if c.Engine != nil {
		_ = c.Engine.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	engine := solr.NewEngine(cfg.Storage.IndexPath,
		solr.WithLogger(logger),
		solr.WithCollapseLimit(cfg.Search.CollapseLimit),
	)
	loader := structure.NewFileLoader(extract.NewExtractor())
	idx := indexer.NewIndexer(store, engine,
		indexer.WithLogger(logger),
		indexer.WithLoader(loader),
	)
	repo := search.NewRepository(store, engine,
		search.WithLogger(logger),
		search.WithRows(cfg.Search.DefaultRows, cfg.Search.MaxRows),
	)
	return &Components{
		Storage:    store,
		Engine:     engine,
		Loader:     loader,
		Indexer:    idx,
		Repository: repo,
		Suggester:  search.NewSuggester(engine, search.WithSuggesterLogger(logger)),
	}, nil
}

func printUsage() {
	fmt.Println(`dlf - Indexing and search for digitized library holdings

Usage:
  dlf server [flags]                  Start the HTTP server
  dlf search [flags] [query]          Search documents
  dlf add [flags] <structure-file>    Register a document and index it
  dlf index [flags] <uid>...          Index stored documents
  dlf delete [flags] <uid>...         Remove documents from their core
  dlf create-core [flags] [name]      Create a search core
  dlf status [flags]                  Show storage and core status
  dlf watch <add|remove|list>         Manage watched structure directories
  dlf version                         Show version
  dlf help                            Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/dlf/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --server string      Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --core string        Core to query (default: search.default_core)
  --pid int            Storage scope (default: search.storage_pid)
  --collection string  Comma separated collection index names
  --fulltext           Also match page fulltext
  --rows int           Documents per page
  --start int          Offset of the first document
  --sort string        Comma separated sort fields
  --output string      text or json

Add Flags:
  --core int           Core uid the document is indexed into
  --pid int            Storage scope of the document
  --collection string  Comma separated collection index names (created when missing)
  --no-index           Register without indexing

Index Flags:
  --location string    Re-index every document with this structure location

Create-core Flags:
  --label string       Core label
  --pid int            Storage scope of the core record

Examples:
  dlf create-core dlfCore0
  dlf add -core 1 -pid 20000 -collection saxonica /data/mets/533223312.yaml
  dlf search -core dlfCore0 -fulltext Dresden
  dlf search --output json -core dlfCore0 "*"
  dlf index 1001 1002
  dlf status --output json
  dlf watch add /data/mets`)
}
