// Package solr provides the search engine client: named cores holding flat
// document and page records, with batched submit, commit and query.
// Each core is an embedded Bleve index stored under the engine root.
package solr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCollapseLimit bounds how many hits a collapsed query reads before grouping.
const DefaultCollapseLimit = 1000

var coreNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Engine manages the cores below a root directory.
type Engine struct {
	root          string
	logger        *zap.Logger
	collapseLimit int

	mu    sync.Mutex
	cores map[string]*core
}

type core struct {
	name  string
	index bleve.Index

	mu    sync.Mutex
	batch *bleve.Batch
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCollapseLimit sets how many hits collapsed queries read.
func WithCollapseLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.collapseLimit = n
		}
	}
}

// NewEngine returns an engine rooted at root. The directory is created on first use.
func NewEngine(root string, opts ...Option) *Engine {
	e := &Engine{
		root:          root,
		logger:        zap.NewNop(),
		collapseLimit: DefaultCollapseLimit,
		cores:         make(map[string]*core),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns the directory holding the cores.
func (e *Engine) Root() string { return e.root }

// CreateCore creates an empty core and returns its name. An empty name yields a
// generated unique one.
func (e *Engine) CreateCore(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrap(OpCreateCore, name, err)
	}
	if name == "" {
		name = "core" + uuid.NewString()
	}
	if !coreNamePattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCoreName, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(e.root, 0755); err != nil {
		return "", wrap(OpCreateCore, name, err)
	}
	path := filepath.Join(e.root, name)
	if _, ok := e.cores[name]; ok {
		return "", wrap(OpCreateCore, name, ErrCoreExists)
	}
	if _, err := os.Stat(path); err == nil {
		return "", wrap(OpCreateCore, name, ErrCoreExists)
	}
	index, err := bleve.New(path, newIndexMapping())
	if err != nil {
		return "", wrap(OpCreateCore, name, err)
	}
	e.cores[name] = &core{name: name, index: index, batch: index.NewBatch()}
	e.logger.Info("Created core", zap.String("core", name), zap.String("path", path))
	return name, nil
}

// Instance returns a client bound to the named core. When the core does not
// exist the client is unbound: Core returns "" and every operation fails with
// ErrCoreNotFound.
func (e *Engine) Instance(name string) *Client {
	c, err := e.open(name)
	if err != nil {
		if !errors.Is(err, ErrCoreNotFound) {
			e.logger.Warn("Failed to open core", zap.String("core", name), zap.Error(err))
		}
		return &Client{logger: e.logger}
	}
	return &Client{core: c, logger: e.logger, collapseLimit: e.collapseLimit}
}

func (e *Engine) open(name string) (*core, error) {
	if !coreNamePattern.MatchString(name) {
		return nil, ErrCoreNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.cores[name]; ok {
		return c, nil
	}
	path := filepath.Join(e.root, name)
	if _, err := os.Stat(path); err != nil {
		return nil, ErrCoreNotFound
	}
	index, err := bleve.Open(path)
	if err != nil {
		return nil, wrap(OpOpenCore, name, err)
	}
	c := &core{name: name, index: index, batch: index.NewBatch()}
	e.cores[name] = c
	return c, nil
}

// Cores lists the core names present under the root.
func (e *Engine) Cores() ([]string, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrap("list cores", "", err)
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() && coreNamePattern.MatchString(ent.Name()) {
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close closes every open core. Uncommitted records are discarded.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for name, c := range e.cores {
		if err := c.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close core %s: %w", name, err))
		}
		delete(e.cores, name)
	}
	return errors.Join(errs...)
}

// newIndexMapping maps record fields. Title and metadata feed the composite _all
// field used for free-text queries; fulltext is only searched when asked for.
func newIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	doc := bleve.NewDocumentMapping()

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	doc.AddFieldMappingsAt(FieldTitle, text)

	fulltext := bleve.NewTextFieldMapping()
	fulltext.Analyzer = standard.Name
	fulltext.IncludeInAll = false
	doc.AddFieldMappingsAt(FieldFulltext, fulltext)

	for _, name := range []string{FieldID, FieldParentID, FieldType, FieldRecordID, FieldLocation, FieldCollection} {
		kw := bleve.NewKeywordFieldMapping()
		kw.IncludeInAll = false
		doc.AddFieldMappingsAt(name, kw)
	}
	for _, name := range []string{FieldUID, FieldPID, FieldPage} {
		num := bleve.NewNumericFieldMapping()
		num.IncludeInAll = false
		doc.AddFieldMappingsAt(name, num)
	}
	flag := bleve.NewBooleanFieldMapping()
	flag.IncludeInAll = false
	doc.AddFieldMappingsAt(FieldToplevel, flag)

	im.AddDocumentMapping("record", doc)
	im.DefaultType = "record"
	im.DefaultMapping = doc
	return im
}
