package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/dlf/internal/models"
	"github.com/hyperjump/dlf/internal/solr"
	"github.com/hyperjump/dlf/internal/storage"
	"go.uber.org/zap"
)

// Params are the caller-supplied search parameters.
type Params struct {
	// Query is the free-text query. Empty lists toplevel records only.
	Query string
	// Fulltext extends Query to page fulltext.
	Fulltext bool
	Sort     []string
	Start    int
	Rows     int
}

// Repository runs document searches against a core and hydrates from storage.
type Repository struct {
	storage     storage.Storage
	engine      *solr.Engine
	logger      *zap.Logger
	defaultRows int
	maxRows     int
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLogger sets the repository logger, also used by the result sets it returns.
func WithLogger(l *zap.Logger) RepositoryOption {
	return func(r *Repository) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRows sets the page size used when Params.Rows is unset and the upper bound
// applied to it. Zero keeps the current value.
func WithRows(defaultRows, maxRows int) RepositoryOption {
	return func(r *Repository) {
		if defaultRows > 0 {
			r.defaultRows = defaultRows
		}
		if maxRows > 0 {
			r.maxRows = maxRows
		}
	}
}

// NewRepository creates a repository over store and engine.
func NewRepository(store storage.Storage, engine *solr.Engine, opts ...RepositoryOption) *Repository {
	r := &Repository{
		storage:     store,
		engine:      engine,
		logger:      zap.NewNop(),
		defaultRows: solr.DefaultRows,
		maxRows:     1000,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FindByCollection searches settings.Core for documents in any of collections
// (all documents when empty) within settings.StoragePID. Results are collapsed to
// one record per document in engine order; NumFound counts every matching record.
func (r *Repository) FindByCollection(ctx context.Context, collections []*models.Collection, settings Settings, params Params) (*ResultSet, error) {
	client := r.engine.Instance(settings.Core)
	if client.Core() == "" {
		return nil, &solr.Error{Op: solr.OpQuery, Core: settings.Core, Err: solr.ErrCoreNotFound}
	}
	q := r.buildQuery(collections, settings, params)
	res, err := client.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("search",
		zap.String("core", settings.Core),
		zap.Int64("pid", settings.StoragePID),
		zap.String("query", params.Query),
		zap.Bool("fulltext", params.Fulltext),
		zap.Int("num_found", res.NumFound))
	return NewResultSet(res, r.storage, settings, r.logger), nil
}

// FindCollectionsBySettings returns the collections with the given index names,
// in the order the names were given. A name without a collection fails with
// storage.ErrNotFound naming every unknown one.
func (r *Repository) FindCollectionsBySettings(ctx context.Context, indexNames []string) ([]*models.Collection, error) {
	found, err := r.storage.FindCollectionsByIndexNames(ctx, indexNames)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(found))
	for _, c := range found {
		known[c.IndexName] = true
	}
	var missing []string
	for _, n := range indexNames {
		if !known[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("collections %s: %w", strings.Join(missing, ", "), storage.ErrNotFound)
	}
	return found, nil
}

func (r *Repository) buildQuery(collections []*models.Collection, settings Settings, params Params) solr.Query {
	q := solr.Query{
		Q:           params.Query,
		Fulltext:    params.Fulltext,
		Sort:        params.Sort,
		Start:       params.Start,
		Rows:        r.rows(params.Rows),
		CollapseUID: true,
	}
	if settings.StoragePID > 0 {
		q.Filters = append(q.Filters, solr.Number(solr.FieldPID, settings.StoragePID))
	}
	if names := models.IndexNames(collections); len(names) > 0 {
		q.Filters = append(q.Filters, solr.AnyOf(solr.FieldCollection, names...))
	}
	// Without a query only whole documents are listed. An explicit "*" matches
	// every record, pages included, so NumFound counts them too.
	if strings.TrimSpace(params.Query) == "" {
		q.Fulltext = false
		q.Filters = append(q.Filters, solr.Bool(solr.FieldToplevel, true))
	}
	return q
}

func (r *Repository) rows(n int) int {
	if n <= 0 {
		return r.defaultRows
	}
	if n > r.maxRows {
		return r.maxRows
	}
	return n
}
