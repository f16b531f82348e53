// Package search maps search engine responses back onto stored documents.
package search

import (
	"context"
	"errors"
	"iter"

	"github.com/hyperjump/dlf/internal/metrics"
	"github.com/hyperjump/dlf/internal/models"
	"github.com/hyperjump/dlf/internal/solr"
	"github.com/hyperjump/dlf/internal/storage"
	"go.uber.org/zap"
)

// Hydrator looks up stored documents for toplevel hits.
type Hydrator interface {
	FindDocumentInPid(ctx context.Context, uid, pid int64) (*models.Document, error)
}

// Settings names the core to query and the storage scope used for hydration.
type Settings struct {
	Core       string
	StoragePID int64
}

// Hit is one position of a result set: the raw record, and the stored document
// when the record is toplevel and a matching document exists in scope.
type Hit struct {
	Position int
	Record   solr.Record
	Document *models.Document
}

// Hydrated reports whether a stored document was found for the hit.
func (h *Hit) Hydrated() bool { return h.Document != nil }

// Title returns the title for display: the record title, else the document title.
func (h *Hit) Title() string {
	if h.Record.Title != "" || h.Document == nil {
		return h.Record.Title
	}
	return h.Document.Title
}

// UID returns the uid of the document the hit belongs to.
func (h *Hit) UID() int64 { return h.Record.UID }

// Toplevel reports whether the hit is a whole-document record.
func (h *Hit) Toplevel() bool { return h.Record.Toplevel }

// ResultSet is a positional view over one fetched page of raw records. Toplevel
// records are hydrated from storage on first access and kept for the lifetime of
// the set. A ResultSet is not safe for concurrent use.
type ResultSet struct {
	raw      *solr.Result
	hydrator Hydrator
	settings Settings
	logger   *zap.Logger

	count    int
	resolved map[int]*Hit
}

// NewResultSet wraps raw. logger may be nil.
func NewResultSet(raw *solr.Result, hydrator Hydrator, settings Settings, logger *zap.Logger) *ResultSet {
	if raw == nil {
		raw = &solr.Result{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	count := 0
	for i := range raw.Documents {
		if raw.Documents[i].Toplevel {
			count++
		}
	}
	return &ResultSet{
		raw:      raw,
		hydrator: hydrator,
		settings: settings,
		logger:   logger,
		count:    count,
		resolved: make(map[int]*Hit),
	}
}

// Count returns the number of toplevel records in the fetched page.
func (rs *ResultSet) Count() int { return rs.count }

// Len returns the number of raw records in the fetched page.
func (rs *ResultSet) Len() int { return len(rs.raw.Documents) }

// Has reports whether i is a position in the fetched page. Positions are not uids.
func (rs *ResultSet) Has(i int) bool { return i >= 0 && i < rs.Len() }

// NumFound returns the total match count reported by the engine.
func (rs *ResultSet) NumFound() int { return rs.raw.NumFound }

// SolrResults returns the raw response.
func (rs *ResultSet) SolrResults() *solr.Result { return rs.raw }

// Get returns the hit at position i, or false when i is out of range.
func (rs *ResultSet) Get(ctx context.Context, i int) (*Hit, bool) {
	if !rs.Has(i) {
		return nil, false
	}
	if h, ok := rs.resolved[i]; ok {
		return h, true
	}
	h, cache := rs.resolve(ctx, i)
	if cache {
		rs.resolved[i] = h
	}
	return h, true
}

// All yields every position in fetch order. Each call starts a new pass.
func (rs *ResultSet) All(ctx context.Context) iter.Seq2[int, *Hit] {
	return func(yield func(int, *Hit) bool) {
		for i := 0; i < rs.Len(); i++ {
			h, _ := rs.Get(ctx, i)
			if !yield(i, h) {
				return
			}
		}
	}
}

// resolve hydrates position i. The second result is false when the lookup failed
// for a reason other than a miss, so a later access retries.
func (rs *ResultSet) resolve(ctx context.Context, i int) (*Hit, bool) {
	h := &Hit{Position: i, Record: rs.raw.Documents[i]}
	if !h.Record.Toplevel || rs.hydrator == nil {
		metrics.HydrationTotal.WithLabelValues("raw").Inc()
		return h, true
	}
	pid := rs.settings.StoragePID
	if pid == 0 {
		pid = h.Record.PID
	}
	doc, err := rs.hydrator.FindDocumentInPid(ctx, h.Record.UID, pid)
	switch {
	case err == nil:
		h.Document = doc
		metrics.HydrationTotal.WithLabelValues("hydrated").Inc()
		return h, true
	case errors.Is(err, storage.ErrNotFound):
		rs.logger.Debug("hydration miss", zap.Int("position", i), zap.Int64("uid", h.Record.UID), zap.Int64("pid", pid))
		metrics.HydrationTotal.WithLabelValues("miss").Inc()
		return h, true
	default:
		rs.logger.Warn("hydration failed, returning raw record",
			zap.Int("position", i), zap.Int64("uid", h.Record.UID), zap.Error(err))
		metrics.HydrationTotal.WithLabelValues("error").Inc()
		return h, false
	}
}
