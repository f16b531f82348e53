// Package indexer flattens documents into search records and writes them to the
// document's search core.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hyperjump/dlf/internal/metrics"
	"github.com/hyperjump/dlf/internal/models"
	"github.com/hyperjump/dlf/internal/solr"
	"github.com/hyperjump/dlf/internal/storage"
	"github.com/hyperjump/dlf/internal/structure"
	"go.uber.org/zap"
)

var (
	// ErrMissingStructure is returned when a document has no parsed structure attached.
	ErrMissingStructure = errors.New("indexer: document has no structure")
	// ErrNoCoreAssigned is returned when a document has no search core.
	ErrNoCoreAssigned = errors.New("indexer: document has no search core assigned")
)

// Indexer writes documents to the search engine.
type Indexer struct {
	storage storage.Storage
	engine  *solr.Engine
	loader  structure.Loader
	logger  *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithLoader sets the loader used to parse structures by location.
func WithLoader(l structure.Loader) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.loader = l
		}
	}
}

// NewIndexer creates an indexer. Core names are resolved through store.
func NewIndexer(store storage.Storage, engine *solr.Engine, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage: store,
		engine:  engine,
		loader:  structure.NewFileLoader(nil),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Add indexes doc: one toplevel record for the logical root and one record per page
// with fulltext, submitted and committed together. Records previously written for
// the same document are replaced. nil means every record is visible to queries.
func (idx *Indexer) Add(ctx context.Context, doc *models.Document) (err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "failed"
		}
		metrics.DocumentsIndexedTotal.WithLabelValues(result).Inc()
	}()

	s := doc.Structure()
	if s == nil || s.Logical == nil {
		return fmt.Errorf("%w: uid %d", ErrMissingStructure, doc.UID)
	}
	client, err := idx.client(ctx, doc)
	if err != nil {
		return err
	}
	collections, err := doc.Collections(ctx)
	if err != nil {
		return fmt.Errorf("load collections: %w", err)
	}
	records := BuildRecords(doc, models.IndexNames(collections))

	if err := client.Replace(ctx, doc.UID, records); err != nil {
		return err
	}

	metrics.RecordsSubmittedTotal.WithLabelValues("toplevel").Inc()
	metrics.RecordsSubmittedTotal.WithLabelValues("page").Add(float64(len(records) - 1))
	idx.logger.Debug("indexer document indexed",
		zap.Int64("uid", doc.UID),
		zap.String("core", client.Core()),
		zap.String("id", records[0].ID),
		zap.Int("records", len(records)))
	return nil
}

// Delete removes every record of doc from its core.
func (idx *Indexer) Delete(ctx context.Context, doc *models.Document) error {
	client, err := idx.client(ctx, doc)
	if err != nil {
		return err
	}
	if err := client.DeleteByUID(ctx, doc.UID); err != nil {
		return err
	}
	if err := client.Commit(ctx); err != nil {
		return err
	}
	idx.logger.Debug("indexer document deleted", zap.Int64("uid", doc.UID), zap.String("core", client.Core()))
	return nil
}

// IndexUID loads the document with uid, parses its structure and indexes it.
func (idx *Indexer) IndexUID(ctx context.Context, uid int64) (*models.Document, error) {
	doc, err := idx.storage.FindDocument(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("find document %d: %w", uid, err)
	}
	s, err := idx.loader.Load(ctx, doc.Location)
	if err != nil {
		return doc, fmt.Errorf("load structure %s: %w", doc.Location, err)
	}
	doc.SetStructure(s)
	return doc, idx.Add(ctx, doc)
}

// IndexLocation re-indexes every document whose location is location. The structure
// is parsed once and shared. Returns the number of documents indexed; failures of
// single documents are joined into the error.
func (idx *Indexer) IndexLocation(ctx context.Context, location string) (int, error) {
	docs, err := idx.storage.FindDocumentsByLocation(ctx, location)
	if err != nil {
		return 0, fmt.Errorf("find documents: %w", err)
	}
	if len(docs) == 0 {
		idx.logger.Debug("indexer no document for location", zap.String("location", location))
		return 0, nil
	}
	s, err := idx.loader.Load(ctx, location)
	if err != nil {
		return 0, fmt.Errorf("load structure %s: %w", location, err)
	}
	var (
		n    int
		errs []error
	)
	for _, doc := range docs {
		doc.SetStructure(s)
		if err := idx.Add(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("document %d: %w", doc.UID, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// client resolves the core assigned to doc.
func (idx *Indexer) client(ctx context.Context, doc *models.Document) (*solr.Client, error) {
	if doc.CoreUID == 0 {
		return nil, fmt.Errorf("%w: uid %d", ErrNoCoreAssigned, doc.UID)
	}
	core, err := idx.storage.FindCore(ctx, doc.CoreUID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &solr.Error{Op: solr.OpOpenCore, Err: solr.ErrCoreNotFound}
	}
	if err != nil {
		return nil, fmt.Errorf("find core %d: %w", doc.CoreUID, err)
	}
	client := idx.engine.Instance(core.IndexName)
	if client.Core() == "" {
		return nil, &solr.Error{Op: solr.OpOpenCore, Core: core.IndexName, Err: solr.ErrCoreNotFound}
	}
	return client, nil
}

// ToplevelID is the id of doc's toplevel record: the document uid followed by the
// structure's own id, so documents sharing one structure file keep apart.
func ToplevelID(doc *models.Document) string {
	return uidPrefix(doc) + doc.Structure().ToplevelID()
}

func uidPrefix(doc *models.Document) string {
	return strconv.FormatInt(doc.UID, 10) + ":"
}

// BuildRecords flattens doc's attached structure. The first record is the toplevel
// record; page records follow in page order and link to it through ParentID
// with ids of the form <toplevelId>_<order>.
func BuildRecords(doc *models.Document, collections []string) []solr.Record {
	s := doc.Structure()
	title := s.Title()
	if title == "" {
		title = doc.Title
	}
	top := solr.Record{
		ID:          ToplevelID(doc),
		Toplevel:    true,
		UID:         doc.UID,
		PID:         doc.PID,
		Title:       title,
		Type:        s.Logical.Type,
		RecordID:    s.RecordID,
		Location:    doc.Location,
		Collections: collections,
		Metadata:    s.Logical.Metadata,
	}
	pages := s.FulltextPages()
	records := make([]solr.Record, 0, len(pages)+1)
	records = append(records, top)
	for _, p := range pages {
		records = append(records, solr.Record{
			ID:          uidPrefix(doc) + s.PageRecordID(p),
			ParentID:    top.ID,
			UID:         doc.UID,
			PID:         doc.PID,
			RecordID:    s.RecordID,
			Collections: collections,
			Page:        p.Order,
			Fulltext:    p.Fulltext,
		})
	}
	return records
}
