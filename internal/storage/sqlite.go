// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/dlf/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS libraries (
		uid INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL DEFAULT '',
		index_name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS collections (
		uid INTEGER PRIMARY KEY AUTOINCREMENT,
		pid INTEGER NOT NULL DEFAULT 0,
		label TEXT NOT NULL DEFAULT '',
		index_name TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_collections_index_name ON collections(index_name);

	CREATE TABLE IF NOT EXISTS solrcores (
		uid INTEGER PRIMARY KEY AUTOINCREMENT,
		pid INTEGER NOT NULL DEFAULT 0,
		label TEXT NOT NULL DEFAULT '',
		index_name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS documents (
		uid INTEGER PRIMARY KEY AUTOINCREMENT,
		pid INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		record_id TEXT NOT NULL DEFAULT '',
		document_format TEXT NOT NULL DEFAULT '',
		owner INTEGER NOT NULL DEFAULT 0,
		solrcore INTEGER NOT NULL DEFAULT 0,
		crdate TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_pid ON documents(pid);
	CREATE INDEX IF NOT EXISTS idx_documents_location ON documents(location);

	CREATE TABLE IF NOT EXISTS documents_collections_mm (
		uid_local INTEGER NOT NULL,
		uid_foreign INTEGER NOT NULL,
		sorting INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (uid_local, uid_foreign)
	);
	`
	_, err := db.Exec(schema)
	return err
}

const documentColumns = `uid, pid, title, location, record_id, document_format, owner, solrcore, crdate`

// CreateDocument inserts a document. A zero UID is assigned by the database;
// a non-zero UID is kept, which lets fixtures use stable identifiers.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.UID, doc.PID, doc.Title, doc.Location, doc.RecordID, doc.DocumentFormat,
		doc.OwnerUID, doc.CoreUID, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	doc.UID = id
	doc.SetCollectionLoader(s)
	return nil
}

// FindDocument returns the document with uid, in any storage scope.
func (s *SQLiteStorage) FindDocument(ctx context.Context, uid int64) (*models.Document, error) {
	return s.getDocument(ctx, `SELECT `+documentColumns+` FROM documents WHERE uid = ?`, uid)
}

// FindDocumentInPid returns the document with uid only if it lives in storage scope pid.
func (s *SQLiteStorage) FindDocumentInPid(ctx context.Context, uid, pid int64) (*models.Document, error) {
	return s.getDocument(ctx, `SELECT `+documentColumns+` FROM documents WHERE uid = ? AND pid = ?`, uid, pid)
}

// FindOldestDocument returns the document created first.
func (s *SQLiteStorage) FindOldestDocument(ctx context.Context) (*models.Document, error) {
	return s.getDocument(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY crdate ASC, uid ASC LIMIT 1`)
}

// FindDocumentsByLocation returns all documents whose structure lives at location.
func (s *SQLiteStorage) FindDocumentsByLocation(ctx context.Context, location string) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.db.SelectContext(ctx, &docs,
		`SELECT `+documentColumns+` FROM documents WHERE location = ? ORDER BY uid`, location)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if err := s.attach(ctx, d); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func (s *SQLiteStorage) getDocument(ctx context.Context, query string, args ...interface{}) (*models.Document, error) {
	var doc models.Document
	err := s.db.GetContext(ctx, &doc, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.attach(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// attach wires lazy collections and loads the owning library.
func (s *SQLiteStorage) attach(ctx context.Context, doc *models.Document) error {
	doc.SetCollectionLoader(s)
	if doc.OwnerUID == 0 {
		return nil
	}
	var lib models.Library
	err := s.db.GetContext(ctx, &lib, `SELECT uid, label, index_name FROM libraries WHERE uid = ?`, doc.OwnerUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}
	doc.Owner = &lib
	return nil
}

// SetDocumentCore assigns the search core a document is indexed into.
func (s *SQLiteStorage) SetDocumentCore(ctx context.Context, documentUID, coreUID int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET solrcore = ? WHERE uid = ?`, coreUID, documentUID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("document %d: %w", documentUID, ErrNotFound)
	}
	return nil
}

// CreateCollection inserts a collection.
func (s *SQLiteStorage) CreateCollection(ctx context.Context, c *models.Collection) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (uid, pid, label, index_name) VALUES (NULLIF(?, 0), ?, ?, ?)`,
		c.UID, c.PID, c.Label, c.IndexName,
	)
	if err != nil {
		return fmt.Errorf("insert collection: %w", err)
	}
	c.UID, err = res.LastInsertId()
	return err
}

// AddDocumentToCollection links a document to a collection. Linking twice is a no-op.
func (s *SQLiteStorage) AddDocumentToCollection(ctx context.Context, documentUID, collectionUID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO documents_collections_mm (uid_local, uid_foreign, sorting)
		 VALUES (?, ?, (SELECT COUNT(*) FROM documents_collections_mm WHERE uid_local = ?))`,
		documentUID, collectionUID, documentUID,
	)
	return err
}

// CollectionsOfDocument returns the collections of a document in link order.
func (s *SQLiteStorage) CollectionsOfDocument(ctx context.Context, documentUID int64) ([]*models.Collection, error) {
	var out []*models.Collection
	err := s.db.SelectContext(ctx, &out,
		`SELECT c.uid, c.pid, c.label, c.index_name
		 FROM collections c
		 JOIN documents_collections_mm mm ON mm.uid_foreign = c.uid
		 WHERE mm.uid_local = ?
		 ORDER BY mm.sorting, c.uid`,
		documentUID,
	)
	return out, err
}

// FindCollectionsByIndexNames returns the collections with the given index names,
// ordered as names. Unknown names are skipped.
func (s *SQLiteStorage) FindCollectionsByIndexNames(ctx context.Context, names []string) ([]*models.Collection, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT uid, pid, label, index_name FROM collections WHERE index_name IN (?)`, names)
	if err != nil {
		return nil, err
	}
	var found []*models.Collection
	if err := s.db.SelectContext(ctx, &found, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	byName := make(map[string]*models.Collection, len(found))
	for _, c := range found {
		if _, ok := byName[c.IndexName]; !ok {
			byName[c.IndexName] = c
		}
	}
	out := make([]*models.Collection, 0, len(found))
	for _, n := range names {
		if c, ok := byName[n]; ok {
			out = append(out, c)
			delete(byName, n)
		}
	}
	return out, nil
}

// CreateLibrary inserts a library.
func (s *SQLiteStorage) CreateLibrary(ctx context.Context, l *models.Library) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO libraries (uid, label, index_name) VALUES (NULLIF(?, 0), ?, ?)`,
		l.UID, l.Label, l.IndexName,
	)
	if err != nil {
		return fmt.Errorf("insert library: %w", err)
	}
	l.UID, err = res.LastInsertId()
	return err
}

// CreateCore inserts a search core record.
func (s *SQLiteStorage) CreateCore(ctx context.Context, c *models.Core) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO solrcores (uid, pid, label, index_name) VALUES (NULLIF(?, 0), ?, ?, ?)`,
		c.UID, c.PID, c.Label, c.IndexName,
	)
	if err != nil {
		return fmt.Errorf("insert core: %w", err)
	}
	c.UID, err = res.LastInsertId()
	return err
}

// FindCore returns the search core record with uid.
func (s *SQLiteStorage) FindCore(ctx context.Context, uid int64) (*models.Core, error) {
	var c models.Core
	err := s.db.GetContext(ctx, &c, `SELECT uid, pid, label, index_name FROM solrcores WHERE uid = ?`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountDocuments returns the total number of documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM documents`)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
