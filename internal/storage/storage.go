// Package storage defines the relational store for documents, collections, libraries and cores.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/dlf/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// Storage defines relational persistence operations.
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	FindDocument(ctx context.Context, uid int64) (*models.Document, error)
	FindDocumentInPid(ctx context.Context, uid, pid int64) (*models.Document, error)
	FindOldestDocument(ctx context.Context) (*models.Document, error)
	FindDocumentsByLocation(ctx context.Context, location string) ([]*models.Document, error)
	SetDocumentCore(ctx context.Context, documentUID, coreUID int64) error

	// Collection operations
	CreateCollection(ctx context.Context, c *models.Collection) error
	AddDocumentToCollection(ctx context.Context, documentUID, collectionUID int64) error
	CollectionsOfDocument(ctx context.Context, documentUID int64) ([]*models.Collection, error)
	FindCollectionsByIndexNames(ctx context.Context, names []string) ([]*models.Collection, error)

	// Library and core operations
	CreateLibrary(ctx context.Context, l *models.Library) error
	CreateCore(ctx context.Context, c *models.Core) error
	FindCore(ctx context.Context, uid int64) (*models.Core, error)

	// Stats
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
