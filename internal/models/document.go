// Package models defines the relational entities: documents, collections, libraries and search cores.
package models

import (
	"context"
	"time"

	"github.com/hyperjump/dlf/internal/structure"
)

// CollectionLoader loads the collections a document belongs to.
type CollectionLoader interface {
	CollectionsOfDocument(ctx context.Context, documentUID int64) ([]*Collection, error)
}

// Document is a digitized work as stored in the relational store.
// Collections are loaded on first use; the parsed structure is attached at runtime
// before indexing and never persisted.
type Document struct {
	UID            int64     `json:"uid" db:"uid"`
	PID            int64     `json:"pid" db:"pid"`
	Title          string    `json:"title" db:"title"`
	Location       string    `json:"location" db:"location"`
	RecordID       string    `json:"record_id" db:"record_id"`
	DocumentFormat string    `json:"document_format" db:"document_format"`
	OwnerUID       int64     `json:"owner_uid" db:"owner"`
	CoreUID        int64     `json:"core_uid" db:"solrcore"`
	CreatedAt      time.Time `json:"created_at" db:"crdate"`

	Owner *Library `json:"owner,omitempty" db:"-"`

	collectionLoader CollectionLoader
	collections      []*Collection
	collectionsReady bool
	structure        *structure.Structure
}

// SetCollectionLoader sets the source used by Collections. Storage implementations
// call this when they materialize a document.
func (d *Document) SetCollectionLoader(l CollectionLoader) {
	d.collectionLoader = l
	d.collections = nil
	d.collectionsReady = false
}

// SetCollections replaces the collection set without consulting the loader.
func (d *Document) SetCollections(c []*Collection) {
	d.collections = c
	d.collectionsReady = true
}

// Collections returns the document's collections, loading them once.
// A failed load is not cached.
func (d *Document) Collections(ctx context.Context) ([]*Collection, error) {
	if d.collectionsReady {
		return d.collections, nil
	}
	if d.collectionLoader == nil {
		return nil, nil
	}
	c, err := d.collectionLoader.CollectionsOfDocument(ctx, d.UID)
	if err != nil {
		return nil, err
	}
	d.SetCollections(c)
	return c, nil
}

// SetStructure attaches the parsed structure used for indexing.
func (d *Document) SetStructure(s *structure.Structure) { d.structure = s }

// Structure returns the attached parsed structure, or nil.
func (d *Document) Structure() *structure.Structure { return d.structure }
