package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// StructureChanged re-indexes the documents located at path, stored either as a
// plain path or as a file:// URI.
func (idx *Indexer) StructureChanged(ctx context.Context, path string) error {
	var errs []error
	for _, loc := range locations(path) {
		n, err := idx.IndexLocation(ctx, loc)
		if err != nil {
			errs = append(errs, err)
		}
		if n > 0 {
			idx.logger.Info("Re-indexed documents", zap.String("location", loc), zap.Int("documents", n))
		}
	}
	return errors.Join(errs...)
}

// StructureRemoved deletes the records of the documents located at path.
// The documents themselves stay in storage.
func (idx *Indexer) StructureRemoved(ctx context.Context, path string) error {
	var errs []error
	for _, loc := range locations(path) {
		docs, err := idx.storage.FindDocumentsByLocation(ctx, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("find documents: %w", err))
			continue
		}
		for _, doc := range docs {
			if doc.CoreUID == 0 {
				continue
			}
			if err := idx.Delete(ctx, doc); err != nil {
				errs = append(errs, fmt.Errorf("document %d: %w", doc.UID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func locations(path string) []string {
	return []string{path, "file://" + path}
}
