// Package structure defines the parsed logical/physical structure of a digitized document.
package structure

import (
	"context"
	"strconv"
	"strings"
)

// DefaultFormat is the document format assumed when a structure does not name one.
const DefaultFormat = "METS"

// Structure is a parsed document: one logical root carrying document-level metadata
// and the ordered physical pages, each optionally carrying fulltext.
type Structure struct {
	RecordID string       `yaml:"record_id" json:"record_id"`
	Format   string       `yaml:"format" json:"format"`
	Location string       `yaml:"-" json:"-"`
	Logical  *LogicalUnit `yaml:"logical" json:"logical"`
	Pages    []*Page      `yaml:"pages" json:"pages"`
}

// LogicalUnit is the logical root of a document.
type LogicalUnit struct {
	ID       string              `yaml:"id" json:"id"`
	Type     string              `yaml:"type" json:"type"`
	Title    string              `yaml:"title" json:"title"`
	Metadata map[string][]string `yaml:"metadata" json:"metadata"`
}

// Page is a physical page. Order is the stable position used in page record ids.
type Page struct {
	ID           string `yaml:"id" json:"id"`
	Order        int    `yaml:"order" json:"order"`
	Label        string `yaml:"label" json:"label"`
	Fulltext     string `yaml:"fulltext" json:"fulltext"`
	FulltextFile string `yaml:"fulltext_file" json:"fulltext_file"`
}

// HasFulltext reports whether the page carries non-blank text.
func (p *Page) HasFulltext() bool {
	return strings.TrimSpace(p.Fulltext) != ""
}

// ToplevelID returns the structure's id for its logical root. The record id prefix
// keeps ids of different structures apart; the indexer adds the document uid.
func (s *Structure) ToplevelID() string {
	if s.Logical == nil {
		return s.RecordID
	}
	return s.RecordID + s.Logical.ID
}

// PageRecordID returns the id of the record for page p: <toplevelId>_<order>.
func (s *Structure) PageRecordID(p *Page) string {
	return s.ToplevelID() + "_" + strconv.Itoa(p.Order)
}

// Title returns the logical root title, falling back to the "title" metadata field.
func (s *Structure) Title() string {
	if s.Logical == nil {
		return ""
	}
	if s.Logical.Title != "" {
		return s.Logical.Title
	}
	if v := s.Logical.Metadata["title"]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// FulltextPages returns the pages with non-blank fulltext, in page order.
func (s *Structure) FulltextPages() []*Page {
	var out []*Page
	for _, p := range s.Pages {
		if p.HasFulltext() {
			out = append(out, p)
		}
	}
	return out
}

// Loader produces a Structure for a document location.
type Loader interface {
	Load(ctx context.Context, location string) (*Structure, error)
}
