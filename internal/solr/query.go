package solr

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// DefaultRows is used when a query does not set Rows.
const DefaultRows = 10

// Query describes one search against a core.
type Query struct {
	// Q is the free-text query. Empty, "*" and "*:*" match everything.
	Q string
	// Fulltext extends Q to page fulltext in addition to document metadata.
	Fulltext bool
	// Filters are combined with AND and do not affect scoring.
	Filters []Filter
	// Sort lists fields in bleve sort syntax ("-title", "_score"). Empty means relevance.
	Sort  []string
	Start int
	Rows  int
	// CollapseUID returns one record per document uid, preferring the toplevel record.
	// Paging applies to the collapsed list; NumFound still counts every match.
	CollapseUID bool
}

// MatchAll reports whether Q selects every record.
func (q Query) MatchAll() bool {
	s := strings.TrimSpace(q.Q)
	return s == "" || s == "*" || s == "*:*"
}

func (q Query) rows() int {
	if q.Rows <= 0 {
		return DefaultRows
	}
	return q.Rows
}

// Filter is a structured restriction on a single field.
type Filter struct {
	Field  string
	values []string
	number *float64
	flag   *bool
}

// Term matches records whose keyword field equals value exactly.
func Term(field, value string) Filter {
	return Filter{Field: field, values: []string{value}}
}

// AnyOf matches records whose keyword field equals any of values.
func AnyOf(field string, values ...string) Filter {
	return Filter{Field: field, values: values}
}

// Number matches records whose numeric field equals n.
func Number(field string, n int64) Filter {
	f := float64(n)
	return Filter{Field: field, number: &f}
}

// Bool matches records whose boolean field equals b.
func Bool(field string, b bool) Filter {
	return Filter{Field: field, flag: &b}
}

func (f Filter) query() blevequery.Query {
	switch {
	case f.number != nil:
		incl := true
		q := bleve.NewNumericRangeInclusiveQuery(f.number, f.number, &incl, &incl)
		q.SetField(f.Field)
		return q
	case f.flag != nil:
		q := bleve.NewBoolFieldQuery(*f.flag)
		q.SetField(f.Field)
		return q
	case len(f.values) == 1:
		q := bleve.NewTermQuery(f.values[0])
		q.SetField(f.Field)
		return q
	case len(f.values) == 0:
		// An empty OR matches nothing.
		return bleve.NewMatchNoneQuery()
	}
	terms := make([]blevequery.Query, len(f.values))
	for i, v := range f.values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(f.Field)
		terms[i] = tq
	}
	return bleve.NewDisjunctionQuery(terms...)
}

// build turns q into a bleve query. Free text is matched against the composite
// field, which holds the title and metadata of toplevel records.
func (q Query) build() blevequery.Query {
	var text blevequery.Query
	if q.MatchAll() {
		text = bleve.NewMatchAllQuery()
	} else {
		meta := bleve.NewMatchQuery(q.Q)
		if q.Fulltext {
			ft := bleve.NewMatchQuery(q.Q)
			ft.SetField(FieldFulltext)
			text = bleve.NewDisjunctionQuery(meta, ft)
		} else {
			text = meta
		}
	}
	if len(q.Filters) == 0 {
		return text
	}
	parts := []blevequery.Query{text}
	for _, f := range q.Filters {
		parts = append(parts, f.query())
	}
	return bleve.NewConjunctionQuery(parts...)
}

// collapse keeps one record per uid in first-seen order. The toplevel record of a
// group replaces an earlier page hit of the same document.
func collapse(records []Record) []Record {
	pos := make(map[int64]int, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		i, seen := pos[r.UID]
		if !seen {
			pos[r.UID] = len(out)
			out = append(out, r)
			continue
		}
		if r.Toplevel && !out[i].Toplevel {
			out[i] = r
		}
	}
	return out
}

func page(records []Record, start, rows int) []Record {
	if start < 0 {
		start = 0
	}
	if start >= len(records) {
		return nil
	}
	end := start + rows
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}
