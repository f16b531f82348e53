package solr

import (
	"fmt"
	"sort"
	"strings"
)

// Field names written to every core.
const (
	FieldID         = "id"
	FieldParentID   = "parent_id"
	FieldToplevel   = "toplevel"
	FieldUID        = "uid"
	FieldPID        = "pid"
	FieldTitle      = "title"
	FieldType       = "type"
	FieldRecordID   = "record_id"
	FieldLocation   = "location"
	FieldCollection = "collection"
	FieldPage       = "page"
	FieldFulltext   = "fulltext"
	fieldMetadata   = "metadata"
)

// Record is a flat search record. A toplevel record represents a whole document;
// any other record is a page of the document named by ParentID and UID.
type Record struct {
	ID          string
	ParentID    string
	Toplevel    bool
	UID         int64
	PID         int64
	Title       string
	Type        string
	RecordID    string
	Location    string
	Collections []string
	Page        int
	Fulltext    string
	Metadata    map[string][]string

	// Score is the relevance score of a query hit; zero on submitted records.
	Score float64
}

func (r *Record) validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if !r.Toplevel && r.ParentID == "" {
		return fmt.Errorf("%w: page record %s has no parent", ErrInvalidRecord, r.ID)
	}
	return nil
}

// fields returns the document handed to the index. Empty values are omitted.
func (r *Record) fields() map[string]interface{} {
	f := map[string]interface{}{
		FieldID:       r.ID,
		FieldToplevel: r.Toplevel,
		FieldUID:      float64(r.UID),
		FieldPID:      float64(r.PID),
	}
	putString(f, FieldParentID, r.ParentID)
	putString(f, FieldTitle, r.Title)
	putString(f, FieldType, r.Type)
	putString(f, FieldRecordID, r.RecordID)
	putString(f, FieldLocation, r.Location)
	putString(f, FieldFulltext, r.Fulltext)
	if len(r.Collections) > 0 {
		f[FieldCollection] = r.Collections
	}
	if r.Page > 0 {
		f[FieldPage] = float64(r.Page)
	}
	if len(r.Metadata) > 0 {
		f[fieldMetadata] = r.Metadata
	}
	return f
}

func putString(f map[string]interface{}, key, v string) {
	if v != "" {
		f[key] = v
	}
}

// recordFromFields rebuilds a Record from stored hit fields.
func recordFromFields(id string, score float64, f map[string]interface{}) Record {
	r := Record{
		ID:          id,
		ParentID:    asString(f[FieldParentID]),
		Toplevel:    asBool(f[FieldToplevel]),
		UID:         int64(asFloat(f[FieldUID])),
		PID:         int64(asFloat(f[FieldPID])),
		Title:       asString(f[FieldTitle]),
		Type:        asString(f[FieldType]),
		RecordID:    asString(f[FieldRecordID]),
		Location:    asString(f[FieldLocation]),
		Collections: asStrings(f[FieldCollection]),
		Page:        int(asFloat(f[FieldPage])),
		Fulltext:    asString(f[FieldFulltext]),
		Score:       score,
	}
	prefix := fieldMetadata + "."
	for k, v := range f {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if r.Metadata == nil {
			r.Metadata = make(map[string][]string)
		}
		r.Metadata[strings.TrimPrefix(k, prefix)] = asStrings(v)
	}
	return r
}

// Field returns a named value the way a raw engine response exposes it, so callers
// can inspect records without knowing the struct layout. Metadata fields are
// addressed by their bare name.
func (r *Record) Field(name string) (interface{}, bool) {
	switch name {
	case FieldID:
		return r.ID, true
	case FieldParentID:
		return r.ParentID, r.ParentID != ""
	case FieldToplevel:
		return r.Toplevel, true
	case FieldUID:
		return r.UID, true
	case FieldPID:
		return r.PID, true
	case FieldTitle:
		return r.Title, r.Title != ""
	case FieldType:
		return r.Type, r.Type != ""
	case FieldRecordID:
		return r.RecordID, r.RecordID != ""
	case FieldLocation:
		return r.Location, r.Location != ""
	case FieldCollection:
		return r.Collections, len(r.Collections) > 0
	case FieldPage:
		return r.Page, r.Page > 0
	case FieldFulltext:
		return r.Fulltext, r.Fulltext != ""
	}
	v, ok := r.Metadata[name]
	return v, ok
}

// MetadataKeys returns the metadata field names in sorted order.
func (r *Record) MetadataKeys() []string {
	keys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			return asString(t[0])
		}
	}
	return ""
}

func asStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case []interface{}:
		if len(t) > 0 {
			return asFloat(t[0])
		}
	}
	return 0
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "T" || t == "true"
	case []interface{}:
		if len(t) > 0 {
			return asBool(t[0])
		}
	}
	return false
}
