package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/dlf/internal/models"
	"github.com/hyperjump/dlf/internal/search"
	"github.com/hyperjump/dlf/internal/solr"
	"github.com/hyperjump/dlf/internal/storage"
)

type mapHydrator map[int64]*models.Document

func (m mapHydrator) FindDocumentInPid(_ context.Context, uid, pid int64) (*models.Document, error) {
	if d, ok := m[uid]; ok && d.PID == pid {
		return d, nil
	}
	return nil, storage.ErrNotFound
}

func testOutput(t *testing.T) *SearchOutput {
	t.Helper()
	raw := &solr.Result{
		NumFound: 4,
		Documents: []solr.Record{
			{ID: "LOG_0000", Toplevel: true, UID: 1001, PID: 20000, Title: "Dresdner Hefte", Score: 0.9},
			{ID: "PHYS_0002", ParentID: "LOG_1", UID: 1002, PID: 20000, Page: 2, Score: 0.5},
			{ID: "LOG_2", Toplevel: true, UID: 1003, PID: 20000, Location: "/data/1003.yaml"},
		},
	}
	h := mapHydrator{1001: {UID: 1001, PID: 20000, Title: "Stored", Location: "/data/1001.yaml"}}
	rs := search.NewResultSet(raw, h, search.Settings{Core: "dlfCore0", StoragePID: 20000}, nil)
	return NewSearchOutput(context.Background(), "dresden", rs)
}

func TestNewSearchOutput(t *testing.T) {
	out := testOutput(t)
	if out.NumFound != 4 || out.Count != 2 || len(out.Hits) != 3 {
		t.Fatalf("got numFound=%d count=%d hits=%d", out.NumFound, out.Count, len(out.Hits))
	}
	if !out.Hits[0].Hydrated || out.Hits[0].Location != "/data/1001.yaml" || out.Hits[0].Title != "Dresdner Hefte" {
		t.Errorf("hydrated hit: %+v", out.Hits[0])
	}
	if out.Hits[1].Hydrated || out.Hits[1].Toplevel || out.Hits[1].Page != 2 {
		t.Errorf("page hit: %+v", out.Hits[1])
	}
	if out.Hits[2].Hydrated || out.Hits[2].Location != "/data/1003.yaml" {
		t.Errorf("unhydrated hit: %+v", out.Hits[2])
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	out := testOutput(t)
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, out, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded SearchOutput
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "dresden" || decoded.NumFound != 4 || len(decoded.Hits) != 3 {
		t.Errorf("decoded: %+v", decoded)
	}
	if decoded.Hits[0].ID != "LOG_0000" || decoded.Hits[0].UID != 1001 {
		t.Errorf("decoded first hit: %+v", decoded.Hits[0])
	}
}

func TestWriteSearchResults_JSON_empty(t *testing.T) {
	rs := search.NewResultSet(nil, mapHydrator{}, search.Settings{}, nil)
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, NewSearchOutput(context.Background(), "", rs), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	if !strings.Contains(buf.String(), `"hits": []`) {
		t.Errorf("empty hits should encode as []: %s", buf.String())
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, testOutput(t), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	text := buf.String()
	for _, sub := range []string{
		"Found 4 records, 2 documents",
		"[0] Document 1001",
		"Title: Dresdner Hefte",
		"Location: /data/1001.yaml",
		"[1] Document 1002, page 2",
		"(not in storage scope)",
	} {
		if !strings.Contains(text, sub) {
			t.Errorf("text output missing %q:\n%s", sub, text)
		}
	}
}

func TestWriteSearchResults_suggestion(t *testing.T) {
	out := &SearchOutput{Query: "Dresdnr", Suggestion: "dresdner"}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, out, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Did you mean: dresdner") {
		t.Errorf("text output:\n%s", buf.String())
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, testOutput(t), SearchOutputFormat("unknown")); err != nil {
		t.Fatalf("WriteSearchResults(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "Found") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"empty", "", 5, ""},
		{"short", "hi", 5, "hi"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"multibyte", "Sächsische Volkskunde", 4, "Säch..."},
		{"maxLen zero", "ab", 0, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}
