// Package cli provides output helpers for the dlf command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/dlf/internal/search"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// SearchHit is the serialized form of one result position.
type SearchHit struct {
	Position int     `json:"position"`
	ID       string  `json:"id"`
	UID      int64   `json:"uid"`
	Toplevel bool    `json:"toplevel"`
	Hydrated bool    `json:"hydrated"`
	Title    string  `json:"title,omitempty"`
	Page     int     `json:"page,omitempty"`
	Location string  `json:"location,omitempty"`
	Score    float64 `json:"score"`
}

// SearchOutput is the serialized form of a result set.
type SearchOutput struct {
	Query      string      `json:"query"`
	NumFound   int         `json:"numFound"`
	Count      int         `json:"count"`
	Hits       []SearchHit `json:"hits"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// NewSearchOutput resolves every position of rs.
func NewSearchOutput(ctx context.Context, query string, rs *search.ResultSet) *SearchOutput {
	out := &SearchOutput{
		Query:    query,
		NumFound: rs.NumFound(),
		Count:    rs.Count(),
		Hits:     make([]SearchHit, 0, rs.Len()),
	}
	for _, hit := range rs.All(ctx) {
		h := SearchHit{
			Position: hit.Position,
			ID:       hit.Record.ID,
			UID:      hit.UID(),
			Toplevel: hit.Toplevel(),
			Hydrated: hit.Hydrated(),
			Title:    hit.Title(),
			Page:     hit.Record.Page,
			Location: hit.Record.Location,
			Score:    hit.Record.Score,
		}
		if hit.Document != nil {
			h.Location = hit.Document.Location
		}
		out.Hits = append(out.Hits, h)
	}
	return out
}

// WriteSearchResults writes results to w in the given format.
// Unknown formats fall back to text.
func WriteSearchResults(w io.Writer, out *SearchOutput, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		writeSearchResultsText(w, out)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, out *SearchOutput) {
	fmt.Fprintf(w, "\nFound %d records, %d documents on this page\n\n", out.NumFound, out.Count)
	if out.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean: %s\n\n", out.Suggestion)
	}
	for _, hit := range out.Hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		if hit.Toplevel {
			fmt.Fprintf(w, "[%d] Document %d | Score: %.4f\n", hit.Position, hit.UID, hit.Score)
		} else {
			fmt.Fprintf(w, "[%d] Document %d, page %d | Score: %.4f\n", hit.Position, hit.UID, hit.Page, hit.Score)
		}
		fmt.Fprintf(w, "ID: %s\n", hit.ID)
		if hit.Title != "" {
			fmt.Fprintf(w, "Title: %s\n", Truncate(hit.Title, 120))
		}
		if hit.Location != "" {
			fmt.Fprintf(w, "Location: %s\n", hit.Location)
		}
		if hit.Toplevel && !hit.Hydrated {
			fmt.Fprintln(w, "(not in storage scope)")
		}
		fmt.Fprintln(w)
	}
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
