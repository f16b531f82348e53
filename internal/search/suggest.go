package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/hyperjump/dlf/internal/solr"
	"go.uber.org/zap"
)

// Suggestion is a dictionary term close to a query term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// SpellCheck is the result of checking a query against a core's dictionary.
type SpellCheck struct {
	Query           string       `json:"query"`
	CorrectedQuery  string       `json:"corrected_query"`
	Suggestions     []Suggestion `json:"suggestions"`
	MisspelledTerms []string     `json:"misspelled_terms"`
	HasCorrections  bool         `json:"has_corrections"`
}

// dictionary is a core's term list, valid while the core holds records records.
type dictionary struct {
	records uint64
	terms   map[string]int
}

// Suggester proposes corrections for query terms missing from a core's title
// and fulltext dictionaries.
type Suggester struct {
	engine         *solr.Engine
	logger         *zap.Logger
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu    sync.Mutex
	cache map[string]*dictionary
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithSuggesterLogger sets the suggester logger.
func WithSuggesterLogger(l *zap.Logger) SuggesterOption {
	return func(s *Suggester) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum document frequency of a suggested term.
func WithMinFrequency(f int) SuggesterOption {
	return func(s *Suggester) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the number of suggestions kept per term.
func WithMaxSuggestions(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSuggester creates a suggester over engine's cores.
func NewSuggester(engine *solr.Engine, opts ...SuggesterOption) *Suggester {
	s := &Suggester{
		engine:         engine,
		logger:         zap.NewNop(),
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		cache:          make(map[string]*dictionary),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check looks up every query term in core's dictionary and proposes the closest
// known term for each unknown one.
func (s *Suggester) Check(ctx context.Context, core, query string) (*SpellCheck, error) {
	terms, err := s.dictionary(ctx, core)
	if err != nil {
		return nil, err
	}
	result := &SpellCheck{
		Query:           query,
		Suggestions:     []Suggestion{},
		MisspelledTerms: []string{},
	}
	words := tokenize(query)
	corrected := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := terms[w]; ok {
			corrected = append(corrected, w)
			continue
		}
		suggestions := s.suggest(terms, w)
		if len(suggestions) == 0 {
			corrected = append(corrected, w)
			continue
		}
		result.HasCorrections = true
		result.MisspelledTerms = append(result.MisspelledTerms, w)
		result.Suggestions = append(result.Suggestions, suggestions...)
		corrected = append(corrected, suggestions[0].Term)
	}
	result.CorrectedQuery = strings.Join(corrected, " ")
	s.logger.Debug("spell check",
		zap.String("core", core),
		zap.String("query", query),
		zap.String("corrected", result.CorrectedQuery))
	return result, nil
}

// Correct returns the corrected query, or "" when every term is known.
func (s *Suggester) Correct(ctx context.Context, core, query string) string {
	res, err := s.Check(ctx, core, query)
	if err != nil {
		s.logger.Debug("spell check failed", zap.String("core", core), zap.Error(err))
		return ""
	}
	if !res.HasCorrections {
		return ""
	}
	return res.CorrectedQuery
}

func (s *Suggester) suggest(terms map[string]int, word string) []Suggestion {
	var out []Suggestion
	n := len([]rune(word))
	for term, freq := range terms {
		if freq < s.minFreq {
			continue
		}
		diff := len([]rune(term)) - n
		if diff < 0 {
			diff = -diff
		}
		if diff > s.maxDistance {
			continue
		}
		d := editDistance(word, term)
		if d == 0 || d > s.maxDistance {
			continue
		}
		out = append(out, Suggestion{
			Term:      term,
			Distance:  d,
			Frequency: freq,
			Score:     float64(freq) / float64(d+1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}

// dictionary returns core's terms, re-reading them when the record count changed.
func (s *Suggester) dictionary(ctx context.Context, core string) (map[string]int, error) {
	client := s.engine.Instance(core)
	records, err := client.Count()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	d, ok := s.cache[core]
	s.mu.Unlock()
	if ok && d.records == records {
		return d.terms, nil
	}
	terms, err := client.Terms(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[core] = &dictionary{records: records, terms: terms}
	s.mu.Unlock()
	return terms, nil
}

// tokenize lowercases query and splits it on anything but letters and digits.
// Wildcard-only queries yield no terms.
func tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// editDistance is the Damerau-Levenshtein distance over runes: insertions,
// deletions, substitutions and adjacent transpositions each cost one.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	d := make([][]int, len(ra)+1)
	for i := range d {
		d[i] = make([]int, len(rb)+1)
		d[i][0] = i
	}
	for j := range d[0] {
		d[0][j] = j
	}
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			d[i][j] = min(d[i-1][j]+1, d[i][j-1]+1, d[i-1][j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				d[i][j] = min(d[i][j], d[i-2][j-2]+cost)
			}
		}
	}
	return d[len(ra)][len(rb)]
}
