package structure

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperjump/dlf/internal/extract"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedLocation is returned for locations the loader cannot resolve.
	ErrUnsupportedLocation = errors.New("unsupported structure location")
	// ErrDuplicatePageOrder is returned when two pages share an order.
	ErrDuplicatePageOrder = errors.New("duplicate page order")
)

// FileLoader reads structure descriptions (YAML or JSON) from the local filesystem.
// Page fulltext may be given inline or as a fulltext_file relative to the structure file.
type FileLoader struct {
	extractor *extract.Extractor
}

// NewFileLoader returns a FileLoader. extractor may be nil; fulltext files are then
// read as plain text.
func NewFileLoader(extractor *extract.Extractor) *FileLoader {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	return &FileLoader{extractor: extractor}
}

// Load reads and parses the structure at location (a path or file:// URI).
func (l *FileLoader) Load(ctx context.Context, location string) (*Structure, error) {
	path, err := localPath(location)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read structure: %w", err)
	}
	// YAML is a superset of JSON, so one decoder serves both.
	var s Structure
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse structure %s: %w", path, err)
	}
	if s.Logical == nil {
		return nil, fmt.Errorf("parse structure %s: missing logical root", path)
	}
	if s.Format == "" {
		s.Format = DefaultFormat
	}
	s.Location = location

	// Pages without an order follow the highest explicit one, in file order.
	next := 1
	for _, p := range s.Pages {
		if p.Order >= next {
			next = p.Order + 1
		}
	}
	dir := filepath.Dir(path)
	for _, p := range s.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Order == 0 {
			p.Order = next
			next++
		}
		if p.Fulltext != "" || p.FulltextFile == "" {
			continue
		}
		ftPath := p.FulltextFile
		if !filepath.IsAbs(ftPath) {
			ftPath = filepath.Join(dir, ftPath)
		}
		text, err := l.extractor.Extract(ftPath)
		if err != nil {
			return nil, fmt.Errorf("page %d fulltext: %w", p.Order, err)
		}
		p.Fulltext = text
	}
	sort.SliceStable(s.Pages, func(i, j int) bool { return s.Pages[i].Order < s.Pages[j].Order })
	for i := 1; i < len(s.Pages); i++ {
		if s.Pages[i].Order == s.Pages[i-1].Order {
			return nil, fmt.Errorf("parse structure %s: %w %d", path, ErrDuplicatePageOrder, s.Pages[i].Order)
		}
	}
	return &s, nil
}

func localPath(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("%w: empty location", ErrUnsupportedLocation)
	}
	if !strings.Contains(location, "://") {
		return location, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedLocation, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: scheme %q", ErrUnsupportedLocation, u.Scheme)
	}
	return u.Path, nil
}
