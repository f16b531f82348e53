package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/dlf/internal/config"
	"github.com/hyperjump/dlf/internal/indexer"
	"github.com/hyperjump/dlf/internal/models"
	"github.com/hyperjump/dlf/internal/search"
	"github.com/hyperjump/dlf/internal/solr"
	"github.com/hyperjump/dlf/internal/storage"
	"go.uber.org/zap"
)

const testStructure = `record_id: "533223312"
logical:
  id: LOG_0000
  type: monograph
  title: Dresdner Hefte
pages:
  - id: PHYS_0001
    order: 1
    fulltext: Elbwiesen bei Dresden
  - id: PHYS_0002
    order: 2
    fulltext: Stadtplan
`

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

type testServer struct {
	srv     *Server
	handler http.Handler
	store   *storage.SQLiteStorage
	dir     string
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "dlf.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	engine := solr.NewEngine(filepath.Join(dir, "cores"))
	t.Cleanup(func() { _ = engine.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "dlf.db")
	cfg.Storage.IndexPath = filepath.Join(dir, "cores")

	logger := zap.NewNop()
	repo := search.NewRepository(store, engine, search.WithLogger(logger))
	idx := indexer.NewIndexer(store, engine, indexer.WithLogger(logger))
	opts = append([]Option{WithSuggester(search.NewSuggester(engine))}, opts...)
	srv := NewServer(repo, idx, engine, store, cfg, logger, opts...)
	return &testServer{srv: srv, handler: srv.Routes(), store: store, dir: dir}
}

func (ts *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

// seedIndexed creates a core, a collection and a document, assigns the core and
// indexes the document through the API.
func (ts *testServer) seedIndexed(t *testing.T) *models.Core {
	t.Helper()
	ctx := context.Background()

	w := ts.do(t, http.MethodPost, "/api/v1/cores", map[string]string{"name": "dlfCore0", "label": "Testing Solr Core"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create core: got %d %s", w.Code, w.Body.String())
	}
	var core models.Core
	if err := json.NewDecoder(w.Body).Decode(&core); err != nil {
		t.Fatal(err)
	}

	location := filepath.Join(ts.dir, "533223312.yaml")
	if err := os.WriteFile(location, []byte(testStructure), 0600); err != nil {
		t.Fatal(err)
	}
	doc := &models.Document{UID: 1001, PID: 20000, Title: "Dresdner Hefte", Location: location}
	if err := ts.store.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	coll := &models.Collection{PID: 20000, Label: "Saxonica", IndexName: "saxonica"}
	if err := ts.store.CreateCollection(ctx, coll); err != nil {
		t.Fatal(err)
	}
	if err := ts.store.AddDocumentToCollection(ctx, doc.UID, coll.UID); err != nil {
		t.Fatal(err)
	}

	w = ts.do(t, http.MethodPut, "/api/v1/documents/1001/core", map[string]int64{"core": core.UID})
	if w.Code != http.StatusOK {
		t.Fatalf("assign core: got %d %s", w.Code, w.Body.String())
	}
	w = ts.do(t, http.MethodPost, "/api/v1/documents/1001/index", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("index: got %d %s", w.Code, w.Body.String())
	}
	return &core
}

func decodeSearch(t *testing.T, w *httptest.ResponseRecorder) searchResponse {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("search: got %d %s", w.Code, w.Body.String())
	}
	var out searchResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHandleSearch(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndexed(t)

	out := decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&pid=20000", nil))
	if out.NumFound != 1 || out.Count != 1 || len(out.Hits) != 1 {
		t.Fatalf("listing: got numFound=%d count=%d hits=%d", out.NumFound, out.Count, len(out.Hits))
	}
	hit := out.Hits[0]
	if !hit.Toplevel || !hit.Hydrated || hit.UID != 1001 || hit.Title != "Dresdner Hefte" {
		t.Errorf("hit: %+v", hit)
	}
	if hit.Document == nil || hit.Document.Location == "" {
		t.Errorf("hit document not hydrated: %+v", hit.Document)
	}

	out = decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&pid=20000&query=*", nil))
	if out.NumFound != 3 || out.Count != 1 {
		t.Errorf("match all: got numFound=%d count=%d, want 3 and 1", out.NumFound, out.Count)
	}

	out = decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&query=Elbwiesen", nil))
	if out.NumFound != 0 {
		t.Errorf("metadata only: got numFound=%d, want 0", out.NumFound)
	}
	out = decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&query=Elbwiesen&fulltext=true", nil))
	if out.NumFound != 1 || len(out.Hits) != 1 || out.Hits[0].Toplevel || out.Hits[0].Page != 1 {
		t.Errorf("fulltext: got %+v", out)
	}

	out = decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&collection=saxonica", nil))
	if out.Count != 1 {
		t.Errorf("collection: got count=%d, want 1", out.Count)
	}
	out = decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&pid=1", nil))
	if out.NumFound != 0 || len(out.Hits) != 0 {
		t.Errorf("other pid: got %+v", out)
	}
}

func TestHandleSearch_suggestion(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndexed(t)

	out := decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&query=Dresdnr", nil))
	if out.NumFound != 0 || out.Suggestion != "dresdner" {
		t.Errorf("got numFound=%d suggestion=%q, want 0 and dresdner", out.NumFound, out.Suggestion)
	}
	out = decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&query=Dresdner", nil))
	if out.Suggestion != "" {
		t.Errorf("hits should not carry a suggestion: %q", out.Suggestion)
	}

	w := ts.do(t, http.MethodGet, "/api/v1/suggest?core=dlfCore0&query=Stadtplann", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("suggest: got %d %s", w.Code, w.Body.String())
	}
	var res search.SpellCheck
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if !res.HasCorrections || res.CorrectedQuery != "stadtplan" {
		t.Errorf("suggest: %+v", res)
	}
	if w := ts.do(t, http.MethodGet, "/api/v1/suggest?core=missing&query=x", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown core: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/v1/suggest?core=dlfCore0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("no query: got %d", w.Code)
	}
}

func TestHandleSearch_errors(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndexed(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"no core", "/api/v1/search", http.StatusBadRequest},
		{"unknown core", "/api/v1/search?core=missing", http.StatusNotFound},
		{"unknown collection", "/api/v1/search?core=dlfCore0&collection=nope", http.StatusNotFound},
		{"one unknown collection among known", "/api/v1/search?core=dlfCore0&collection=saxonica,Typo", http.StatusNotFound},
		{"repeated collection params with unknown", "/api/v1/search?core=dlfCore0&collection=saxonica&collection=Typo", http.StatusNotFound},
		{"bad pid", "/api/v1/search?core=dlfCore0&pid=x", http.StatusBadRequest},
		{"bad rows", "/api/v1/search?core=dlfCore0&rows=-1", http.StatusBadRequest},
		{"bad fulltext", "/api/v1/search?core=dlfCore0&fulltext=maybe", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodGet, tt.target, nil)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleSearch_defaultCore(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndexed(t)
	ts.srv.config.Search.DefaultCore = "dlfCore0"
	ts.srv.config.Search.StoragePID = 20000

	out := decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search", nil))
	if out.Count != 1 {
		t.Errorf("got count=%d, want 1", out.Count)
	}
}

func TestHandleDocuments(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndexed(t)

	w := ts.do(t, http.MethodGet, "/api/v1/documents/1001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}
	var doc models.Document
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.UID != 1001 || doc.CoreUID == 0 {
		t.Errorf("document: %+v", doc)
	}

	if w := ts.do(t, http.MethodGet, "/api/v1/documents/9999", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/v1/documents/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad uid: got %d", w.Code)
	}

	if w := ts.do(t, http.MethodDelete, "/api/v1/documents/1001/index", nil); w.Code != http.StatusOK {
		t.Fatalf("unindex: got %d %s", w.Code, w.Body.String())
	}
	out := decodeSearch(t, ts.do(t, http.MethodGet, "/api/v1/search?core=dlfCore0&query=*", nil))
	if out.NumFound != 0 {
		t.Errorf("after unindex: numFound=%d", out.NumFound)
	}
}

func TestHandleIndexDocument_missingStructure(t *testing.T) {
	ts := newTestServer(t)
	doc := &models.Document{UID: 7, PID: 1, Location: filepath.Join(ts.dir, "missing.yaml")}
	if err := ts.store.CreateDocument(context.Background(), doc); err != nil {
		t.Fatal(err)
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/documents/7/index", nil); w.Code == http.StatusOK {
		t.Errorf("missing structure: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPut, "/api/v1/documents/7/core", map[string]int64{"core": 42}); w.Code != http.StatusNotFound {
		t.Errorf("unknown core: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPut, "/api/v1/documents/7/core", map[string]int64{"core_uid": 42}); w.Code != http.StatusBadRequest {
		t.Errorf("body without core: got %d", w.Code)
	}
}

func TestHandleCores(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/v1/cores", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("generated name: got %d %s", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/cores", map[string]string{"name": "../bad"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid name: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/cores", map[string]string{"name": "dlfCore1"}); w.Code != http.StatusCreated {
		t.Fatalf("named: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/cores", map[string]string{"name": "dlfCore1"}); w.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d", w.Code)
	}

	w = ts.do(t, http.MethodGet, "/api/v1/cores", nil)
	var out struct {
		Cores []string `json:"cores"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Cores) != 2 {
		t.Errorf("cores: %v", out.Cores)
	}
}

func TestHandleStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.seedIndexed(t)

	w := ts.do(t, http.MethodGet, "/api/v1/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Documents int64             `json:"documents"`
		Cores     map[string]uint64 `json:"cores"`
		Disk      int64             `json:"disk_usage_bytes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Documents != 1 || out.Cores["dlfCore0"] != 3 || out.Disk <= 0 {
		t.Errorf("status: %+v", out)
	}
}

func TestHandleHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(t, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("health: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/metrics", nil); w.Code != http.StatusOK {
		t.Errorf("metrics: got %d", w.Code)
	}
}

func TestHandleWatchDirectories(t *testing.T) {
	mock := &mockWatchService{dirs: []string{"/tmp/docs"}}
	ts := newTestServer(t, WithWatch(mock, ""))
	cfgPath := filepath.Join(ts.dir, "config.yaml")
	ts.srv.configPath = cfgPath

	w := ts.do(t, http.MethodGet, "/api/v1/watch/directories", nil)
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/docs" {
		t.Errorf("list: %v", out.Directories)
	}

	sync := false
	w = ts.do(t, http.MethodPost, "/api/v1/watch/directories", watchAddRequest{Path: ts.dir, Sync: &sync})
	if w.Code != http.StatusCreated {
		t.Fatalf("add: got %d %s", w.Code, w.Body.String())
	}
	if len(mock.dirs) != 2 {
		t.Errorf("after add: %v", mock.dirs)
	}
	saved, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved.Watch.Directories) != 2 {
		t.Errorf("persisted: %v", saved.Watch.Directories)
	}

	if w := ts.do(t, http.MethodPost, "/api/v1/watch/directories", watchAddRequest{Path: filepath.Join(ts.dir, "nope")}); w.Code != http.StatusNotFound {
		t.Errorf("missing dir: got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/v1/watch/directories", watchAddRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty path: got %d", w.Code)
	}

	w = ts.do(t, http.MethodDelete, "/api/v1/watch/directories?path=/tmp/docs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove: got %d", w.Code)
	}
	if len(mock.dirs) != 1 || mock.dirs[0] != ts.dir {
		t.Errorf("after remove: %v", mock.dirs)
	}
}

func TestHandleWatchDirectories_disabled(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(t, http.MethodGet, "/api/v1/watch/directories", nil); w.Code != http.StatusNotImplemented {
		t.Errorf("got %d, want 501", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("find: %w", storage.ErrNotFound), http.StatusNotFound},
		{&solr.Error{Op: solr.OpQuery, Core: "x", Err: solr.ErrCoreNotFound}, http.StatusNotFound},
		{&solr.Error{Op: solr.OpCreateCore, Err: solr.ErrInvalidCoreName}, http.StatusBadRequest},
		{&solr.Error{Op: solr.OpCreateCore, Err: solr.ErrCoreExists}, http.StatusConflict},
		{indexer.ErrNoCoreAssigned, http.StatusConflict},
		{indexer.ErrMissingStructure, http.StatusConflict},
		{&solr.Error{Op: solr.OpCommit, Core: "x", Err: errors.New("disk full")}, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
