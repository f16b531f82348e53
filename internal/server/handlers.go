package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/dlf/internal/config"
	"github.com/hyperjump/dlf/internal/indexer"
	"github.com/hyperjump/dlf/internal/models"
	"github.com/hyperjump/dlf/internal/search"
	"github.com/hyperjump/dlf/internal/solr"
	"github.com/hyperjump/dlf/internal/storage"
	"go.uber.org/zap"
)

type searchHit struct {
	Position int              `json:"position"`
	ID       string           `json:"id"`
	UID      int64            `json:"uid"`
	Toplevel bool             `json:"toplevel"`
	Hydrated bool             `json:"hydrated"`
	Title    string           `json:"title,omitempty"`
	Page     int              `json:"page,omitempty"`
	ParentID string           `json:"parent_id,omitempty"`
	Score    float64          `json:"score"`
	Document *models.Document `json:"document,omitempty"`
}

type searchResponse struct {
	NumFound   int         `json:"numFound"`
	Count      int         `json:"count"`
	Hits       []searchHit `json:"hits"`
	Suggestion string      `json:"suggestion,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	settings := search.Settings{Core: q.Get("core"), StoragePID: s.config.Search.StoragePID}
	if settings.Core == "" {
		settings.Core = s.config.Search.DefaultCore
	}
	if settings.Core == "" {
		s.respondError(w, http.StatusBadRequest, "core is required")
		return
	}
	var err error
	if v := q.Get("pid"); v != "" {
		if settings.StoragePID, err = strconv.ParseInt(v, 10, 64); err != nil || settings.StoragePID < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid pid")
			return
		}
	}
	params := search.Params{Query: q.Get("query")}
	if v := q.Get("fulltext"); v != "" {
		if params.Fulltext, err = strconv.ParseBool(v); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid fulltext")
			return
		}
	}
	if params.Start, err = intParam(q.Get("start")); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid start")
		return
	}
	if params.Rows, err = intParam(q.Get("rows")); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid rows")
		return
	}
	params.Sort = splitList(q["sort"])

	var collections []*models.Collection
	if names := splitList(q["collection"]); len(names) > 0 {
		collections, err = s.repo.FindCollectionsBySettings(ctx, names)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				s.logger.Error("search: find collections failed", zap.Error(err))
			}
			s.respondError(w, status, err.Error())
			return
		}
	}

	s.logger.Debug("search request",
		zap.String("core", settings.Core),
		zap.String("query", params.Query),
		zap.Bool("fulltext", params.Fulltext),
		zap.Int("collections", len(collections)))
	rs, err := s.repo.FindByCollection(ctx, collections, settings, params)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}

	resp := searchResponse{NumFound: rs.NumFound(), Count: rs.Count(), Hits: make([]searchHit, 0, rs.Len())}
	for _, hit := range rs.All(ctx) {
		resp.Hits = append(resp.Hits, searchHit{
			Position: hit.Position,
			ID:       hit.Record.ID,
			UID:      hit.UID(),
			Toplevel: hit.Toplevel(),
			Hydrated: hit.Hydrated(),
			Title:    hit.Title(),
			Page:     hit.Record.Page,
			ParentID: hit.Record.ParentID,
			Score:    hit.Record.Score,
			Document: hit.Document,
		})
	}
	if resp.NumFound == 0 && s.suggest != nil && params.Query != "" {
		resp.Suggestion = s.suggest.Correct(ctx, settings.Core, params.Query)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if s.suggest == nil {
		s.respondError(w, http.StatusNotImplemented, "suggestions not enabled")
		return
	}
	core := r.URL.Query().Get("core")
	if core == "" {
		core = s.config.Search.DefaultCore
	}
	query := r.URL.Query().Get("query")
	if core == "" || query == "" {
		s.respondError(w, http.StatusBadRequest, "core and query are required")
		return
	}
	res, err := s.suggest.Check(r.Context(), core, query)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uidParam(w, r)
	if !ok {
		return
	}
	doc, err := s.storage.FindDocument(r.Context(), uid)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleAssignCore(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uidParam(w, r)
	if !ok {
		return
	}
	var req struct {
		CoreUID int64 `json:"core"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CoreUID <= 0 {
		s.respondError(w, http.StatusBadRequest, "core is required")
		return
	}
	ctx := r.Context()
	if _, err := s.storage.FindCore(ctx, req.CoreUID); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if err := s.storage.SetDocumentCore(ctx, uid, req.CoreUID); err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int64{"uid": uid, "core": req.CoreUID})
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uidParam(w, r)
	if !ok {
		return
	}
	s.logger.Debug("index document request", zap.Int64("uid", uid))
	if _, err := s.indexer.IndexUID(r.Context(), uid); err != nil {
		s.logger.Error("indexing failed", zap.Int64("uid", uid), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"uid": uid, "status": "indexed"})
}

func (s *Server) handleUnindexDocument(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.uidParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	doc, err := s.storage.FindDocument(ctx, uid)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Debug("unindex document request", zap.Int64("uid", uid))
	if err := s.indexer.Delete(ctx, doc); err != nil {
		s.logger.Error("deletion failed", zap.Int64("uid", uid), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"uid": uid, "status": "deleted"})
}

func (s *Server) handleListCores(w http.ResponseWriter, r *http.Request) {
	cores, err := s.engine.Cores()
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if cores == nil {
		cores = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"cores": cores})
}

func (s *Server) handleCreateCore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Label string `json:"label"`
		PID   int64  `json:"pid"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	ctx := r.Context()
	name, err := s.engine.CreateCore(ctx, req.Name)
	if err != nil {
		s.logger.Error("create core failed", zap.String("name", req.Name), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	label := req.Label
	if label == "" {
		label = name
	}
	core := &models.Core{PID: req.PID, Label: label, IndexName: name}
	if err := s.storage.CreateCore(ctx, core); err != nil {
		s.logger.Error("store core failed", zap.String("name", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, core)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	docCount, err := s.storage.CountDocuments(r.Context())
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	cores, err := s.engine.Cores()
	if err != nil {
		s.logger.Error("status: list cores failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	records := make(map[string]uint64, len(cores))
	for _, name := range cores {
		if n, err := s.engine.Instance(name).Count(); err == nil {
			records[name] = n
		}
	}
	resp := map[string]interface{}{
		"documents": docCount,
		"cores":     records,
		"config": map[string]interface{}{
			"database_path":  s.config.Storage.DatabasePath,
			"index_path":     s.config.Storage.IndexPath,
			"default_core":   s.config.Search.DefaultCore,
			"storage_pid":    s.config.Search.StoragePID,
			"default_rows":   s.config.Search.DefaultRows,
			"max_rows":       s.config.Search.MaxRows,
			"collapse_limit": s.config.Search.CollapseLimit,
		},
	}
	if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.IndexPath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatch()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatch()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatch writes the current watch directories back to the config file.
func (s *Server) persistWatch() {
	if s.configPath == "" {
		return
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) uidParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, err := strconv.ParseInt(chi.URLParam(r, "uid"), 10, 64)
	if err != nil || uid <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid uid")
		return 0, false
	}
	return uid, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, solr.ErrCoreNotFound):
		return http.StatusNotFound
	case errors.Is(err, solr.ErrInvalidCoreName), errors.Is(err, solr.ErrInvalidRecord):
		return http.StatusBadRequest
	case errors.Is(err, solr.ErrCoreExists),
		errors.Is(err, indexer.ErrNoCoreAssigned),
		errors.Is(err, indexer.ErrMissingStructure):
		return http.StatusConflict
	case errors.Is(err, solr.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

// splitList flattens repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
