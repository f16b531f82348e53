package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestAPIClient(t *testing.T) {
	var (
		mu             sync.Mutex
		added, removed string
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("core") != "dlfCore0" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"core is required"}`))
			return
		}
		_, _ = w.Write([]byte(`{"numFound":3,"count":1,"hits":[{"position":0,"uid":1001,"hydrated":true,"title":"Dresdner Hefte"}]}`))
	})
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":1,"cores":{"dlfCore0":3},"disk_usage_bytes":42}`))
	})
	mux.HandleFunc("/api/v1/watch/directories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body struct {
				Path string `json:"path"`
				Sync bool   `json:"sync"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			added = body.Path
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			mu.Lock()
			removed = r.URL.Query().Get("path")
			mu.Unlock()
		default:
			_, _ = w.Write([]byte(`{"directories":["/data/mets"]}`))
		}
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := newAPIClient(ts.URL)
	ctx := context.Background()

	out, err := c.search(ctx, searchRequest{Core: "dlfCore0", PID: -1, Query: "Dresdner"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Query != "Dresdner" || out.NumFound != 3 || out.Count != 1 || len(out.Hits) != 1 || out.Hits[0].UID != 1001 {
		t.Errorf("search = %+v", out)
	}

	_, err = c.search(ctx, searchRequest{PID: -1})
	if err == nil || !strings.Contains(err.Error(), "400: core is required") {
		t.Errorf("search error = %v", err)
	}

	status, err := c.status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Documents != 1 || status.Cores["dlfCore0"] != 3 || status.DiskUsageBytes == nil || *status.DiskUsageBytes != 42 {
		t.Errorf("status = %+v", status)
	}

	if err := c.watchAdd(ctx, "/data/mets"); err != nil {
		t.Errorf("watchAdd: %v", err)
	}
	if err := c.watchRemove(ctx, "/data/a b"); err != nil {
		t.Errorf("watchRemove: %v", err)
	}
	mu.Lock()
	if added != "/data/mets" || removed != "/data/a b" {
		t.Errorf("added %q, removed %q", added, removed)
	}
	mu.Unlock()
	dirs, err := c.watchList(ctx)
	if err != nil || len(dirs) != 1 || dirs[0] != "/data/mets" {
		t.Errorf("watchList = %v, %v", dirs, err)
	}
}
