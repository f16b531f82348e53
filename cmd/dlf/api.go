package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/dlf/internal/cli"
)

// apiClient talks to a running dlf server. Commands go through it while the
// server holds the core index locks.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{base: base, http: &http.Client{Timeout: 30 * time.Second}}
}

// do sends body as JSON and decodes the response into out when the server
// answers with want.
func (c *apiClient) do(ctx context.Context, method, path string, body, out interface{}, want int) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) search(ctx context.Context, req searchRequest) (*cli.SearchOutput, error) {
	var out cli.SearchOutput
	if err := c.do(ctx, http.MethodGet, "/api/v1/search?"+req.values().Encode(), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	out.Query = req.Query
	return &out, nil
}

func (c *apiClient) status(ctx context.Context) (*statusResponse, error) {
	var s statusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &s, http.StatusOK); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *apiClient) watchAdd(ctx context.Context, path string) error {
	body := map[string]interface{}{"path": path, "sync": true}
	return c.do(ctx, http.MethodPost, "/api/v1/watch/directories", body, nil, http.StatusCreated)
}

func (c *apiClient) watchRemove(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/watch/directories?path="+url.QueryEscape(path), nil, nil, http.StatusOK)
}

func (c *apiClient) watchList(ctx context.Context) ([]string, error) {
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/watch/directories", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

func printWatchUsage() {
	fmt.Println("Usage: dlf watch <add|remove|list> [path]")
	fmt.Println("  dlf watch add <path>     Watch a directory of structure files and index it")
	fmt.Println("  dlf watch remove <path>  Stop watching a directory")
	fmt.Println("  dlf watch list           List watched directories")
}

func runWatch() {
	if len(os.Args) < 3 {
		printWatchUsage()
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])

	client := newAPIClient(*serverURL)
	ctx := context.Background()
	var path string
	if sub == "add" || sub == "remove" {
		if fs.NArg() < 1 {
			printWatchUsage()
			os.Exit(1)
		}
		path, _ = filepath.Abs(fs.Arg(0))
	}

	var err error
	switch sub {
	case "add":
		if err = client.watchAdd(ctx, path); err == nil {
			fmt.Printf("Watching: %s\n", path)
		}
	case "remove":
		if err = client.watchRemove(ctx, path); err == nil {
			fmt.Printf("Removed: %s\n", path)
		}
	case "list":
		var dirs []string
		if dirs, err = client.watchList(ctx); err == nil {
			for _, d := range dirs {
				fmt.Println(d)
			}
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "watch %s failed: %v\n", sub, err)
		os.Exit(1)
	}
}
