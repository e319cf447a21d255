package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeLifecycleServer records provisioning and teardown calls.
type fakeLifecycleServer struct {
	mu sync.Mutex

	assistantBody map[string]any
	deleted       []string // "assistant:<id>", "file:<id>", "vector_store:<id>"
}

func (f *fakeLifecycleServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /vector_stores", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "vs_1", "object": "vector_store"})
	})
	mux.HandleFunc("POST /files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "file_1", "object": "file"})
	})
	mux.HandleFunc("POST /vector_stores/vs_1/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "file_1", "object": "vector_store.file"})
	})
	mux.HandleFunc("POST /assistants", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.assistantBody)
		writeJSON(w, map[string]any{"id": "asst_1", "object": "assistant"})
	})
	mux.HandleFunc("GET /assistants/asst_1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"id":     "asst_1",
			"object": "assistant",
			"tool_resources": map[string]any{
				"file_search": map[string]any{"vector_store_ids": []string{"vs_1"}},
			},
		})
	})
	mux.HandleFunc("DELETE /assistants/asst_1", func(w http.ResponseWriter, r *http.Request) {
		f.record("assistant:asst_1")
		writeJSON(w, map[string]any{"id": "asst_1", "object": "assistant.deleted", "deleted": true})
	})
	mux.HandleFunc("GET /vector_stores/vs_1/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"object":   "list",
			"data":     []map[string]any{{"id": "file_1", "object": "vector_store.file"}},
			"has_more": false,
		})
	})
	mux.HandleFunc("DELETE /files/file_1", func(w http.ResponseWriter, r *http.Request) {
		f.record("file:file_1")
		writeJSON(w, map[string]any{"id": "file_1", "object": "file", "deleted": true})
	})
	mux.HandleFunc("DELETE /vector_stores/vs_1", func(w http.ResponseWriter, r *http.Request) {
		f.record("vector_store:vs_1")
		writeJSON(w, map[string]any{"id": "vs_1", "object": "vector_store.deleted", "deleted": true})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})
	return mux
}

func (f *fakeLifecycleServer) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, event)
}

func writeCatalogFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	data := `{"book_id":"book-1","title":"Space Cats","description":"Cats in space."}` + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write catalog fixture: %v", err)
	}
	return path
}

func TestProvision(t *testing.T) {
	fake := &fakeLifecycleServer{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Minute)

	assistantID, err := client.Provision(context.Background(), writeCatalogFixture(t))
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if assistantID != "asst_1" {
		t.Errorf("assistant id = %q", assistantID)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if got, _ := fake.assistantBody["model"].(string); got != "gpt-4o-mini" {
		t.Errorf("model = %q", got)
	}
	if got, _ := fake.assistantBody["name"].(string); got != "Book Recommender" {
		t.Errorf("name = %q", got)
	}

	tools, _ := fake.assistantBody["tools"].([]any)
	if len(tools) != 2 {
		t.Fatalf("expected file_search + function tools, got %v", fake.assistantBody["tools"])
	}
	types := map[string]bool{}
	var fnName string
	for _, raw := range tools {
		tool := raw.(map[string]any)
		typ, _ := tool["type"].(string)
		types[typ] = true
		if typ == "function" {
			fn := tool["function"].(map[string]any)
			fnName, _ = fn["name"].(string)
			params, _ := fn["parameters"].(map[string]any)
			if params["type"] != "object" {
				t.Errorf("function parameters not an object schema: %v", params)
			}
		}
	}
	if !types["file_search"] || !types["function"] {
		t.Errorf("missing tool types: %v", types)
	}
	if fnName != "recommend_books" {
		t.Errorf("function tool name = %q", fnName)
	}

	resources, _ := fake.assistantBody["tool_resources"].(map[string]any)
	fileSearch, _ := resources["file_search"].(map[string]any)
	storeIDs, _ := fileSearch["vector_store_ids"].([]any)
	if len(storeIDs) != 1 || storeIDs[0] != "vs_1" {
		t.Errorf("vector store binding = %v", resources)
	}
}

func TestTeardownDeletesEverything(t *testing.T) {
	fake := &fakeLifecycleServer{}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Minute)
	client.Teardown(context.Background(), "asst_1")

	want := map[string]bool{
		"assistant:asst_1":  true,
		"file:file_1":       true,
		"vector_store:vs_1": true,
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.deleted) != len(want) {
		t.Fatalf("expected %d deletions, got %v", len(want), fake.deleted)
	}
	for _, event := range fake.deleted {
		if !want[event] {
			t.Errorf("unexpected deletion %q", event)
		}
	}
}

func TestTeardownContinuesPastFailures(t *testing.T) {
	fake := &fakeLifecycleServer{}
	base := fake.handler(t)

	// Fail the file deletion; the vector store itself must still go.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/files/file_1" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		base.ServeHTTP(w, r)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, time.Minute)
	client.Teardown(context.Background(), "asst_1")

	fake.mu.Lock()
	defer fake.mu.Unlock()
	found := map[string]bool{}
	for _, event := range fake.deleted {
		found[event] = true
	}
	if !found["assistant:asst_1"] {
		t.Error("assistant was not deleted")
	}
	if !found["vector_store:vs_1"] {
		t.Error("vector store deletion was skipped after file failure")
	}
}
