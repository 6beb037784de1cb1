package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req embedReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "all-minilm" {
			t.Errorf("model = %q", req.Model)
		}
		if req.Prompt == "empty" {
			_, _ = w.Write([]byte(`{"embedding":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[0.5,-1,` + string(rune('0'+len(req.Prompt))) + `]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "", nil)
	if c.Model() != DefaultModel {
		t.Fatalf("Model() = %q", c.Model())
	}
	vec, err := c.Embed(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != -1 || vec[2] != 2 {
		t.Fatalf("unexpected vector %v", vec)
	}

	batch, err := c.EmbedBatch(context.Background(), []string{"a", "abc"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if len(batch) != 2 || batch[0][2] != 1 || batch[1][2] != 3 {
		t.Fatalf("unexpected batch %v", batch)
	}

	if _, err := c.Embed(context.Background(), "empty"); err != ErrEmptyEmbedding {
		t.Fatalf("expected ErrEmptyEmbedding, got %v", err)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "missing", srv.Client()).Embed(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "status 404") || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}
