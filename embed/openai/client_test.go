package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model string      `json:"model"`
			Input interface{} `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		switch in := req.Input.(type) {
		case string:
			_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,2]}]}`))
		case []interface{}:
			if len(in) != 2 {
				t.Errorf("batch input length %d", len(in))
			}
			// Out of order on purpose.
			_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
		default:
			t.Errorf("unexpected input %T", in)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1", "secret", "text-embedding-3-small", nil)
	vec, err := c.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 1 || vec[1] != 2 {
		t.Fatalf("unexpected vector %v", vec)
	}

	batch, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if batch[0][0] != 1 || batch[1][1] != 1 {
		t.Fatalf("batch not ordered by index: %v", batch)
	}
	if c.Model() != "text-embedding-3-small" {
		t.Fatalf("Model() = %q", c.Model())
	}
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad", "m", nil).Embed(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("unexpected error: %v", err)
	}
}
