package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleIntents = `{
  "intents": [
    {"tag": "greeting", "patterns": ["hello"], "responses": ["Hi there!"]},
    {"tag": "goodbye", "patterns": ["see you later"], "responses": ["Bye!"]}
  ]
}`

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "intents.json")
	if err := os.WriteFile(path, []byte(sampleIntents), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

// ollamaStub answers /api/embeddings with a vector derived from the prompt.
func ollamaStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		vec := []float64{0, 0, 1}
		switch {
		case strings.Contains(req.Prompt, "hello"):
			vec = []float64{1, 0, 0}
		case strings.Contains(req.Prompt, "see you"):
			vec = []float64{0, 1, 0}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": vec})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunMissingDataset(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run([]string{"chat", "-dataset", filepath.Join(dir, "none.json"), "-cache", filepath.Join(dir, "e.db")}, strings.NewReader(""), &stdout, &stderr)
	if code != 1 || !strings.Contains(stderr.String(), "dataset file not found") {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
}

func TestRunMissingCache(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	code := run([]string{"-dataset", writeDataset(t, dir), "-cache", filepath.Join(dir, "e.db")}, strings.NewReader(""), &stdout, &stderr)
	if code != 1 || !strings.Contains(stderr.String(), cacheMissing) {
		t.Fatalf("code = %d, stderr = %q", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "e.db")); !os.IsNotExist(err) {
		t.Fatalf("chat must not create the cache file")
	}
}

func TestRunUsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"dance"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("unknown command code = %d", code)
	}
	if code := run([]string{"chat", "-threshold", "3"}, strings.NewReader(""), &stdout, &stderr); code != 2 {
		t.Fatalf("invalid threshold code = %d", code)
	}
	stdout.Reset()
	if code := run([]string{"help"}, strings.NewReader(""), &stdout, &stderr); code != 0 || !strings.Contains(stdout.String(), "usage:") {
		t.Fatalf("help = %d, %q", code, stdout.String())
	}
}

func TestRunTrainAndChat(t *testing.T) {
	dir := t.TempDir()
	srv := ollamaStub(t)
	dataset := writeDataset(t, dir)
	cache := filepath.Join(dir, "embeddings.db")
	common := []string{"-dataset", dataset, "-cache", cache, "-embed-url", srv.URL}

	var stdout, stderr bytes.Buffer
	if code := run(append([]string{"train"}, common...), strings.NewReader(""), &stdout, &stderr); code != 0 {
		t.Fatalf("train code = %d, stderr = %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Embedded 2 patterns with all-minilm") {
		t.Fatalf("train output = %q", stdout.String())
	}

	stdout.Reset()
	input := "hello\nwhat is this\nskip\nbye\n"
	if code := run(append([]string{"chat"}, common...), strings.NewReader(input), &stdout, &stderr); code != 0 {
		t.Fatalf("chat code = %d, stderr = %q", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"Chatbot ready!", "Bot: Hi there!", "Sorry, I don't understand yet", "Bot: See you!"} {
		if !strings.Contains(out, want) {
			t.Fatalf("chat output missing %q:\n%s", want, out)
		}
	}
}
