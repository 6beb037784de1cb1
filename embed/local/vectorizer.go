//go:build llama

// Package local embeds text in-process with a GGUF sentence model loaded
// through llama.cpp. It is only built with the llama tag, since the binding
// panics at init when libllama_go is not installed.
package local

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kelindar/search"
)

// Vectorizer wraps a kelindar/search vectorizer. Calls are serialized.
type Vectorizer struct {
	mu    sync.Mutex
	vec   *search.Vectorizer
	model string
}

// New loads the shared library at libPath and the model at modelPath.
// gpuLayers is passed through; 0 runs on the CPU.
func New(libPath, modelPath string, gpuLayers int) (*Vectorizer, error) {
	if libPath != "" {
		search.SetLibraryPath(libPath)
	}
	vec, err := search.NewVectorizer(modelPath, gpuLayers)
	if err != nil {
		return nil, fmt.Errorf("local: load %s: %w", modelPath, err)
	}
	return &Vectorizer{vec: vec, model: ModelName(modelPath)}, nil
}

// ModelName derives the model name recorded in the cache from a model file
// path: "dist/MiniLM-L6-v2.Q8_0.gguf" becomes "MiniLM-L6-v2.Q8_0".
func ModelName(modelPath string) string {
	base := filepath.Base(modelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Embed returns the embedding of text.
func (v *Vectorizer) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	out, err := v.vec.EmbedText(text)
	if err != nil {
		return nil, fmt.Errorf("local: embed: %w", err)
	}
	return out, nil
}

// EmbedBatch embeds texts sequentially.
func (v *Vectorizer) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := v.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Model returns the model name.
func (v *Vectorizer) Model() string { return v.model }

// Close releases the model.
func (v *Vectorizer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vec.Close()
	return nil
}
