// Package openai embeds text through an OpenAI-compatible /embeddings
// endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DefaultURL is the OpenAI API base.
const DefaultURL = "https://api.openai.com/v1"

// Client calls <base>/embeddings with a Bearer key.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// New creates a client. A nil http.Client gets a 15s timeout.
func New(baseURL, apiKey, model string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model, client: client}
}

type embeddingRequest struct {
	Model string      `json:"model"`
	Input interface{} `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, input interface{}, want int) ([][]float32, error) {
	payload, err := json.Marshal(embeddingRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai embed: read body: %w", err)
	}
	var result embeddingResponse
	decodeErr := json.Unmarshal(body, &result)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && result.Error != nil {
			return nil, fmt.Errorf("openai embed: status %d: %s", resp.StatusCode, result.Error.Message)
		}
		return nil, fmt.Errorf("openai embed: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("openai embed decode: %w", decodeErr)
	}
	if len(result.Data) != want {
		return nil, fmt.Errorf("openai embed: got %d embeddings, want %d", len(result.Data), want)
	}
	sort.SliceStable(result.Data, func(i, j int) bool { return result.Data[i].Index < result.Data[j].Index })
	out := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("openai embed: empty embedding at index %d", d.Index)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

// Embed returns the embedding of text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.do(ctx, text, 1)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts in a single request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return c.do(ctx, texts, len(texts))
}

// Model returns the model name.
func (c *Client) Model() string { return c.model }

// Close is a no-op.
func (c *Client) Close() error { return nil }
