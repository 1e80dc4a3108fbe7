package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Client is an OpenAI-compatible embeddings client. It satisfies the
// embedding.Embedder interface; Prepare is a no-op because the remote
// model needs no corpus pass, and the dimension is learned lazily from
// the first embedding returned.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
}

// Config configures the embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates an embeddings client, reading the API key from the
// configured environment variable.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: timeout},
		maxRetries: 4,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding.
func (c *Client) Prepare(corpus []string) error { return nil }

// Dimension returns the vector size, 0 until the first successful Embed.
func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text, retrying on
// rate limits and server errors with exponential backoff.
func (c *Client) Embed(text string) ([]float64, error) {
	body, _ := json.Marshal(map[string]any{
		"model": c.model,
		"input": text,
	})
	url := c.baseURL + "/embeddings"
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff(attempt))
		}
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("embeddings request failed: %s", resp.Status)
			continue
		}
		if resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("embeddings request failed: %s", resp.Status)
		}
		var out struct {
			Data []struct {
				Embedding []float64 `json:"embedding"`
			} `json:"data"`
		}
		err = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
			return nil, errors.New("no embedding returned")
		}
		vec := out.Data[0].Embedding
		if c.dimension == 0 {
			c.dimension = len(vec)
		}
		return vec, nil
	}
	return nil, lastErr
}

func backoff(attempt int) time.Duration {
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
