package provider

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"mend/internal/logging"
)

// OllamaConfig configures the Ollama backend.
type OllamaConfig struct {
	BaseURL     string  // default "http://localhost:11434"
	APIKey      string  // optional, for remote servers behind auth
	Model       string  // e.g. "qwen2.5-coder"
	Temperature float32
	MaxTokens   int32
	HTTPTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// OllamaClient implements Client against a local or remote Ollama server.
type OllamaClient struct {
	client *api.Client
	config OllamaConfig
}

// authTransport adds an Authorization header to every request.
type authTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.apiKey)
	return t.base.RoundTrip(clone)
}

// NewOllamaClient creates an Ollama client with sane defaults.
func NewOllamaClient(config OllamaConfig) (*OllamaClient, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 8192
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 120 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	if baseURL.Scheme == "http" {
		host := baseURL.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			logging.Warn("Ollama connection uses unencrypted HTTP to remote host", "host", host)
		}
	}

	httpClient := &http.Client{Timeout: config.HTTPTimeout}
	if config.APIKey != "" {
		httpClient.Transport = &authTransport{base: http.DefaultTransport, apiKey: config.APIKey}
	}

	return &OllamaClient{
		client: api.NewClient(baseURL, httpClient),
		config: config,
	}, nil
}

// Model reports the configured model name.
func (c *OllamaClient) Model() string { return c.config.Model }

// Stream sends the conversation and forwards streamed chunks to fn,
// retrying transient failures with exponential backoff.
func (c *OllamaClient) Stream(ctx context.Context, req ChatRequest, fn func(Chunk) error) error {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := true
	chatReq := &api.ChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   &stream,
		Options: map[string]interface{}{
			"num_predict": c.config.MaxTokens,
		},
	}
	if c.config.Temperature > 0 {
		chatReq.Options["temperature"] = c.config.Temperature
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffWithJitter(c.config.RetryDelay, attempt-1, 30*time.Second)
			logging.Info("retrying Ollama request", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		delivered := false
		err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
			delivered = true
			return fn(Chunk{Text: resp.Message.Content, Done: resp.Done})
		})
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if delivered {
			// The stream broke mid-response; retrying would duplicate
			// already-forwarded content.
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("ollama request failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

// backoffWithJitter computes the delay before retry attempt (0-based),
// doubling each time with up to 25% random jitter.
func backoffWithJitter(base time.Duration, attempt int, max time.Duration) time.Duration {
	delay := base << uint(attempt)
	if delay > max || delay <= 0 {
		delay = max
	}
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}
