// Package gemini generates market commentary through the Google Gemini API,
// spreading traffic across a pool of rotated credentials.
package gemini

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/keypool"
)

const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 2048
	DefaultMaxAttempts     = 3
)

// Client implements the CommentaryClient interface. Each generation call
// borrows a credential from the pool; failures are reported back so the pool
// can rotate away from exhausted or revoked keys.
type Client struct {
	pool        *keypool.Manager
	model       string
	temperature float64
	maxTokens   int32
	maxAttempts int
	logger      *common.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client // one genai client per credential
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.temperature = t
	}
}

// WithMaxOutputTokens caps the response length
func WithMaxOutputTokens(n int32) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMaxAttempts sets how many credentials a single generation may burn
// through before giving up
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client backed by the credential pool.
// The underlying genai clients are created lazily, one per credential.
func NewClient(pool *keypool.Manager, opts ...ClientOption) *Client {
	c := &Client{
		pool:        pool,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxOutputTokens,
		maxAttempts: DefaultMaxAttempts,
		logger:      common.NewSilentLogger(),
		clients:     make(map[string]*genai.Client),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Close drops the cached genai clients
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// The genai client has no Close method; dropping the references is enough
	c.clients = make(map[string]*genai.Client)
	return nil
}

// Generate produces text for the prompt. A non-empty caller keeps subsequent
// calls on the same credential; an empty caller joins the shared rotation.
// On failure the credential is reported to the pool and the next attempt runs
// against whichever key the pool serves after rotation.
func (c *Client) Generate(ctx context.Context, caller, prompt string) (string, error) {
	attempts := c.maxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		secret, err := c.acquire(caller)
		if err != nil {
			return "", err
		}

		text, err := c.generate(ctx, secret, prompt)
		if err == nil {
			c.pool.ReportSuccess(caller)
			return text, nil
		}

		lastErr = err
		c.pool.ReportError(err.Error(), caller)
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Str("caller", caller).
			Msg("Gemini generation failed, rotating credential")

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) acquire(caller string) (string, error) {
	if caller == "" {
		return c.pool.Acquire()
	}
	return c.pool.AcquireFor(caller)
}

func (c *Client) generate(ctx context.Context, secret, prompt string) (string, error) {
	client, err := c.clientFor(ctx, secret)
	if err != nil {
		return "", err
	}

	c.logger.Debug().Str("model", c.model).Int("prompt_len", len(prompt)).Msg("Generating content")

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.temperature)),
		MaxOutputTokens: c.maxTokens,
	}

	result, err := client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractText(result)
}

// clientFor returns the cached genai client for a credential, creating it on
// first use
func (c *Client) clientFor(ctx context.Context, secret string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[secret]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  secret,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c.clients[secret] = client
	return client, nil
}

// extractText extracts text from a generate content response
func extractText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements CommentaryClient
var _ interfaces.CommentaryClient = (*Client)(nil)
