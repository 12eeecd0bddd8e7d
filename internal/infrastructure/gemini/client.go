package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/shoptalk/backend/internal/domain"
)

// Config holds Gemini generation settings.
type Config struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int32
}

// Client wraps the Gemini API as the assistant's generation backend.
// Its output is untrusted free text; callers sanitize before rendering.
type Client struct {
	client *genai.Client
	config Config
}

// New creates a Gemini client. An empty API key is a configuration error;
// callers that want a degraded assistant simply pass no Generator at all.
func New(ctx context.Context, config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 1024
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, config: config}, nil
}

// Generate produces a response for the request under a hard timeout. The
// outcome is a value, never a panic or propagated transport error: callers
// branch on Status to pick the deterministic fallback. A call that outlives
// its deadline is abandoned; a late result is discarded.
func (c *Client) Generate(ctx context.Context, req domain.GenerateRequest) domain.GenerateOutcome {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	prompt := buildPrompt(req)

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		temp := c.config.Temperature
		resp, err := c.client.Models.GenerateContent(
			ctx,
			c.config.Model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				Temperature:     &temp,
				MaxOutputTokens: c.config.MaxTokens,
			},
		)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{text: extractText(resp)}
	}()

	select {
	case <-ctx.Done():
		log.Printf("[GEMINI] generation timed out after %s", c.config.Timeout)
		return domain.GenerateOutcome{Status: domain.GenerateTimeout, Err: domain.ErrGenerationTimeout}
	case r := <-done:
		if r.err != nil {
			log.Printf("[GEMINI] generation error: %v", r.err)
			return domain.GenerateOutcome{
				Status: domain.GenerateFailed,
				Err:    fmt.Errorf("%w: %v", domain.ErrGenerationFailed, r.err),
			}
		}
		if strings.TrimSpace(r.text) == "" {
			log.Printf("[GEMINI] generation returned empty content")
			return domain.GenerateOutcome{Status: domain.GenerateEmpty, Err: domain.ErrGenerationFailed}
		}
		return domain.GenerateOutcome{Status: domain.GenerateOK, Text: r.text}
	}
}

// buildPrompt assembles the system instruction, the bounded history window,
// and the current message into one generation prompt.
func buildPrompt(req domain.GenerateRequest) string {
	var b strings.Builder
	b.WriteString(req.System)

	if len(req.History) > 0 {
		b.WriteString("\n\n# CONVERSATION HISTORY\n")
		for _, turn := range req.History {
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nCurrent user message: ")
	b.WriteString(req.Message)
	return b.String()
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
