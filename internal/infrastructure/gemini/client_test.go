package gemini

import (
	"context"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/shoptalk/backend/internal/domain"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil {
		t.Error("expected an error for an empty API key")
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Run("system and message only", func(t *testing.T) {
		prompt := buildPrompt(domain.GenerateRequest{
			System:  "You are a product assistant.",
			Message: "is there a sale?",
		})
		if !strings.HasPrefix(prompt, "You are a product assistant.") {
			t.Errorf("prompt should start with the system instruction:\n%s", prompt)
		}
		if strings.Contains(prompt, "CONVERSATION HISTORY") {
			t.Error("empty history should not emit a history section")
		}
		if !strings.Contains(prompt, "Current user message: is there a sale?") {
			t.Errorf("prompt missing the current message:\n%s", prompt)
		}
	})

	t.Run("history turns in order", func(t *testing.T) {
		prompt := buildPrompt(domain.GenerateRequest{
			System: "system",
			History: []domain.Turn{
				{Role: "user", Content: "hello", At: time.Now()},
				{Role: "assistant", Content: "hi there", At: time.Now()},
			},
			Message: "next",
		})
		if !strings.Contains(prompt, "# CONVERSATION HISTORY") {
			t.Fatalf("prompt missing history section:\n%s", prompt)
		}
		userIdx := strings.Index(prompt, "user: hello")
		assistantIdx := strings.Index(prompt, "assistant: hi there")
		if userIdx == -1 || assistantIdx == -1 || userIdx > assistantIdx {
			t.Errorf("history turns out of order:\n%s", prompt)
		}
	})
}

func TestExtractText(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		if got := extractText(nil); got != "" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		if got := extractText(&genai.GenerateContentResponse{}); got != "" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("concatenates text parts of the first candidate", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []*genai.Part{
					{Text: "Hello "},
					{Text: "world"},
				}}},
				{Content: &genai.Content{Parts: []*genai.Part{
					{Text: "ignored"},
				}}},
			},
		}
		if got := extractText(resp); got != "Hello world" {
			t.Errorf("got %q, want %q", got, "Hello world")
		}
	})
}
