package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// ErrLLMNotConfigured is returned when no generation client was wired.
var ErrLLMNotConfigured = errors.New("llm client not configured")

// StripFences removes markdown code fences from LLM output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Generate joins the ordered prompt parts and sends them as a single user turn
// using the configured temperature and max_tokens. Output is returned as-is;
// callers that expect JSON strip fences themselves.
func Generate(ctx context.Context, parts ...string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMNotConfigured
	}
	metrics.LLMCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, "", strings.Join(parts, "\n\n"))
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return resp, nil
}

// GenerateShort is Generate with a tighter budget, used for spoken answers
// such as the self-introduction.
func GenerateShort(ctx context.Context, parts ...string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMNotConfigured
	}
	metrics.LLMCalls.Add(1)
	resp, err := cfg.LLMClient.Complete(ctx, "", strings.Join(parts, "\n\n"),
		llm.WithChatTemperature(0.6),
		llm.WithChatMaxTokens(400),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return "", err
	}
	return strings.TrimSpace(resp), nil
}
