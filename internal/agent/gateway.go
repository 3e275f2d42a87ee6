// Package agent wraps the external conversational-AI service behind a
// single request/response contract.
package agent

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/asesoria-ai/advisor-platform/internal/llm"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
	"github.com/asesoria-ai/advisor-platform/pkg/metrics"
)

// Gateway is the boundary to the external advisory agent. Exactly one
// attempt is made per call; retry policy is the caller's concern and
// none is implemented here.
type Gateway interface {
	// Ask sends a prompt correlated by sessionKey and returns the
	// response text, or a *TransportError / *UpstreamError.
	Ask(ctx context.Context, prompt, sessionKey string) (string, error)
}

// Options configure an LLM-backed gateway.
type Options struct {
	Model     string
	System    string
	MaxTokens int
	Streaming bool
}

// LLMGateway implements Gateway over an LLM provider client.
type LLMGateway struct {
	client llm.Client
	opts   Options
	logger *logger.Logger
}

// NewLLMGateway creates a gateway backed by the given provider client.
func NewLLMGateway(client llm.Client, opts Options, log *logger.Logger) *LLMGateway {
	return &LLMGateway{client: client, opts: opts, logger: log}
}

// Ask forwards the prompt to the provider. Streamed responses are
// assembled by concatenating fragments in arrival order.
func (g *LLMGateway) Ask(ctx context.Context, prompt, sessionKey string) (string, error) {
	start := time.Now()

	req := &llm.CompletionRequest{
		Model:     g.opts.Model,
		System:    g.opts.System,
		MaxTokens: g.opts.MaxTokens,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: prompt},
		},
	}

	var resp *llm.CompletionResponse
	var err error
	var assembled strings.Builder

	if g.opts.Streaming {
		resp, err = g.client.CompleteStream(ctx, req, func(fragment string, index int) error {
			assembled.WriteString(fragment)
			return nil
		})
	} else {
		resp, err = g.client.Complete(ctx, req)
	}

	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordAgentRequest(g.client.Name(), "error", elapsed.Seconds())
		g.logger.Warn("agent call failed",
			zap.String("provider", g.client.Name()),
			zap.String("session_key", sessionKey),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", classify(err)
	}

	metrics.RecordAgentRequest(g.client.Name(), "success", elapsed.Seconds())
	g.logger.Debug("agent call completed",
		zap.String("provider", g.client.Name()),
		zap.String("session_key", sessionKey),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Duration("elapsed", elapsed),
	)

	if g.opts.Streaming {
		return assembled.String(), nil
	}
	return resp.Content, nil
}
