package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoria-ai/advisor-platform/internal/llm"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
)

type fakeLLM struct {
	fragments []string
	err       error

	lastReq  *llm.CompletionRequest
	streamed bool
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	var content string
	for _, fr := range f.fragments {
		content += fr
	}
	return &llm.CompletionResponse{Content: content}, nil
}

func (f *fakeLLM) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	f.lastReq = req
	f.streamed = true
	if f.err != nil {
		return nil, f.err
	}
	var content string
	for i, fr := range f.fragments {
		if err := callback(fr, i); err != nil {
			return nil, err
		}
		content += fr
	}
	return &llm.CompletionResponse{Content: content}, nil
}

func TestAskConcatenatesFragmentsInOrder(t *testing.T) {
	client := &fakeLLM{fragments: []string{"El IBI ", "se paga ", "cada año."}}
	gw := NewLLMGateway(client, Options{Streaming: true}, logger.NewNop())

	got, err := gw.Ask(context.Background(), "¿Qué es el IBI?", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "El IBI se paga cada año.", got)
	assert.True(t, client.streamed)
}

func TestAskNonStreamingUsesComplete(t *testing.T) {
	client := &fakeLLM{fragments: []string{"Respuesta completa."}}
	gw := NewLLMGateway(client, Options{Streaming: false}, logger.NewNop())

	got, err := gw.Ask(context.Background(), "hola", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Respuesta completa.", got)
	assert.False(t, client.streamed)
}

func TestAskCarriesModelAndSystemPrompt(t *testing.T) {
	client := &fakeLLM{fragments: []string{"ok"}}
	gw := NewLLMGateway(client, Options{
		Model:     "claude-3-5-haiku-20241022",
		System:    "Eres un asesor inmobiliario.",
		MaxTokens: 512,
		Streaming: true,
	}, logger.NewNop())

	_, err := gw.Ask(context.Background(), "hola", "conv-1")
	require.NoError(t, err)

	require.NotNil(t, client.lastReq)
	assert.Equal(t, "claude-3-5-haiku-20241022", client.lastReq.Model)
	assert.Equal(t, "Eres un asesor inmobiliario.", client.lastReq.System)
	assert.Equal(t, 512, client.lastReq.MaxTokens)
	require.Len(t, client.lastReq.Messages, 1)
	assert.Equal(t, "user", client.lastReq.Messages[0].Role)
}

func TestAskClassifiesPlainErrorAsTransport(t *testing.T) {
	client := &fakeLLM{err: errors.New("dial tcp: connection refused")}
	gw := NewLLMGateway(client, Options{Streaming: true}, logger.NewNop())

	_, err := gw.Ask(context.Background(), "hola", "conv-1")
	require.Error(t, err)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestAskClassifiesProviderErrorAsUpstream(t *testing.T) {
	client := &fakeLLM{err: &openai.APIError{Code: "rate_limit_exceeded", Message: "slow down"}}
	gw := NewLLMGateway(client, Options{Streaming: true}, logger.NewNop())

	_, err := gw.Ask(context.Background(), "hola", "conv-1")
	require.Error(t, err)

	var upstreamErr *UpstreamError
	assert.True(t, errors.As(err, &upstreamErr))
}

func TestClassifyRequestError(t *testing.T) {
	err := classify(&openai.RequestError{HTTPStatusCode: 503, Err: errors.New("bad gateway")})

	var upstreamErr *UpstreamError
	assert.True(t, errors.As(err, &upstreamErr))
}

func TestErrorsUnwrap(t *testing.T) {
	inner := errors.New("boom")

	assert.ErrorIs(t, &TransportError{Err: inner}, inner)
	assert.ErrorIs(t, &UpstreamError{Err: inner}, inner)
}
