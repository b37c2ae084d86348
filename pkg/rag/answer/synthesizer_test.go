package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/entity"
	"docchat-be/pkg/llm"
)

// fakeLLM returns a fixed answer, streamed in two halves.
type fakeLLM struct {
	answer   string
	err      error
	lastMsgs []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.lastMsgs = history
	return f.answer, f.err
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, onDelta func(string) error, opts ...llm.Option) (string, error) {
	f.lastMsgs = history
	if f.err != nil {
		return "", f.err
	}
	half := len(f.answer) / 2
	for _, part := range []string{f.answer[:half], f.answer[half:]} {
		if err := onDelta(part); err != nil {
			return "", err
		}
	}
	return f.answer, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func testChunks() []*entity.RetrievedChunk {
	return []*entity.RetrievedChunk{
		{
			DocumentId: uuid.New(),
			Filename:   "services.txt",
			Content:    "CATEGORIES: food\n\nCONTACT INFORMATION:\nEmail: help@org.com\n\nPROVIDER: Jane Doe, MD\n",
			ChunkIndex: 0,
			Similarity: 0.82,
		},
		{
			DocumentId: uuid.New(),
			Filename:   "hours.txt",
			Content:    "Open Monday to Friday.",
			ChunkIndex: 3,
			Similarity: 0.41,
		},
	}
}

func TestSynthesizeBuildsResultFromChunks(t *testing.T) {
	provider := &fakeLLM{answer: "We offer food assistance."}
	s := NewSynthesizer(provider)

	result, err := s.Synthesize(context.Background(), Request{
		AssistantName: "Helper",
		Query:         "what do you offer?",
		Chunks:        testChunks(),
	})

	require.NoError(t, err)
	assert.Equal(t, "We offer food assistance.", result.Text)
	// every context chunk becomes a source, in retrieval order
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "services.txt", result.Sources[0].Filename)
	assert.InDelta(t, 0.82, result.Sources[0].Similarity, 1e-9)
	assert.Equal(t, []string{"food"}, result.Categories)
	require.NotNil(t, result.ContactInfo)
	assert.Equal(t, []string{"help@org.com"}, result.ContactInfo.Emails)
	require.Len(t, result.Providers, 1)
	assert.Equal(t, "Jane Doe", result.Providers[0].Name)
}

func TestSynthesizeStreamMatchesNonStreaming(t *testing.T) {
	req := Request{
		AssistantName: "Helper",
		Query:         "what do you offer?",
		Chunks:        testChunks(),
	}

	plain, err := NewSynthesizer(&fakeLLM{answer: "We offer food assistance."}).Synthesize(context.Background(), req)
	require.NoError(t, err)

	var streamed string
	streaming, err := NewSynthesizer(&fakeLLM{answer: "We offer food assistance."}).SynthesizeStream(context.Background(), req, func(delta string) error {
		streamed += delta
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, plain.Text, streaming.Text)
	assert.Equal(t, plain.Text, streamed)
	assert.Equal(t, plain.Sources, streaming.Sources)
	assert.Equal(t, plain.Categories, streaming.Categories)
	assert.Equal(t, plain.ContactInfo, streaming.ContactInfo)
	assert.Equal(t, plain.Providers, streaming.Providers)
}

func TestSynthesizeNoContextSkipsModel(t *testing.T) {
	provider := &fakeLLM{answer: "should not be used"}
	s := NewSynthesizer(provider)

	result, err := s.Synthesize(context.Background(), Request{
		Query:        "anything",
		ContactEmail: "support@org.com",
	})

	require.NoError(t, err)
	assert.Nil(t, provider.lastMsgs)
	assert.Contains(t, result.Text, "don't have information")
	assert.Contains(t, result.Text, "support@org.com")
	assert.Empty(t, result.Sources)
}

func TestSynthesizeStreamNoContextEmitsFallbackOnce(t *testing.T) {
	s := NewSynthesizer(&fakeLLM{})

	var deltas []string
	result, err := s.SynthesizeStream(context.Background(), Request{Query: "anything"}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.Equal(t, result.Text, deltas[0])
}

func TestSynthesizePropagatesGenerationError(t *testing.T) {
	genErr := &llm.GenerationError{Provider: "ollama", Err: errors.New("boom")}
	s := NewSynthesizer(&fakeLLM{err: genErr})

	_, err := s.Synthesize(context.Background(), Request{Query: "q", Chunks: testChunks()})

	var ge *llm.GenerationError
	require.True(t, errors.As(err, &ge))
}

func TestSynthesizeIncludesHistoryBeforeGroundedPrompt(t *testing.T) {
	provider := &fakeLLM{answer: "ok"}
	s := NewSynthesizer(provider)

	history := []llm.Message{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}
	_, err := s.Synthesize(context.Background(), Request{Query: "next", History: history, Chunks: testChunks()})

	require.NoError(t, err)
	require.Len(t, provider.lastMsgs, 3)
	assert.Equal(t, "earlier question", provider.lastMsgs[0].Content)
	assert.Contains(t, provider.lastMsgs[2].Content, "<user_question>")
	assert.Contains(t, provider.lastMsgs[2].Content, "next")
}
