package answer

import (
	"context"
	"fmt"

	"docchat-be/internal/entity"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/rag/prompt"
)

// Request carries everything needed to synthesize one grounded answer.
type Request struct {
	AssistantName string
	ContactEmail  string
	Query         string
	History       []llm.Message
	Chunks        []*entity.RetrievedChunk
}

// Result is the complete answer with its structured extraction. The
// streaming and non-streaming paths produce identical Results for the
// same inputs.
type Result struct {
	Text        string
	Sources     []entity.Source
	ContactInfo *entity.ContactInfo
	Categories  []string
	Providers   []entity.Provider
}

// Synthesizer turns retrieved chunks and a question into an answer.
type Synthesizer struct {
	provider llm.LLMProvider
}

func NewSynthesizer(provider llm.LLMProvider) *Synthesizer {
	return &Synthesizer{provider: provider}
}

// Synthesize generates the full answer in one shot.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if len(req.Chunks) == 0 {
		return s.noContextResult(req), nil
	}

	messages := s.buildMessages(req)

	text, err := s.provider.Chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	return s.buildResult(req, text), nil
}

// SynthesizeStream generates the answer incrementally, forwarding each
// delta to onDelta. The returned Result carries the same fields the
// non-streaming path would have produced.
func (s *Synthesizer) SynthesizeStream(ctx context.Context, req Request, onDelta func(delta string) error) (*Result, error) {
	if len(req.Chunks) == 0 {
		result := s.noContextResult(req)
		if onDelta != nil {
			if err := onDelta(result.Text); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	messages := s.buildMessages(req)

	text, err := s.provider.ChatStream(ctx, messages, onDelta)
	if err != nil {
		return nil, err
	}

	return s.buildResult(req, text), nil
}

func (s *Synthesizer) buildMessages(req Request) []llm.Message {
	grounded := prompt.NewGroundedBuilder(req.AssistantName, req.ContactEmail, req.Query, req.Chunks).Build()

	messages := make([]llm.Message, 0, len(req.History)+1)
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: "user", Content: grounded})
	return messages
}

func (s *Synthesizer) buildResult(req Request, text string) *Result {
	contents := make([]string, len(req.Chunks))
	sources := make([]entity.Source, len(req.Chunks))
	for i, chunk := range req.Chunks {
		contents[i] = chunk.Content
		sources[i] = entity.Source{
			DocumentId: chunk.DocumentId,
			Filename:   chunk.Filename,
			ChunkIndex: chunk.ChunkIndex,
			Similarity: chunk.Similarity,
		}
	}

	return &Result{
		Text:        text,
		Sources:     sources,
		ContactInfo: ExtractContactInfo(contents),
		Categories:  ExtractCategories(contents),
		Providers:   ExtractProviders(contents),
	}
}

// noContextResult answers honestly when retrieval found nothing
// relevant. No model call is made; there is nothing to ground on.
func (s *Synthesizer) noContextResult(req Request) *Result {
	text := "I don't have information about that in the available documents."
	if req.ContactEmail != "" {
		text = fmt.Sprintf("%s Please contact %s for further assistance.", text, req.ContactEmail)
	}
	return &Result{Text: text}
}
