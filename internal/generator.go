package internal

import (
	"context"
	"fmt"
	"strings"
)

const ragInstruction = "You are a specialized assistant answering questions about a private " +
	"document collection. Answer ONLY from the context documents provided below. " +
	"If the context does not contain enough information, say so instead of guessing. " +
	"Cite the source name in brackets, like [Source: filename], after each relevant statement."

const fallbackInstruction = "You are a knowledgeable assistant. No relevant documents were found " +
	"in the private collection, so answer the question from your general knowledge. " +
	"Be informative and professional, and do not imply that the answer came from the document collection."

// Generator builds the mode-specific prompt and calls the language model.
// A nil or empty context block selects fallback mode. Failures are
// ErrGeneration and fatal for the current call; the generator never retries
// on its own.
type Generator struct {
	provider Provider
}

func NewGenerator(provider Provider) (*Generator, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: generator needs a provider", ErrInvalidConfig)
	}
	return &Generator{provider: provider}, nil
}

func (g *Generator) Generate(ctx context.Context, query Query, block *ContextBlock) (string, error) {
	prompt := buildPrompt(query, block)

	answer, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return answer, nil
}

// Stream is Generate with incremental delivery: the same mode-specific
// prompt, answer text arriving as deltas on the returned channel.
func (g *Generator) Stream(ctx context.Context, query Query, block *ContextBlock) (<-chan string, error) {
	prompt := buildPrompt(query, block)

	deltas, err := g.provider.Stream(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return deltas, nil
}

func buildPrompt(query Query, block *ContextBlock) string {
	var sb strings.Builder

	if block.Empty() {
		sb.WriteString(fallbackInstruction)
		sb.WriteString("\n\nQuestion: ")
		sb.WriteString(query.Text)
		return sb.String()
	}

	sb.WriteString(ragInstruction)
	sb.WriteString("\n\nContext documents:\n\n")
	sb.WriteString(block.Text)
	sb.WriteString("\n\n---\nQuestion: ")
	sb.WriteString(query.Text)
	return sb.String()
}
