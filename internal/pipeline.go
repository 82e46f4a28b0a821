package internal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PipelineConfig is the full construction surface of the pipeline. All
// values are validated once at construction; nothing is read from ambient
// process state afterwards.
type PipelineConfig struct {
	K               int
	Threshold       float64
	MaxContextChars int

	// GenerateTimeout bounds a single generation call. Zero disables the
	// per-call deadline.
	GenerateTimeout time.Duration

	// FallbackOnTimeout enables exactly one fallback-mode retry when
	// RAG-mode generation fails with a deadline error. Off by default; a
	// plain service error is never retried because the retry would hit the
	// same failing service.
	FallbackOnTimeout bool
}

// Pipeline answers queries by retrieval-augmented generation with an
// explicit fallback to the model's general knowledge. Each Answer call is
// stateless: the query is re-embedded and the index re-searched every time,
// so index updates are visible immediately.
type Pipeline struct {
	retriever *Retriever
	assembler *ContextAssembler
	generator *Generator
	cfg       PipelineConfig
	log       *zap.Logger
}

func NewPipeline(embedder Embedder, index VectorIndex, provider Provider, cfg PipelineConfig, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	retriever, err := NewRetriever(embedder, index, cfg.K, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	assembler, err := NewContextAssembler(cfg.MaxContextChars)
	if err != nil {
		return nil, err
	}
	generator, err := NewGenerator(provider)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		cfg:       cfg,
		log:       log,
	}, nil
}

// Answer runs one query through retrieve → decide → generate. Infrastructure
// failures (ErrEmbedding, ErrIndex, ErrGeneration) are returned to the
// caller; they are never converted into a generated answer or a fallback.
func (p *Pipeline) Answer(ctx context.Context, queryText string) (AnsweredResult, error) {
	query, err := NewQuery(queryText)
	if err != nil {
		return AnsweredResult{}, err
	}

	result, err := p.retriever.Retrieve(ctx, query)
	if err != nil {
		p.log.Error("retrieval failed", zap.Error(err))
		return AnsweredResult{}, err
	}

	mode := Decide(result)
	p.log.Info("retrieval done",
		zap.Int("matches", len(result.Matches)),
		zap.Bool("succeeded", result.Succeeded),
		zap.String("mode", string(mode)),
	)

	if mode == ModeFallback {
		return p.answerFallback(ctx, query)
	}

	block := p.assembler.Assemble(result.Matches)
	if block.Empty() {
		// Every match overflowed the context budget; nothing grounds the
		// answer, so attribution would be a lie.
		p.log.Warn("all matches exceeded context budget, falling back",
			zap.Int("matches", len(result.Matches)))
		return p.answerFallback(ctx, query)
	}

	answer, err := p.generate(ctx, query, &block)
	if err != nil {
		if p.cfg.FallbackOnTimeout && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			p.log.Warn("generation timed out in RAG mode, retrying without context")
			return p.answerFallback(ctx, query)
		}
		p.log.Error("generation failed", zap.Error(err))
		return AnsweredResult{}, err
	}

	return AnsweredResult{
		Answer:  answer,
		Mode:    ModeRAG,
		Sources: block.Sources,
	}, nil
}

// StreamedAnswer is the incremental counterpart of AnsweredResult. Mode and
// Sources are fixed before generation starts; the answer text arrives on
// Deltas until the channel closes.
type StreamedAnswer struct {
	Deltas  <-chan string
	Mode    Mode
	Sources []string
}

// AnswerStream runs the same retrieve → decide → generate flow as Answer but
// streams the answer text. The per-call generation timeout and the
// fallback-on-timeout retry do not apply here; the caller's context governs
// the stream.
func (p *Pipeline) AnswerStream(ctx context.Context, queryText string) (StreamedAnswer, error) {
	query, err := NewQuery(queryText)
	if err != nil {
		return StreamedAnswer{}, err
	}

	result, err := p.retriever.Retrieve(ctx, query)
	if err != nil {
		p.log.Error("retrieval failed", zap.Error(err))
		return StreamedAnswer{}, err
	}

	mode := Decide(result)
	p.log.Info("retrieval done",
		zap.Int("matches", len(result.Matches)),
		zap.Bool("succeeded", result.Succeeded),
		zap.String("mode", string(mode)),
	)

	var block *ContextBlock
	var sources []string
	if mode == ModeRAG {
		assembled := p.assembler.Assemble(result.Matches)
		if assembled.Empty() {
			p.log.Warn("all matches exceeded context budget, falling back",
				zap.Int("matches", len(result.Matches)))
			mode = ModeFallback
		} else {
			block = &assembled
			sources = assembled.Sources
		}
	}

	deltas, err := p.generator.Stream(ctx, query, block)
	if err != nil {
		p.log.Error("generation failed", zap.Error(err))
		return StreamedAnswer{}, err
	}

	return StreamedAnswer{
		Deltas:  deltas,
		Mode:    mode,
		Sources: sources,
	}, nil
}

func (p *Pipeline) answerFallback(ctx context.Context, query Query) (AnsweredResult, error) {
	answer, err := p.generate(ctx, query, nil)
	if err != nil {
		p.log.Error("fallback generation failed", zap.Error(err))
		return AnsweredResult{}, err
	}

	return AnsweredResult{
		Answer: answer,
		Mode:   ModeFallback,
	}, nil
}

func (p *Pipeline) generate(ctx context.Context, query Query, block *ContextBlock) (string, error) {
	if p.cfg.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.GenerateTimeout)
		defer cancel()
	}

	answer, err := p.generator.Generate(ctx, query, block)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("%w: provider returned empty answer", ErrGeneration)
	}
	return answer, nil
}
