package internal

import (
	"context"
	"sync"
)

type fakeEmbedder struct {
	dim  int
	vecs map[string][]float32
	err  error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vecs[text]; ok {
		return v, nil
	}
	v := make([]float32, f.dim)
	v[0] = 1
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

type fakeProvider struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	prompts []string
}

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.reply != nil {
		return f.reply(prompt)
	}
	return "ok", nil
}

func (f *fakeProvider) Stream(ctx context.Context, prompt string) (<-chan string, error) {
	answer, err := f.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	ch := make(chan string, 1)
	ch <- answer
	close(ch)
	return ch, nil
}

func (f *fakeProvider) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func (f *fakeProvider) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type fakeIndex struct {
	matches []ScoredMatch
	err     error
}

func (f *fakeIndex) Upsert(Passage) error { return nil }

func (f *fakeIndex) Search(context.Context, []float32, int) ([]ScoredMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeIndex) Len() int                   { return len(f.matches) }
func (f *fakeIndex) Save(context.Context) error { return nil }
func (f *fakeIndex) Load(context.Context) error { return nil }
