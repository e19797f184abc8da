package llm

import (
	"context"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Passage is one retrieved piece of context.
type Passage struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

type entry struct {
	content  string
	metadata map[string]string
	vector   []float64
}

// Index is an in-memory cosine-similarity index.
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []entry
}

func NewIndex(e Embedder) *Index {
	return &Index{embedder: e}
}

// Add embeds contents and stores them with a shared metadata map.
func (ix *Index) Add(ctx context.Context, contents []string, metadata map[string]string) error {
	if len(contents) == 0 {
		return nil
	}
	vectors, err := ix.embedder.Embed(ctx, contents)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, c := range contents {
		ix.entries = append(ix.entries, entry{content: c, metadata: metadata, vector: widen(vectors[i])})
	}
	return nil
}

// Len returns the number of indexed passages.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search returns the k passages most similar to query, best first.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 || ix.Len() == 0 {
		return nil, nil
	}
	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	q := widen(vectors[0])

	ix.mu.RLock()
	out := make([]Passage, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, Passage{Content: e.content, Metadata: e.metadata, Score: cosine(q, e.vector)})
	}
	ix.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
