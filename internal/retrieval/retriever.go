package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	DefaultTopK = 6
	embedBatch  = 64
)

// ErrEmptyIndex is returned by Retrieve when nothing has been indexed for the
// embedder's model.
var ErrEmptyIndex = errors.New("reference index is empty, run `swolecoach index`")

// Passage is a retrieved chunk with its similarity score.
type Passage struct {
	ID     string
	Source string
	Label  string
	Text   string
	Score  float64
}

// Retriever returns the passages most relevant to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Passage, error)
}

// VectorRetriever embeds the query and searches the index.
type VectorRetriever struct {
	index    *Index
	embedder Embedder
}

func NewVectorRetriever(ix *Index, e Embedder) *VectorRetriever {
	return &VectorRetriever{index: ix, embedder: e}
}

func (r *VectorRetriever) Retrieve(ctx context.Context, query string, k int) ([]Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty retrieval query")
	}
	if k <= 0 {
		k = DefaultTopK
	}
	n, err := r.index.Count(ctx, r.embedder.Model())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmptyIndex
	}
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for the query", len(vecs))
	}
	return r.index.Search(ctx, r.embedder.Model(), vecs[0], k)
}

// IndexStats summarizes one Build run.
type IndexStats struct {
	Pages    int
	Chunks   int
	Embedded int
	Skipped  int
}

// Build loads src, chunks it and embeds every chunk not already stored for
// the embedder's model. Running it twice on the same source adds nothing.
func Build(ctx context.Context, ix *Index, e Embedder, src string, chunkChars int, maxBytes int64, logger *slog.Logger) (IndexStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pages, err := LoadSource(ctx, src, maxBytes)
	if err != nil {
		return IndexStats{}, err
	}
	chunks, err := ChunkPages(pages, chunkChars)
	if err != nil {
		return IndexStats{}, err
	}
	stats := IndexStats{Pages: len(pages), Chunks: len(chunks)}

	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	have, err := ix.Has(ctx, e.Model(), ids)
	if err != nil {
		return stats, fmt.Errorf("check index: %w", err)
	}
	var todo []Chunk
	for _, c := range chunks {
		if have[c.ID] {
			stats.Skipped++
			continue
		}
		todo = append(todo, c)
	}

	for start := 0; start < len(todo); start += embedBatch {
		end := min(start+embedBatch, len(todo))
		batch := todo[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vecs, err := e.Embed(ctx, texts)
		if err != nil {
			return stats, fmt.Errorf("embed chunks %d-%d: %w", start, end, err)
		}
		if err := ix.Upsert(ctx, e.Model(), batch, vecs); err != nil {
			return stats, err
		}
		stats.Embedded += len(batch)
		logger.Info("indexed batch", "source", src, "embedded", stats.Embedded, "total", len(todo))
	}
	return stats, nil
}
