package retrieval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/aaronromeo/swolecoach/internal/id"
)

const DefaultChunkChars = 1200

var paraSplitRx = regexp.MustCompile(`\n\s*\n`)

// Chunk is an indexable slice of a page.
type Chunk struct {
	ID     string
	Source string
	Page   int
	Text   string
}

// Label is how the chunk is cited, e.g. "libro.txt p.45".
func (c Chunk) Label() string {
	return fmt.Sprintf("%s p.%d", c.Source, c.Page)
}

// ChunkPages splits each page into chunks of at most maxChars runes, trying
// paragraph breaks first, then lines, then words. Consecutive chunks overlap
// by up to maxChars/8.
func ChunkPages(pages []Page, maxChars int) ([]Chunk, error) {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxChars),
		textsplitter.WithChunkOverlap(maxChars/8),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)
	var out []Chunk
	for _, pg := range pages {
		var paras []string
		for _, p := range paraSplitRx.Split(pg.Text, -1) {
			if p = strings.Join(strings.Fields(p), " "); p != "" {
				paras = append(paras, p)
			}
		}
		if len(paras) == 0 {
			continue
		}
		texts, err := splitter.SplitText(strings.Join(paras, "\n\n"))
		if err != nil {
			return nil, fmt.Errorf("split %s page %d: %w", pg.Source, pg.Number, err)
		}
		for _, text := range texts {
			if text = strings.TrimSpace(text); text == "" {
				continue
			}
			out = append(out, Chunk{ID: id.ChunkID(pg.Source, text), Source: pg.Source, Page: pg.Number, Text: text})
		}
	}
	return dedupe(out), nil
}

func dedupe(chunks []Chunk) []Chunk {
	seen := map[string]bool{}
	out := chunks[:0]
	for _, c := range chunks {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
