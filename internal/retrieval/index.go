package retrieval

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// schemaVersion is stored in PRAGMA user_version. Version 0 files keyed rows
// by chunk id alone; they are dropped and rebuilt by the next index run.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	id TEXT NOT NULL,
	source TEXT NOT NULL,
	page INTEGER NOT NULL,
	content TEXT NOT NULL,
	model TEXT NOT NULL,
	embedding BLOB NOT NULL,
	PRIMARY KEY (id, model)
);
CREATE INDEX IF NOT EXISTS idx_chunks_model ON chunks(model);
`

// Index is a SQLite-backed vector store of embedded chunks.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the index database at path.
func OpenIndex(path string) (*Index, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &Index{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version < schemaVersion {
		if _, err := db.Exec(`DROP TABLE IF EXISTS chunks`); err != nil {
			return err
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion))
	return err
}

func (ix *Index) Close() error { return ix.db.Close() }

// Has reports which of ids are already stored for model.
func (ix *Index) Has(ctx context.Context, model string, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	stmt, err := ix.db.PrepareContext(ctx, `SELECT 1 FROM chunks WHERE id = ? AND model = ?`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close() //nolint:errcheck
	for _, id := range ids {
		var one int
		switch err := stmt.QueryRowContext(ctx, id, model).Scan(&one); err {
		case nil:
			found[id] = true
		case sql.ErrNoRows:
		default:
			return nil, err
		}
	}
	return found, nil
}

// Upsert stores chunks with their vectors under model. Re-storing an id for
// the same model replaces it; other models keep their own rows.
func (ix *Index) Upsert(ctx context.Context, model string, chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("upsert: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO chunks (id, source, page, content, model, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close() //nolint:errcheck
	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Source, c.Page, c.Text, model, float32SliceToBytes(vectors[i])); err != nil {
			return fmt.Errorf("upsert %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Count returns the number of stored chunks for model; empty model counts all.
func (ix *Index) Count(ctx context.Context, model string) (int, error) {
	var n int
	var err error
	if model == "" {
		err = ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	} else {
		err = ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE model = ?`, model).Scan(&n)
	}
	return n, err
}

// Search returns up to topK passages by cosine similarity to query, best first.
func (ix *Index) Search(ctx context.Context, model string, query []float32, topK int) ([]Passage, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT id, source, page, content, embedding FROM chunks WHERE model = ?`, model)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Passage
	for rows.Next() {
		var (
			c    Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Source, &c.Page, &c.Text, &blob); err != nil {
			return nil, err
		}
		out = append(out, Passage{
			ID:     c.ID,
			Source: c.Source,
			Label:  c.Label(),
			Text:   c.Text,
			Score:  cosineSimilarity(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func float32SliceToBytes(v []float32) []byte {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func bytesToFloat32Slice(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

// cosineSimilarity is 0 for vectors of different length or zero norm.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
