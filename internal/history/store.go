package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atombender/go-jsonschema/pkg/types"

	"github.com/aaronromeo/swolecoach/internal/jsonfile"
)

var ErrInvalidUser = errors.New("invalid user id")

// Store keeps one ordered JSON list of entries per user under dir.
type Store struct {
	dir string
	now func() time.Time
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) path(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return filepath.Join(s.dir, userID+".json"), nil
}

// All returns the user's history in insertion order. A missing or blank file
// is an empty history; a malformed one is an error.
func (s *Store) All(userID string) ([]Entry, error) {
	p, err := s.path(userID)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("corrupt history %s: %w", p, err)
	}
	return entries, nil
}

// Last returns at most n most recent entries, oldest first.
func (s *Store) Last(userID string, n int) ([]Entry, error) {
	all, err := s.All(userID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// Append stamps l with the current time and adds it to the user's history.
func (s *Store) Append(userID string, l Log) (Entry, error) {
	now := s.now()
	e := Entry{
		Timestamp: now.Format(time.RFC3339),
		Date:      types.SerializableDate{Time: now},
		UserID:    userID,
		Exercise:  l.Exercise,
		Sets:      l.Sets,
		Reps:      l.Reps,
		WeightKg:  l.WeightKg,
	}
	if err := s.appendEntries(userID, []Entry{e}); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Store) appendEntries(userID string, add []Entry) error {
	p, err := s.path(userID)
	if err != nil {
		return err
	}
	all, err := s.All(userID)
	if err != nil {
		return err
	}
	all = append(all, add...)
	data, err := jsonfile.Marshal(all)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := jsonfile.WriteAtomic(p, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
