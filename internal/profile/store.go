package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aaronromeo/swolecoach/internal/jsonfile"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrCorrupt      = errors.New("corrupt profile")
	ErrVerification = errors.New("persistence verification failed")
)

// IncompleteError names every required key absent from a profile.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return "incomplete profile: missing " + strings.Join(e.Missing, ", ")
}

const backupStamp = "20060102150405"

// Store reads and writes one JSON document per user under dir.
type Store struct {
	dir    string
	now    func() time.Time
	write  func(path string, data []byte) error
	logger *slog.Logger
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir:    dir,
		now:    time.Now,
		write:  jsonfile.WriteAtomic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dir() string { return s.dir }

// Path returns the document path for userID; IDs that would escape the
// directory are rejected.
func (s *Store) Path(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("%w: invalid user id %q", ErrNotFound, userID)
	}
	return filepath.Join(s.dir, userID+".json"), nil
}

// Load reads and checks the profile of userID.
func (s *Store) Load(userID string) (Profile, error) {
	path, err := s.Path(userID)
	if err != nil {
		return Profile{}, err
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Profile{}, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if missing := missingKeys(doc); len(missing) > 0 {
		return Profile{}, &IncompleteError{Missing: missing}
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	p.UserID = userID
	return p, nil
}

func missingKeys(doc map[string]json.RawMessage) []string {
	var missing []string
	for _, k := range RequiredKeys {
		v, ok := doc[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		var str string
		switch t := strings.TrimSpace(string(v)); {
		case t == "null":
			missing = append(missing, k)
		case json.Unmarshal(v, &str) == nil && strings.TrimSpace(str) == "":
			missing = append(missing, k)
		}
	}
	return missing
}

// SaveRoutine stores r as the user's active routine. The current document is
// copied to {user}.json.<YYYYMMDDHHMMSS>.backup first (numbered when that name
// is taken, so earlier backups are never overwritten), the merged document is
// written atomically and read back to confirm r.CreatedAt landed. When a step
// after reading fails, the original bytes are written back.
// It returns the backup path.
func (s *Store) SaveRoutine(userID string, r workout.Routine) (string, error) {
	path, err := s.Path(userID)
	if err != nil {
		return "", err
	}
	original, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	if err != nil {
		return "", fmt.Errorf("read profile: %w", err)
	}

	backup, err := s.persist(path, original, r)
	if err == nil {
		return backup, nil
	}

	if rerr := s.write(path, original); rerr != nil {
		s.logger.Error("profile restore failed", "user_id", userID, "err", rerr)
		return backup, fmt.Errorf("%w | warning: restore failed: %v", err, rerr)
	}
	s.logger.Warn("profile restored after failed save", "user_id", userID, "err", err)
	return backup, err
}

func (s *Store) persist(path string, original []byte, r workout.Routine) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(original, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc == nil {
		return "", fmt.Errorf("%w: document is null", ErrCorrupt)
	}

	now := s.now()
	backup, err := writeBackup(path+"."+now.Format(backupStamp), original)
	if err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}

	routine, err := jsonfile.Marshal(r)
	if err != nil {
		return backup, fmt.Errorf("marshal routine: %w", err)
	}
	updated, err := json.Marshal(now.Format(time.RFC3339Nano))
	if err != nil {
		return backup, fmt.Errorf("marshal updated_at: %w", err)
	}
	doc["rutina_activa"] = routine
	doc["updated_at"] = updated

	data, err := jsonfile.Marshal(doc)
	if err != nil {
		return backup, fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.write(path, data); err != nil {
		return backup, fmt.Errorf("write profile: %w", err)
	}
	return backup, s.verify(path, r.CreatedAt)
}

// maxBackupsPerSecond bounds the numbered names tried for one timestamp.
const maxBackupsPerSecond = 100

// writeBackup creates base+".backup" without overwriting an existing file.
// Saves within the same second get base+".1.backup", base+".2.backup" and so
// on.
func writeBackup(base string, data []byte) (string, error) {
	for n := 0; n < maxBackupsPerSecond; n++ {
		name := base + ".backup"
		if n > 0 {
			name = fmt.Sprintf("%s.%d.backup", base, n)
		}
		f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close() //nolint:errcheck
			return name, err
		}
		return name, f.Close()
	}
	return "", fmt.Errorf("%d backups already exist for %s", maxBackupsPerSecond, base)
}

func (s *Store) verify(path, createdAt string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	var check struct {
		Routine *struct {
			CreatedAt string `json:"fecha_creacion"`
		} `json:"rutina_activa"`
	}
	if err := json.Unmarshal(raw, &check); err != nil {
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}
	if check.Routine == nil || check.Routine.CreatedAt != createdAt {
		return fmt.Errorf("%w: fecha_creacion mismatch", ErrVerification)
	}
	return nil
}
