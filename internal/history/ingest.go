package history

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/atombender/go-jsonschema/pkg/types"
	"github.com/hashicorp/go-retryablehttp"
)

// "- 2025-03-01: sentadilla 5x5 100kg" or "| 2025-03-01 | 5x5 de sentadilla con 100kg |"
var lineRx = regexp.MustCompile(`^\s*[-*|]?\s*(\d{4}-\d{2}-\d{2})\s*[:|\-–]?\s*(.+?)\s*\|?\s*$`)

// Dated is a parsed markdown history line.
type Dated struct {
	Date time.Time
	Log  Log
}

// FetchURL downloads a markdown log with retries, reading at most maxBytes
// when maxBytes > 0.
func FetchURL(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	c := retryablehttp.NewClient()
	c.Logger = nil
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: %d", url, resp.StatusCode)
	}
	return readCapped(resp.Body, maxBytes)
}

// ReadSource reads a markdown log from an http(s) URL or a local path.
func ReadSource(ctx context.Context, src string, maxBytes int64) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return FetchURL(ctx, src, maxBytes)
	}
	f, err := os.Open(strings.TrimPrefix(src, "file://"))
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return readCapped(f, maxBytes)
}

func readCapped(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes)
	}
	return io.ReadAll(r)
}

// ParseHistoryMarkdown extracts dated lines that Parse understands; other
// lines are skipped and counted.
func ParseHistoryMarkdown(raw []byte) ([]Dated, int) {
	var out []Dated
	skipped := 0
	for _, ln := range strings.Split(string(raw), "\n") {
		m := lineRx.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		d, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			skipped++
			continue
		}
		l, err := Parse(strings.Trim(m[2], "| "))
		if err != nil {
			skipped++
			continue
		}
		out = append(out, Dated{Date: d, Log: l})
	}
	return out, skipped
}

// Import appends dated logs to the user's history, keeping their dates.
func (s *Store) Import(userID string, logs []Dated) (int, error) {
	if len(logs) == 0 {
		return 0, nil
	}
	entries := make([]Entry, 0, len(logs))
	for _, d := range logs {
		entries = append(entries, Entry{
			Timestamp: d.Date.Format(time.RFC3339),
			Date:      types.SerializableDate{Time: d.Date},
			UserID:    userID,
			Exercise:  d.Log.Exercise,
			Sets:      d.Log.Sets,
			Reps:      d.Log.Reps,
			WeightKg:  d.Log.WeightKg,
		})
	}
	if err := s.appendEntries(userID, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
