package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/aaronromeo/swolecoach/internal/history"
	"github.com/aaronromeo/swolecoach/internal/pipeline"
	"github.com/aaronromeo/swolecoach/internal/workout"
)

type fakeBackend struct {
	mu      sync.Mutex
	reqs    []pipeline.Request
	state   pipeline.State
	entries []history.Entry
	histErr error
	lastN   int
}

func (f *fakeBackend) Turn(_ context.Context, req pipeline.Request) pipeline.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	st := f.state
	st.UserID = req.UserID
	st.RequestType = req.RequestType
	return st
}

func (f *fakeBackend) RecentHistory(userID string, n int) ([]history.Entry, error) {
	f.lastN = n
	if f.histErr != nil {
		return nil, f.histErr
	}
	return f.entries, nil
}

func do(t *testing.T, b Backend, method, path, body string) (int, map[string]any) {
	t.Helper()
	app := NewServer(b, slog.New(slog.NewTextHandler(io.Discard, nil)))
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Fatalf("close response body error: %v", err)
		}
	}()
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	code, _ := do(t, &fakeBackend{}, http.MethodGet, "/healthz", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
}

func TestPostTurn(t *testing.T) {
	routine := &workout.Routine{ID: "rt-1", Name: "Fuerza"}
	tests := []struct {
		name     string
		body     string
		state    pipeline.State
		wantCode int
		wantType pipeline.RequestType
		want     map[string]any
	}{
		{
			name:     "classified from message",
			body:     `{"user_id":"u1","message":"muéstrame mi historial"}`,
			state:    pipeline.State{TurnID: "t1", Step: pipeline.StepHistoryQueried, Response: "📭 No hay entrenamientos registrados aún."},
			wantCode: http.StatusOK,
			wantType: pipeline.RequestQueryHistory,
			want:     map[string]any{"turn_id": "t1", "step": "history_queried", "response": "📭 No hay entrenamientos registrados aún."},
		},
		{
			name:     "explicit type and saved routine",
			body:     `{"user_id":"u1","message":"hola","request_type":"crear_rutina"}`,
			state:    pipeline.State{TurnID: "t2", Step: pipeline.StepSaved, Response: "✅ Rutina guardada exitosamente en tu perfil.", Routine: routine},
			wantCode: http.StatusOK,
			wantType: pipeline.RequestCreateRoutine,
		},
		{
			name:     "handled failure is still 200",
			body:     `{"user_id":"nadie","message":"quiero una rutina"}`,
			state:    pipeline.State{TurnID: "t3", Step: pipeline.StepError, Kind: pipeline.KindUserNotFound, Response: "❌ Lo siento"},
			wantCode: http.StatusOK,
			wantType: pipeline.RequestCreateRoutine,
			want:     map[string]any{"turn_id": "t3", "step": "error", "response": "❌ Lo siento", "error_kind": "user_not_found"},
		},
		{name: "invalid json", body: `{"user_id":`, wantCode: http.StatusBadRequest},
		{name: "missing user", body: `{"message":"historial"}`, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{state: tt.state}
			code, out := do(t, b, http.MethodPost, "/v1/turns", tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d body = %v", code, out)
			}
			if code != http.StatusOK {
				if len(b.reqs) != 0 || out["error"] == nil {
					t.Fatalf("bad request reached backend or lacks error: %v", out)
				}
				return
			}
			if len(b.reqs) != 1 || b.reqs[0].RequestType != tt.wantType {
				t.Fatalf("requests = %+v", b.reqs)
			}
			if tt.want != nil {
				if diff := cmp.Diff(tt.want, out); diff != "" {
					t.Fatalf("body mismatch (-want +got):\n%s", diff)
				}
			}
			if tt.state.Step == pipeline.StepSaved {
				r, ok := out["routine"].(map[string]any)
				if !ok || r["id"] != "rt-1" {
					t.Fatalf("routine = %v", out["routine"])
				}
			}
		})
	}
}

func TestGetHistory(t *testing.T) {
	b := &fakeBackend{entries: []history.Entry{{UserID: "u1", Exercise: "sentadilla", Sets: 5, Reps: 5, WeightKg: 100}}}
	code, out := do(t, b, http.MethodGet, "/v1/users/u1/history?n=3", "")
	if code != http.StatusOK || b.lastN != 3 {
		t.Fatalf("status = %d n = %d", code, b.lastN)
	}
	entries, ok := out["entries"].([]any)
	if !ok || len(entries) != 1 || entries[0].(map[string]any)["ejercicio"] != "sentadilla" {
		t.Fatalf("body = %v", out)
	}

	if code, _ := do(t, b, http.MethodGet, "/v1/users/u1/history", ""); code != http.StatusOK || b.lastN != pipeline.DefaultHistoryLimit {
		t.Fatalf("default n: status = %d n = %d", code, b.lastN)
	}
	if code, _ := do(t, b, http.MethodGet, "/v1/users/u1/history?n=0", ""); code != http.StatusBadRequest {
		t.Fatalf("n=0 status = %d", code)
	}

	empty := &fakeBackend{}
	code, out = do(t, empty, http.MethodGet, "/v1/users/u2/history", "")
	if entries, ok := out["entries"].([]any); code != http.StatusOK || !ok || len(entries) != 0 {
		t.Fatalf("empty history: status = %d body = %v", code, out)
	}

	bad := &fakeBackend{histErr: fmt.Errorf("%w: %q", history.ErrInvalidUser, "..")}
	if code, _ := do(t, bad, http.MethodGet, "/v1/users/x/history", ""); code != http.StatusBadRequest {
		t.Fatalf("invalid user status = %d", code)
	}
	broken := &fakeBackend{histErr: fmt.Errorf("decode history: boom")}
	if code, _ := do(t, broken, http.MethodGet, "/v1/users/u1/history", ""); code != http.StatusInternalServerError {
		t.Fatalf("broken history status = %d", code)
	}
}

type slowBackend struct {
	fakeBackend
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (b *slowBackend) Turn(ctx context.Context, req pipeline.Request) pipeline.State {
	n := b.active.Add(1)
	for {
		m := b.maxSeen.Load()
		if n <= m || b.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	b.active.Add(-1)
	return b.fakeBackend.Turn(ctx, req)
}

func TestPostTurn_SerialisesPerUser(t *testing.T) {
	b := &slowBackend{}
	app := NewServer(b, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/v1/turns", strings.NewReader(`{"user_id":"u1","message":"historial"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req, -1)
			if err != nil {
				errs <- err
				return
			}
			resp.Body.Close() //nolint:errcheck
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("status = %d", resp.StatusCode)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("request: %v", err)
	}
	if got := b.maxSeen.Load(); got != 1 {
		t.Fatalf("max concurrent turns for one user = %d", got)
	}
	if len(b.reqs) != 10 {
		t.Fatalf("turns = %d", len(b.reqs))
	}
}
