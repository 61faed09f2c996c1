package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-loginform/pkg/auth"
)

// Store is a scriptable auth store. Dispatch records the credentials and
// leaves the state loading until Settle or Fail is called, mirroring a login
// request that is still on the wire.
type Store struct {
	// DispatchErr, when set, is returned by Dispatch without touching state.
	DispatchErr error

	mu         sync.Mutex
	state      auth.State
	subs       map[int]func(auth.State)
	nextID     int
	dispatched []auth.Credentials
}

// NewStore returns an idle Store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(auth.State))}
}

// State returns the current snapshot.
func (s *Store) State() auth.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn for state changes.
func (s *Store) Subscribe(fn func(auth.State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Dispatch records creds and publishes a loading state.
func (s *Store) Dispatch(_ context.Context, creds auth.Credentials) error {
	if s.DispatchErr != nil {
		return s.DispatchErr
	}
	s.update(func(state *auth.State) {
		s.dispatched = append(s.dispatched, creds)
		state.Attempt++
		state.Email = creds.Email
		state.Password = creds.Password
		state.Error = ""
		state.Loading = true
	})
	return nil
}

// Settle finishes the pending attempt successfully.
func (s *Store) Settle(session auth.Session) {
	s.update(func(state *auth.State) {
		state.Loading = false
		state.Error = ""
		state.Session = &session
	})
}

// Fail finishes the pending attempt with msg as the error text.
func (s *Store) Fail(msg string) {
	s.update(func(state *auth.State) {
		state.Loading = false
		state.Error = msg
		state.Session = nil
	})
}

// SetError replaces the error text without settling anything.
func (s *Store) SetError(msg string) {
	s.update(func(state *auth.State) {
		state.Error = msg
	})
}

// Deliver sends state to every subscriber without storing it, as a late
// notification from an earlier attempt would.
func (s *Store) Deliver(state auth.State) {
	s.mu.Lock()
	subs := make([]func(auth.State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(state)
	}
}

// Dispatched returns the credentials of every Dispatch call.
func (s *Store) Dispatched() []auth.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.Credentials(nil), s.dispatched...)
}

// Subscribers reports the number of active subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) update(fn func(*auth.State)) {
	s.mu.Lock()
	fn(&s.state)
	state := s.state
	subs := make([]func(auth.State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(state)
	}
}

// WaitFor polls cond until it holds or two seconds pass. Timer callbacks from
// fake clocks may run on their own goroutine, so assertions on their effects
// go through here.
func WaitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
