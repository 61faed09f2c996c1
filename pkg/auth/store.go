package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithErrorMessage overrides how authentication errors become banner text.
func WithErrorMessage(fn func(error) string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.message = fn
		}
	}
}

// Store is the shared auth state holder. It is safe for concurrent use.
type Store struct {
	authenticator Authenticator
	logger        *zap.Logger
	message       func(error) string

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewStore constructs a Store around authenticator.
func NewStore(authenticator Authenticator, options ...StoreOption) *Store {
	s := &Store{
		authenticator: authenticator,
		logger:        zap.NewNop(),
		message:       DefaultErrorMessage,
		subs:          make(map[int]func(State)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// Subscribe registers fn for every state change. The returned function
// removes the subscription and may be called more than once.
func (s *Store) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}
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

// Dispatch starts a login attempt. Any attempt still in flight is cancelled
// and its outcome discarded. The previous error is cleared immediately and
// Loading is set until the new attempt settles. ctx bounds the attempt.
func (s *Store) Dispatch(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	attemptCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Attempt++
	s.state.Email = creds.Email
	s.state.Password = creds.Password
	s.state.Error = ""
	s.state.Loading = true
	attempt := s.state.Attempt
	s.wg.Add(1)
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("login dispatched", zap.String("email", creds.Email), zap.Uint64("attempt", attempt))
	notify(subs, snapshot)

	go s.run(attemptCtx, cancel, attempt, creds)
	return nil
}

func (s *Store) run(ctx context.Context, cancel context.CancelFunc, attempt uint64, creds Credentials) {
	defer s.wg.Done()
	defer cancel()

	var (
		session Session
		err     error
	)
	if s.authenticator == nil {
		err = ErrInvalidCredentials
	} else {
		session, err = s.authenticator.Authenticate(ctx, creds)
	}

	s.mu.Lock()
	if s.closed || s.state.Attempt != attempt {
		s.mu.Unlock()
		s.logger.Debug("stale login attempt discarded", zap.Uint64("attempt", attempt))
		return
	}
	s.state.Loading = false
	s.cancel = nil
	if err != nil {
		s.state.Error = s.message(err)
		s.state.Session = nil
	} else {
		sess := session
		s.state.Session = &sess
		s.state.Error = ""
	}
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Info("login failed", zap.String("email", creds.Email), zap.Error(err))
	} else {
		s.logger.Info("login succeeded", zap.String("email", creds.Email), zap.String("user_id", session.UserID))
	}
	notify(subs, snapshot)
}

// ClearError drops the current error text.
func (s *Store) ClearError() {
	s.mu.Lock()
	if s.state.Error == "" {
		s.mu.Unlock()
		return
	}
	s.state.Error = ""
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()
	notify(subs, snapshot)
}

// Close cancels any attempt in flight and waits for it to return. Later
// Dispatch calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}

func (s *Store) snapshotLocked() (State, []func(State)) {
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return copyState(s.state), subs
}

func notify(subs []func(State), state State) {
	for _, fn := range subs {
		fn(state)
	}
}

func copyState(state State) State {
	if state.Session != nil {
		sess := *state.Session
		state.Session = &sess
	}
	return state
}
