package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/auth"
	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/validation"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// Store is the slice of the shared auth store the controller depends on.
type Store interface {
	State() auth.State
	Subscribe(fn func(auth.State)) (unsubscribe func())
	Dispatch(ctx context.Context, creds auth.Credentials) error
}

var _ Store = (*auth.Store)(nil)

// Snapshot is a copy of everything the view needs to render the screen.
type Snapshot struct {
	Form   form.Snapshot
	Mode   viewport.Mode
	Phase  Phase
	Auth   auth.State
	Active bool
}

// Loading reports whether the spinner replaces the submit control.
func (s Snapshot) Loading() bool {
	return s.Phase == PhaseSubmitting
}

// CanSubmit reports whether every field is valid.
func (s Snapshot) CanSubmit() bool {
	return s.Form.CanSubmit()
}

// Controller is the login form state controller. It is safe for concurrent
// use; listeners run outside the internal lock.
type Controller struct {
	store       Store
	source      viewport.Source
	validator   validation.Validator
	formOptions []form.Option
	clock       clockwork.Clock
	logger      *zap.Logger
	window      time.Duration
	policy      LoadingPolicy

	mu            sync.Mutex
	form          *form.Form
	mode          viewport.Mode
	phase         Phase
	authState     auth.State
	submitAttempt uint64
	windowElapsed bool
	timer         clockwork.Timer
	generation    uint64
	active        bool
	release       []func()
	listeners     map[int]func(Snapshot)
	nextListener  int
}

// New constructs a Controller bound to store.
func New(store Store, options ...Option) (*Controller, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	c := &Controller{
		store:     store,
		clock:     clockwork.NewRealClock(),
		logger:    zap.NewNop(),
		window:    DefaultLoadingWindow,
		policy:    LoadingFixedWindow,
		mode:      viewport.ModeLandscape,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.policy != LoadingFixedWindow && c.policy != LoadingUntilSettled {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLoadingPolicy, c.policy)
	}

	c.form = form.New(c.validator, c.formOptions...)
	if c.source != nil {
		c.mode = viewport.ComputeOrientation(c.source.Current().Height)
	}
	c.authState = store.State()
	return c, nil
}

// Activate subscribes to the viewport source and the store. When ctx is
// cancelled the controller deactivates itself. Activating an active
// controller is a no-op.
func (c *Controller) Activate(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("controller: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return nil
	}
	c.active = true
	c.mu.Unlock()

	var release []func()
	if c.source != nil {
		release = append(release, c.source.Subscribe(c.onViewport))
	}
	release = append(release, c.store.Subscribe(c.onStore))
	stop := context.AfterFunc(ctx, c.Deactivate)
	release = append(release, func() { stop() })

	c.mu.Lock()
	if !c.active {
		// Deactivated while subscribing.
		c.mu.Unlock()
		for _, fn := range release {
			fn()
		}
		return nil
	}
	c.release = release
	if c.source != nil {
		c.mode = viewport.ComputeOrientation(c.source.Current().Height)
	}
	c.authState = c.store.State()
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("controller activated", zap.String("mode", string(snapshot.Mode)))
	c.notify(snapshot)
	return nil
}

// Deactivate releases every subscription and stops the loading timer. It is
// idempotent and never notifies listeners.
func (c *Controller) Deactivate() {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	c.active = false
	release := c.release
	c.release = nil
	c.stopTimerLocked()
	c.generation++
	c.phase = PhaseIdle
	c.mu.Unlock()

	for _, fn := range release {
		fn()
	}
	c.logger.Debug("controller deactivated")
}

// Active reports whether the controller holds its subscriptions.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// UpdateField stores raw as the value of the named field and recomputes its
// validity. Other fields are not affected.
func (c *Controller) UpdateField(name form.FieldName, raw string) error {
	c.mu.Lock()
	if err := c.form.UpdateField(name, raw); err != nil {
		c.mu.Unlock()
		return err
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	return nil
}

// Submit dispatches the current credentials to the store, switches the phase
// to Submitting and arms the loading window. The controller does not wait for
// the attempt; its outcome arrives through the store subscription.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case !c.active:
		c.mu.Unlock()
		return ErrNotActive
	case c.phase == PhaseSubmitting:
		c.mu.Unlock()
		return ErrSubmitInFlight
	case !c.form.CanSubmit():
		c.mu.Unlock()
		return ErrNotSubmittable
	}

	creds := auth.Credentials{
		Email:    c.form.Value(form.FieldEmail),
		Password: c.form.Value(form.FieldPassword),
	}
	c.phase = PhaseSubmitting
	c.windowElapsed = false
	c.submitAttempt = c.authState.Attempt
	c.stopTimerLocked()
	c.generation++
	gen := c.generation
	c.timer = c.clock.AfterFunc(c.window, func() { c.onWindowElapsed(gen) })
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("login submitted", zap.String("email", creds.Email), zap.Duration("window", c.window))
	c.notify(snapshot)

	if err := c.store.Dispatch(ctx, creds); err != nil {
		c.mu.Lock()
		if c.generation == gen {
			c.stopTimerLocked()
			c.generation++
			c.phase = PhaseIdle
		}
		snapshot := c.snapshotLocked()
		c.mu.Unlock()

		c.logger.Warn("login dispatch failed", zap.Error(err))
		c.notify(snapshot)
		return fmt.Errorf("controller: dispatch: %w", err)
	}
	return nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnChange registers fn for every state change. The returned function removes
// the listener.
func (c *Controller) OnChange(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) onViewport(ev viewport.Event) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	mode := ev.Mode()
	if mode == c.mode {
		c.mu.Unlock()
		return
	}
	c.mode = mode
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("view mode changed", zap.String("mode", string(mode)), zap.Int("height", ev.Height))
	c.notify(snapshot)
}

func (c *Controller) onStore(state auth.State) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	// Store notifications may arrive out of order; never step back to an
	// older attempt.
	if state.Attempt < c.authState.Attempt {
		c.mu.Unlock()
		c.logger.Debug("stale store state ignored",
			zap.Uint64("attempt", state.Attempt),
			zap.Uint64("current", c.authState.Attempt),
		)
		return
	}
	c.authState = state
	if c.policy == LoadingUntilSettled && c.phase == PhaseSubmitting && c.windowElapsed && c.settledLocked() {
		c.phase = PhaseIdle
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
}

func (c *Controller) onWindowElapsed(gen uint64) {
	c.mu.Lock()
	if !c.active || gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.windowElapsed = true
	if c.policy == LoadingFixedWindow || c.settledLocked() {
		c.phase = PhaseIdle
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug("loading window elapsed", zap.Stringer("phase", snapshot.Phase))
	c.notify(snapshot)
}

// settledLocked reports whether the store finished an attempt newer than the
// one observed at submit time.
func (c *Controller) settledLocked() bool {
	return c.authState.Attempt > c.submitAttempt && !c.authState.Loading
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	state := c.authState
	if state.Session != nil {
		sess := *state.Session
		state.Session = &sess
	}
	return Snapshot{
		Form:   c.form.Snapshot(),
		Mode:   c.mode,
		Phase:  c.phase,
		Auth:   state,
		Active: c.active,
	}
}

func (c *Controller) notify(snapshot Snapshot) {
	c.mu.Lock()
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
