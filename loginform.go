// Package loginform wires the login screen together: a shared auth store
// around an authenticator, a viewport broadcaster and the form state
// controller bound to both. Front-ends live under pkg/renderers.
package loginform

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/auth"
	"github.com/goliatone/go-loginform/pkg/controller"
	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// Snapshot aliases controller.Snapshot for callers that only import the root
// package.
type Snapshot = controller.Snapshot

// Credentials aliases auth.Credentials.
type Credentials = auth.Credentials

// Session aliases auth.Session.
type Session = auth.Session

// ErrAuthenticatorRequired is returned by New without an authenticator.
var ErrAuthenticatorRequired = errors.New("loginform: authenticator is required")

// Option configures New.
type Option func(*settings)

type settings struct {
	logger     *zap.Logger
	initial    viewport.Event
	controller []controller.Option
	store      []auth.StoreOption
}

// WithLogger sets the logger shared by the store and the controller.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInitialViewport seeds the broadcaster before the first resize arrives.
func WithInitialViewport(ev viewport.Event) Option {
	return func(s *settings) {
		s.initial = ev
	}
}

// WithControllerOptions forwards options to controller.New.
func WithControllerOptions(opts ...controller.Option) Option {
	return func(s *settings) {
		s.controller = append(s.controller, opts...)
	}
}

// WithStoreOptions forwards options to auth.NewStore.
func WithStoreOptions(opts ...auth.StoreOption) Option {
	return func(s *settings) {
		s.store = append(s.store, opts...)
	}
}

// Screen bundles the collaborators of one login screen.
type Screen struct {
	Controller *controller.Controller
	Store      *auth.Store
	Viewport   *viewport.Broadcaster
}

// New builds a Screen around authenticator. The controller is returned
// inactive; front-ends activate it for as long as they are displayed.
func New(authenticator auth.Authenticator, options ...Option) (*Screen, error) {
	if authenticator == nil {
		return nil, ErrAuthenticatorRequired
	}
	cfg := settings{logger: zap.NewNop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	storeOpts := append([]auth.StoreOption{auth.WithLogger(cfg.logger.Named("auth"))}, cfg.store...)
	store := auth.NewStore(authenticator, storeOpts...)
	screen := viewport.NewBroadcaster(cfg.initial)

	ctrlOpts := append([]controller.Option{
		controller.WithLogger(cfg.logger.Named("controller")),
		controller.WithViewportSource(screen),
	}, cfg.controller...)
	ctrl, err := controller.New(store, ctrlOpts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Screen{Controller: ctrl, Store: store, Viewport: screen}, nil
}

// Login fills both fields and submits them. It is a shortcut for scripted
// front-ends; the outcome arrives through the controller like any other
// submit.
func (s *Screen) Login(ctx context.Context, creds Credentials) error {
	if err := s.Controller.UpdateField(form.FieldEmail, creds.Email); err != nil {
		return err
	}
	if err := s.Controller.UpdateField(form.FieldPassword, creds.Password); err != nil {
		return err
	}
	return s.Controller.Submit(ctx)
}

// Close deactivates the controller and cancels any attempt in flight.
func (s *Screen) Close() error {
	s.Controller.Deactivate()
	return s.Store.Close()
}
