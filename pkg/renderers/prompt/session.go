// Package prompt runs the login screen as a sequence of terminal prompts.
// Answers flow through the same controller as the interactive screen; after
// every attempt the screen is printed with the text renderer.
package prompt

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/goliatone/go-loginform/pkg/auth"
	"github.com/goliatone/go-loginform/pkg/controller"
	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/view"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// Session drives one login through a PromptDriver.
type Session struct {
	ctrl        *controller.Controller
	driver      PromptDriver
	renderer    *view.TextRenderer
	screen      *viewport.Broadcaster
	size        SizeFunc
	cellHeight  int
	maxAttempts int
	theme       Theme
	logger      *zap.Logger
}

// New constructs a Session with the survey driver and default text renderer.
func New(ctrl *controller.Controller, options ...Option) (*Session, error) {
	if ctrl == nil {
		return nil, ErrControllerRequired
	}
	s := &Session{
		ctrl:       ctrl,
		size:       stdoutSize,
		cellHeight: viewport.DefaultCellHeight,
		theme:      Theme{ErrorPrefix: "! "},
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(os.Stdout)
	}
	if s.renderer == nil {
		r, err := view.NewTextRenderer()
		if err != nil {
			return nil, fmt.Errorf("prompt: %w", err)
		}
		s.renderer = r
	}
	return s, nil
}

// Run activates the controller and prompts until an attempt succeeds, the
// user declines to retry or ctx ends. The controller is deactivated on every
// exit path.
func (s *Session) Run(ctx context.Context) (auth.Session, error) {
	if ctx == nil {
		return auth.Session{}, fmt.Errorf("prompt: context is required")
	}
	if err := s.ctrl.Activate(ctx); err != nil {
		return auth.Session{}, fmt.Errorf("prompt: activate: %w", err)
	}
	defer s.ctrl.Deactivate()
	s.publishSize()

	failures := 0
	for {
		if err := s.askField(ctx, form.FieldEmail, "Enter a valid e-mail address."); err != nil {
			return auth.Session{}, err
		}
		if err := s.askField(ctx, form.FieldPassword, "Enter your password."); err != nil {
			return auth.Session{}, err
		}

		snap, err := s.submit(ctx)
		if err != nil {
			return auth.Session{}, err
		}
		if err := s.show(ctx, snap); err != nil {
			return auth.Session{}, err
		}
		if snap.Auth.Session != nil {
			s.logger.Info("login succeeded", zap.String("user_id", snap.Auth.Session.UserID))
			return *snap.Auth.Session, nil
		}

		failures++
		s.logger.Info("login failed", zap.Int("failures", failures))
		if s.maxAttempts > 0 && failures >= s.maxAttempts {
			return auth.Session{}, ErrLoginFailed
		}
		again, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
		if err != nil {
			return auth.Session{}, err
		}
		if !again {
			return auth.Session{}, ErrLoginFailed
		}
	}
}

func (s *Session) askField(ctx context.Context, name form.FieldName, hint string) error {
	for {
		current, _ := s.ctrl.Snapshot().Form.Field(name)
		cfg := InputConfig{Message: label(name)}

		var (
			value string
			err   error
		)
		if name == form.FieldPassword {
			value, err = s.driver.Password(ctx, cfg)
		} else {
			cfg.Default = current.Value
			value, err = s.driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		if err := s.ctrl.UpdateField(name, value); err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		if state, _ := s.ctrl.Snapshot().Form.Field(name); state.Valid {
			return nil
		}
		if err := s.driver.Info(ctx, s.theme.ErrorPrefix+hint); err != nil {
			return err
		}
	}
}

// submit dispatches the credentials and blocks until both the loading phase
// and the store attempt are over.
func (s *Session) submit(ctx context.Context) (controller.Snapshot, error) {
	changes := make(chan struct{}, 1)
	remove := s.ctrl.OnChange(func(controller.Snapshot) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer remove()

	before := s.ctrl.Snapshot().Auth.Attempt
	if err := s.ctrl.Submit(ctx); err != nil {
		return controller.Snapshot{}, fmt.Errorf("prompt: submit: %w", err)
	}
	if err := s.show(ctx, s.ctrl.Snapshot()); err != nil {
		return controller.Snapshot{}, err
	}

	for {
		snap := s.ctrl.Snapshot()
		if !snap.Loading() && snap.Auth.Attempt > before && !snap.Auth.Loading {
			return snap, nil
		}
		if !snap.Active {
			return controller.Snapshot{}, fmt.Errorf("prompt: %w", controller.ErrNotActive)
		}
		select {
		case <-changes:
		case <-ctx.Done():
			return controller.Snapshot{}, ctx.Err()
		}
	}
}

func (s *Session) show(ctx context.Context, snap controller.Snapshot) error {
	text, err := s.renderer.Render(view.FromSnapshot(snap))
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	if s.theme.InfoPrefix != "" {
		text = s.theme.InfoPrefix + text
	}
	return s.driver.Info(ctx, text)
}

func (s *Session) publishSize() {
	if s.screen == nil || s.size == nil {
		return
	}
	cols, rows, err := s.size()
	if err != nil {
		s.logger.Debug("terminal size unavailable", zap.Error(err))
		return
	}
	s.screen.Publish(viewport.FromCells(cols, rows, s.cellHeight))
}

func stdoutSize() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

func label(name form.FieldName) string {
	if name == form.FieldPassword {
		return "Password"
	}
	return "E-mail"
}
