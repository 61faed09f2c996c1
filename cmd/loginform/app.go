package main

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	loginform "github.com/goliatone/go-loginform"
	"github.com/goliatone/go-loginform/internal/config"
	"github.com/goliatone/go-loginform/pkg/auth"
	"github.com/goliatone/go-loginform/pkg/auth/httpauth"
	"github.com/goliatone/go-loginform/pkg/auth/localauth"
	"github.com/goliatone/go-loginform/pkg/controller"
)

func newAuthenticator(cfg config.AuthConfig, logger *zap.Logger) (auth.Authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case config.AuthModeLocal:
		users, err := localauth.Load(cfg.UsersFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("local users loaded", zap.Int("count", users.Len()))
		return users, nil
	default:
		return httpauth.New(cfg.Endpoint,
			httpauth.WithTimeout(cfg.Timeout),
			httpauth.WithLogger(logger.Named("httpauth")),
		)
	}
}

func newScreen(cfg config.Config, logger *zap.Logger) (*loginform.Screen, error) {
	if err := cfg.Screen.Validate(); err != nil {
		return nil, err
	}
	policy, err := controller.ParseLoadingPolicy(cfg.Screen.LoadingPolicy)
	if err != nil {
		return nil, err
	}
	authn, err := newAuthenticator(cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("authenticator: %w", err)
	}
	return loginform.New(authn,
		loginform.WithLogger(logger),
		loginform.WithControllerOptions(
			controller.WithLoadingWindow(cfg.Screen.LoadingWindow),
			controller.WithLoadingPolicy(policy),
		),
	)
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.RFC1123)
}
