package prompt

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/view"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// Theme captures optional message prefixes.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// SizeFunc reports the terminal size in cells.
type SizeFunc func() (cols, rows int, err error)

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithTextRenderer overrides the renderer used to print the screen after
// each attempt.
func WithTextRenderer(r *view.TextRenderer) Option {
	return func(s *Session) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithViewport publishes the terminal size to screen when the session starts.
func WithViewport(screen *viewport.Broadcaster, size SizeFunc) Option {
	return func(s *Session) {
		s.screen = screen
		if size != nil {
			s.size = size
		}
	}
}

// WithCellHeight sets the pixel height of one terminal row.
func WithCellHeight(px int) Option {
	return func(s *Session) {
		if px > 0 {
			s.cellHeight = px
		}
	}
}

// WithMaxAttempts caps how many failed attempts the session retries. Zero
// means ask after every failure.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		if n >= 0 {
			s.maxAttempts = n
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
