// Package view derives what the login screen shows from a controller
// snapshot and renders it as plain text. Front-ends with their own widgets
// (the Bubble Tea screen) consume Screen directly; sequential front-ends
// print the text rendering.
package view

import (
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-loginform/pkg/controller"
	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// Default copy.
const (
	DefaultTitle       = "Login"
	DefaultSubmitLabel = "Login"
	DefaultLoadingText = "Logging in..."
)

// Field is the render state of one input.
type Field struct {
	Name        form.FieldName `json:"name"`
	Label       string         `json:"label"`
	Placeholder string         `json:"placeholder"`
	Value       string         `json:"value"`
	Secure      bool           `json:"secure"`
	Valid       bool           `json:"valid"`
	Touched     bool           `json:"touched"`
	ShowInvalid bool           `json:"show_invalid"`
}

// Screen is everything a front-end needs to draw the login screen.
type Screen struct {
	Title         string        `json:"title"`
	Mode          viewport.Mode `json:"mode"`
	ShowImage     bool          `json:"show_image"`
	Fields        []Field       `json:"fields"`
	ShowError     bool          `json:"show_error"`
	Error         string        `json:"error"`
	ShowSpinner   bool          `json:"show_spinner"`
	ShowSubmit    bool          `json:"show_submit"`
	SubmitEnabled bool          `json:"submit_enabled"`
	SubmitLabel   string        `json:"submit_label"`
	LoadingText   string        `json:"loading_text"`
}

// ErrorVisible reports whether the banner shows for the store's error text.
// Any non-empty text shows it, whitespace included.
func ErrorVisible(text string) bool {
	return text != ""
}

// Mask replaces every character of a secure value.
func Mask(value string) string {
	return strings.Repeat("•", utf8.RuneCountInString(value))
}

// FromSnapshot derives the screen. Secure values are masked.
func FromSnapshot(s controller.Snapshot) Screen {
	screen := Screen{
		Title:         DefaultTitle,
		Mode:          s.Mode,
		ShowImage:     s.Mode == viewport.ModePortrait,
		ShowError:     ErrorVisible(s.Auth.Error),
		ShowSpinner:   s.Loading(),
		ShowSubmit:    !s.Loading(),
		SubmitEnabled: s.CanSubmit(),
		SubmitLabel:   DefaultSubmitLabel,
		LoadingText:   DefaultLoadingText,
	}
	if screen.ShowError {
		// Trimmed for display only; visibility follows the raw text.
		screen.Error = strings.TrimSpace(s.Auth.Error)
	}
	screen.Fields = []Field{
		newField(form.FieldEmail, "E-mail", s.Form.Email, false),
		newField(form.FieldPassword, "Password", s.Form.Password, true),
	}
	return screen
}

func newField(name form.FieldName, label string, state form.FieldState, secure bool) Field {
	value := state.Value
	if secure {
		value = Mask(value)
	}
	return Field{
		Name:        name,
		Label:       label,
		Placeholder: label,
		Value:       value,
		Secure:      secure,
		Valid:       state.Valid,
		Touched:     state.Touched,
		ShowInvalid: state.Touched && !state.Valid,
	}
}
