package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-loginform/pkg/validation"
)

// ErrUnknownField is returned when an update targets a field the form does not
// own.
var ErrUnknownField = errors.New("form: unknown field")

// FieldName identifies one of the form inputs.
type FieldName string

const (
	FieldEmail    FieldName = "email"
	FieldPassword FieldName = "password"
)

// Fields lists the form inputs in display order.
func Fields() []FieldName {
	return []FieldName{FieldEmail, FieldPassword}
}

// ParseFieldName normalises raw input into a known FieldName.
func ParseFieldName(raw string) (FieldName, error) {
	switch name := FieldName(strings.ToLower(strings.TrimSpace(raw))); name {
	case FieldEmail, FieldPassword:
		return name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, raw)
	}
}

// FieldState holds one input's raw value plus the flags derived from it.
type FieldState struct {
	Value   string             `json:"value"`
	Valid   bool               `json:"valid"`
	Touched bool               `json:"touched"`
	Rules   validation.RuleSet `json:"rules,omitempty"`
}

// NewField returns the initial state: empty, invalid and untouched.
func NewField(rules validation.RuleSet) FieldState {
	return FieldState{Rules: rules.Clone()}
}

func (f FieldState) clone() FieldState {
	f.Rules = f.Rules.Clone()
	return f
}
