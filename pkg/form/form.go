package form

import (
	"fmt"

	"github.com/goliatone/go-loginform/pkg/validation"
)

// Snapshot is a copy of the form's field states. Exactly two fields exist.
type Snapshot struct {
	Email    FieldState `json:"email"`
	Password FieldState `json:"password"`
}

// CanSubmit reports whether every field is valid.
func (s Snapshot) CanSubmit() bool {
	return s.Email.Valid && s.Password.Valid
}

// Field returns the state of the named field.
func (s Snapshot) Field(name FieldName) (FieldState, bool) {
	switch name {
	case FieldEmail:
		return s.Email, true
	case FieldPassword:
		return s.Password, true
	default:
		return FieldState{}, false
	}
}

// Option configures a Form.
type Option func(*Form)

// WithEmailRules overrides the email field's rule set.
func WithEmailRules(rules validation.RuleSet) Option {
	return func(f *Form) {
		if rules != nil {
			f.state.Email.Rules = rules.Clone()
		}
	}
}

// WithPasswordRules overrides the password field's rule set.
func WithPasswordRules(rules validation.RuleSet) Option {
	return func(f *Form) {
		if rules != nil {
			f.state.Password.Rules = rules.Clone()
		}
	}
}

// DefaultEmailRules requires a well-formed address.
func DefaultEmailRules() validation.RuleSet {
	return validation.RuleSet{validation.IsEmail()}
}

// DefaultPasswordRules requires a non-empty password.
func DefaultPasswordRules() validation.RuleSet {
	return validation.RuleSet{validation.MinLength(1)}
}

// Form owns the per-field state. It is not safe for concurrent use; callers
// serialise access.
type Form struct {
	validator validation.Validator
	state     Snapshot
}

// New constructs a Form with the default rule sets. A nil validator falls back
// to validation.New().
func New(validator validation.Validator, options ...Option) *Form {
	if validator == nil {
		validator = validation.New()
	}
	f := &Form{
		validator: validator,
		state: Snapshot{
			Email:    NewField(DefaultEmailRules()),
			Password: NewField(DefaultPasswordRules()),
		},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	return f
}

// UpdateField stores raw as the named field's value, marks it touched and
// recomputes validity. Other fields are left untouched. Invalid input is
// represented, not rejected.
func (f *Form) UpdateField(name FieldName, raw string) error {
	field, err := f.field(name)
	if err != nil {
		return err
	}
	field.Value = raw
	field.Touched = true
	field.Valid = f.validator.Validate(raw, field.Rules)
	return nil
}

// Snapshot returns a deep copy of the current state.
func (f *Form) Snapshot() Snapshot {
	return Snapshot{
		Email:    f.state.Email.clone(),
		Password: f.state.Password.clone(),
	}
}

// CanSubmit reports whether every field is valid.
func (f *Form) CanSubmit() bool {
	return f.state.CanSubmit()
}

// Value returns the raw value of the named field.
func (f *Form) Value(name FieldName) string {
	field, err := f.field(name)
	if err != nil {
		return ""
	}
	return field.Value
}

func (f *Form) field(name FieldName) (*FieldState, error) {
	switch name {
	case FieldEmail:
		return &f.state.Email, nil
	case FieldPassword:
		return &f.state.Password, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
}
