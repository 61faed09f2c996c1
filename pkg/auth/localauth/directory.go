// Package localauth authenticates against a users file of bcrypt hashes. It
// backs offline sessions of the login screen and the development login API.
package localauth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-loginform/pkg/auth"
)

var (
	// ErrAccountDisabled is returned for users flagged as disabled.
	ErrAccountDisabled = &publicError{err: errors.New("localauth: account disabled"), msg: "This account has been disabled."}
	// ErrDuplicateUser is returned when two users share an email.
	ErrDuplicateUser = errors.New("localauth: duplicate user email")
	// ErrInvalidUser is returned for users missing an email or a hash.
	ErrInvalidUser = errors.New("localauth: user requires email and password_hash")
)

type publicError struct {
	err error
	msg string
}

func (e *publicError) Error() string         { return e.err.Error() }
func (e *publicError) PublicMessage() string { return e.msg }
func (e *publicError) Unwrap() error         { return e.err }

// User is one entry of the users file.
type User struct {
	ID           string `yaml:"id" json:"id"`
	Email        string `yaml:"email" json:"email"`
	PasswordHash string `yaml:"password_hash" json:"-"`
	Disabled     bool   `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

type usersFile struct {
	Users []User `yaml:"users"`
}

// Directory is an immutable set of users keyed by lower-cased email. It
// implements auth.Authenticator.
type Directory struct {
	users map[string]User
}

var _ auth.Authenticator = (*Directory)(nil)

// dummyHash is compared when the email is unknown so lookups and password
// mismatches cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("go-loginform"), bcrypt.MinCost)

// Load reads a YAML users file.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("localauth: read users file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML users data.
func Parse(data []byte) (*Directory, error) {
	var doc usersFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("localauth: decode users: %w", err)
	}
	return NewDirectory(doc.Users...)
}

// Encode writes users in the format Parse reads.
func Encode(users ...User) ([]byte, error) {
	if _, err := NewDirectory(users...); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(usersFile{Users: users})
	if err != nil {
		return nil, fmt.Errorf("localauth: encode users: %w", err)
	}
	return data, nil
}

// NewDirectory validates users and indexes them by email.
func NewDirectory(users ...User) (*Directory, error) {
	d := &Directory{users: make(map[string]User, len(users))}
	for i, user := range users {
		key := normalizeEmail(user.Email)
		if key == "" || strings.TrimSpace(user.PasswordHash) == "" {
			return nil, fmt.Errorf("%w (entry %d)", ErrInvalidUser, i)
		}
		if _, exists := d.users[key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, key)
		}
		if user.ID == "" {
			user.ID = key
		}
		d.users[key] = user
	}
	return d, nil
}

// Lookup returns the user registered under email.
func (d *Directory) Lookup(email string) (User, bool) {
	user, ok := d.users[normalizeEmail(email)]
	return user, ok
}

// Len reports the number of users.
func (d *Directory) Len() int {
	return len(d.users)
}

// Verify checks the password and returns the matching user.
func (d *Directory) Verify(email, password string) (User, error) {
	user, ok := d.Lookup(email)
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return User{}, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, auth.ErrInvalidCredentials
	}
	if user.Disabled {
		return User{}, ErrAccountDisabled
	}
	return user, nil
}

// Authenticate implements auth.Authenticator.
func (d *Directory) Authenticate(ctx context.Context, creds auth.Credentials) (auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return auth.Session{}, err
	}
	user, err := d.Verify(creds.Email, creds.Password)
	if err != nil {
		return auth.Session{}, err
	}
	return auth.Session{UserID: user.ID, Email: user.Email}, nil
}

// HashPassword produces a bcrypt hash suitable for the users file.
func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("localauth: hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
