package httpauth

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-loginform/pkg/auth"
)

var (
	// ErrEndpointRequired is returned when the client is built without a URL.
	ErrEndpointRequired = errors.New("httpauth: endpoint is required")
	// ErrMalformedResponse signals a success response without a usable token.
	ErrMalformedResponse = errors.New("httpauth: malformed login response")
)

const maxMessageLen = 200

// ServerError is a non-2xx login response. Messages are normalised form-level
// texts; Fields holds per-field messages keyed by the server's field names.
type ServerError struct {
	Status   int
	Messages []string
	Fields   map[string][]string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("httpauth: login failed with status %d: %s", e.Status, e.PublicMessage())
}

// PublicMessage joins every server message into banner text.
func (e *ServerError) PublicMessage() string {
	if e == nil {
		return ""
	}
	parts := append([]string(nil), e.Messages...)
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, e.Fields[key]...)
	}
	parts = normalizeMessages(parts)
	if len(parts) == 0 {
		if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
			return ""
		}
		return http.StatusText(e.Status)
	}
	return strings.Join(parts, "; ")
}

// Unwrap maps authentication statuses onto auth.ErrInvalidCredentials.
func (e *ServerError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return auth.ErrInvalidCredentials
	}
	return nil
}

type errorPayload struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func newServerError(status int, payload *errorPayload, raw []byte) *ServerError {
	serverErr := &ServerError{Status: status}
	if payload == nil {
		if text := plainText(string(raw)); text != "" {
			serverErr.Messages = []string{text}
		}
		return serverErr
	}

	serverErr.Messages = normalizeMessages([]string{payload.Error, payload.Message})
	for key, messages := range payload.Errors {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}
		if isFormLevelKey(key) {
			serverErr.Messages = mergeMessages(serverErr.Messages, normalized...)
			continue
		}
		if serverErr.Fields == nil {
			serverErr.Fields = make(map[string][]string)
		}
		field := strings.ToLower(strings.TrimSpace(key))
		serverErr.Fields[field] = append(serverErr.Fields[field], normalized...)
	}
	return serverErr
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", "_", "form", "non_field_errors", "__all__":
		return true
	default:
		return false
	}
}

func mergeMessages(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := plainText(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// plainText strips markup from server text, collapses whitespace and caps the
// length so proxies returning HTML error pages cannot flood the banner.
func plainText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	cleaned := strings.Join(strings.Fields(html.UnescapeString(textPolicy.Sanitize(raw))), " ")
	if len([]rune(cleaned)) > maxMessageLen {
		cleaned = string([]rune(cleaned)[:maxMessageLen]) + "…"
	}
	return cleaned
}
