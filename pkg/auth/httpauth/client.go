// Package httpauth authenticates login attempts against a JSON HTTP endpoint.
//
// The endpoint receives {"email","password"} and answers 2xx with
// {"token","user":{"id","email"}}. When the token is a JWT its subject,
// email and expiry claims populate the session; the signature is not checked
// here because the token is only ever presented back to the issuer. Failure
// responses become *ServerError values whose text is stripped of markup
// before it reaches the screen.
package httpauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/auth"
)

const maxBodyBytes = 1 << 20

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds each login request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(agent)
	}
}

// Client implements auth.Authenticator over HTTP.
type Client struct {
	endpoint  string
	http      *http.Client
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
	parser    *jwt.Parser
}

var _ auth.Authenticator = (*Client)(nil)

// New constructs a Client for the login endpoint URL.
func New(endpoint string, options ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("httpauth: parse endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("httpauth: unsupported endpoint scheme %q", parsed.Scheme)
	}

	c := &Client{
		endpoint:  parsed.String(),
		http:      http.DefaultClient,
		timeout:   10 * time.Second,
		userAgent: "go-loginform",
		logger:    zap.NewNop(),
		parser:    jwt.NewParser(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Authenticate posts the credentials and converts the response.
func (c *Client) Authenticate(ctx context.Context, creds auth.Credentials) (auth.Session, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(loginRequest{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return auth.Session{}, fmt.Errorf("httpauth: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return auth.Session{}, fmt.Errorf("httpauth: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return auth.Session{}, fmt.Errorf("httpauth: post login: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return auth.Session{}, fmt.Errorf("httpauth: read response: %w", err)
	}

	c.logger.Debug("login response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(raw)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload *errorPayload
		if isJSON(resp.Header.Get("Content-Type"), raw) {
			var decoded errorPayload
			if err := json.Unmarshal(raw, &decoded); err == nil {
				payload = &decoded
			}
		}
		return auth.Session{}, newServerError(resp.StatusCode, payload, raw)
	}

	var decoded loginResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return auth.Session{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(decoded.Token) == "" {
		return auth.Session{}, ErrMalformedResponse
	}

	session := auth.Session{
		UserID: decoded.User.ID,
		Email:  decoded.User.Email,
		Token:  decoded.Token,
	}
	c.applyClaims(&session)
	if session.Email == "" {
		session.Email = creds.Email
	}
	return session, nil
}

// applyClaims fills missing session fields from JWT claims. Opaque tokens are
// left as they are.
func (c *Client) applyClaims(session *auth.Session) {
	claims := jwt.MapClaims{}
	if _, _, err := c.parser.ParseUnverified(session.Token, claims); err != nil {
		c.logger.Debug("token is not a JWT", zap.Error(err))
		return
	}
	if session.UserID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			session.UserID = sub
		}
	}
	if session.Email == "" {
		if email, ok := claims["email"].(string); ok {
			session.Email = email
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
}

func isJSON(contentType string, raw []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "json") {
		return true
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
