// Package devserver is a small login API for local development. It accepts
// the same JSON the httpauth client sends, checks credentials against a
// localauth directory and answers with an HS256 token.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/auth"
	"github.com/goliatone/go-loginform/pkg/auth/localauth"
)

// DefaultTokenTTL is the lifetime of issued tokens.
const DefaultTokenTTL = time.Hour

const maxRequestBytes = 64 << 10

var (
	// ErrDirectoryRequired is returned by New without a user directory.
	ErrDirectoryRequired = errors.New("devserver: user directory is required")
	// ErrSecretRequired is returned by New without a signing secret.
	ErrSecretRequired = errors.New("devserver: signing secret is required")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("devserver: invalid token")
)

// Claims are the token claims issued on login.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL overrides DefaultTokenTTL.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the clock used for token timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLatency delays every login response, handy for watching the spinner.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.latency = d
		}
	}
}

// Server serves the development login API.
type Server struct {
	users   *localauth.Directory
	secret  []byte
	ttl     time.Duration
	latency time.Duration
	clock   clockwork.Clock
	logger  *zap.Logger
	router  *mux.Router
}

// New constructs a Server.
func New(users *localauth.Directory, secret string, options ...Option) (*Server, error) {
	if users == nil {
		return nil, ErrDirectoryRequired
	}
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretRequired
	}
	s := &Server{
		users:  users,
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed."})
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("login API listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("devserver: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devserver: shutdown: %w", err)
	}
	return nil
}

// IssueToken signs a token for user.
func (s *Server) IssueToken(user localauth.User) (string, time.Time, error) {
	now := s.clock.Now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("devserver: sign token: %w", err)
	}
	return signed, expires, nil
}

// ParseToken verifies a token issued by this server.
func (s *Server) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type errorResponse struct {
	Error  string              `json:"error,omitempty"`
	Errors map[string][]string `json:"errors,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "Malformed login request."})
		return
	}

	fields := map[string][]string{}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = append(fields["email"], "E-mail is required.")
	}
	if req.Password == "" {
		fields["password"] = append(fields["password"], "Password is required.")
	}
	if len(fields) > 0 {
		writeError(w, http.StatusUnprocessableEntity, errorResponse{Errors: fields})
		return
	}

	if s.latency > 0 {
		select {
		case <-s.clock.After(s.latency):
		case <-r.Context().Done():
			return
		}
	}

	user, err := s.users.Verify(req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, localauth.ErrAccountDisabled):
		s.logger.Info("login rejected", zap.String("email", req.Email), zap.String("reason", "disabled"))
		writeError(w, http.StatusForbidden, errorResponse{Error: auth.DefaultErrorMessage(err)})
		return
	default:
		s.logger.Info("login rejected", zap.String("email", req.Email), zap.String("reason", "credentials"))
		writeError(w, http.StatusUnauthorized, errorResponse{Error: auth.DefaultErrorMessage(err)})
		return
	}

	token, expires, err := s.IssueToken(user)
	if err != nil {
		s.logger.Error("issue token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "Unable to issue a token."})
		return
	}
	s.logger.Info("login accepted", zap.String("user_id", user.ID))
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires.UTC(),
		User:      userResponse{ID: user.ID, Email: user.Email},
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		writeError(w, http.StatusUnauthorized, errorResponse{Error: "Missing bearer token."})
		return
	}
	claims, err := s.ParseToken(strings.TrimSpace(token))
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		writeError(w, http.StatusUnauthorized, errorResponse{Error: "Invalid or expired token."})
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: claims.Subject, Email: claims.Email})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", s.clock.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}
