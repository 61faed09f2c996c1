// Package auth holds the shared authentication store consumed by the login
// screen. The store owns the auth-related state (submitted email, error text,
// loading flag, active session) and exposes it as read-only snapshots through
// State and Subscribe. Dispatch is the only write entry point: it starts a
// login attempt against the configured Authenticator and publishes the outcome
// once the attempt settles. Callers never observe the attempt directly.
package auth
