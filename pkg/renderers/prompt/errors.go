package prompt

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrControllerRequired is returned by New without a controller.
	ErrControllerRequired = errors.New("prompt: controller is required")
	// ErrLoginFailed is returned when the user stops retrying after a failed
	// attempt.
	ErrLoginFailed = errors.New("prompt: login failed")
)
