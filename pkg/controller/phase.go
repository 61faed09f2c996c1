package controller

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLoadingWindow is how long the spinner masks the submit control.
const DefaultLoadingWindow = 3000 * time.Millisecond

// Phase is the submission state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// LoadingPolicy selects when Submitting returns to Idle.
type LoadingPolicy string

const (
	// LoadingFixedWindow ends the phase when the loading window elapses.
	LoadingFixedWindow LoadingPolicy = "fixed"
	// LoadingUntilSettled ends the phase once the window elapsed and the store
	// reports the attempt as settled.
	LoadingUntilSettled LoadingPolicy = "settled"
)

// ParseLoadingPolicy maps configuration text onto a LoadingPolicy. Empty input
// selects LoadingFixedWindow.
func ParseLoadingPolicy(raw string) (LoadingPolicy, error) {
	switch policy := LoadingPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "":
		return LoadingFixedWindow, nil
	case LoadingFixedWindow, LoadingUntilSettled:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLoadingPolicy, raw)
	}
}
