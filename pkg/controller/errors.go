package controller

import "errors"

var (
	// ErrStoreRequired is returned by New without a Store.
	ErrStoreRequired = errors.New("controller: store is required")
	// ErrNotActive is returned by Submit before Activate or after Deactivate.
	ErrNotActive = errors.New("controller: not active")
	// ErrNotSubmittable is returned by Submit while a field is invalid.
	ErrNotSubmittable = errors.New("controller: form is not submittable")
	// ErrSubmitInFlight is returned by Submit while the phase is Submitting.
	ErrSubmitInFlight = errors.New("controller: submission already in flight")
	// ErrUnknownLoadingPolicy is returned by ParseLoadingPolicy.
	ErrUnknownLoadingPolicy = errors.New("controller: unknown loading policy")
)
