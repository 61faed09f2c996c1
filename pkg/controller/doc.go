// Package controller implements the login screen's state controller. A
// Controller owns the two form fields, the layout mode derived from viewport
// events and the submission phase. The auth store is injected as a Store:
// the controller reads its snapshots through a subscription and writes only
// through Dispatch.
//
// The submission phase has a single owner. Submit moves it to Submitting and
// arms one loading-window timer; re-arming always stops the previous timer.
// With LoadingFixedWindow the phase returns to Idle when the window elapses,
// regardless of the store. With LoadingUntilSettled the window is a minimum
// display duration and the phase also waits for the store to report the
// attempt as settled.
//
// Activate acquires the viewport and store subscriptions; Deactivate releases
// them, stops the timer and is safe to call on every exit path.
package controller
