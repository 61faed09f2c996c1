package controller_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/goliatone/go-loginform/pkg/auth"
	"github.com/goliatone/go-loginform/pkg/controller"
	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/testsupport"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

type fixture struct {
	ctrl   *controller.Controller
	store  *testsupport.Store
	clock  *clockwork.FakeClock
	screen *viewport.Broadcaster
}

func newFixture(t *testing.T, opts ...controller.Option) fixture {
	t.Helper()
	f := fixture{
		store:  testsupport.NewStore(),
		clock:  clockwork.NewFakeClock(),
		screen: viewport.NewBroadcaster(viewport.Event{Width: 400, Height: 800}),
	}
	base := []controller.Option{
		controller.WithClock(f.clock),
		controller.WithViewportSource(f.screen),
	}
	ctrl, err := controller.New(f.store, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("activate: %v", err)
	}
	t.Cleanup(ctrl.Deactivate)
	f.ctrl = ctrl
	return f
}

func (f fixture) fill(t *testing.T, email, password string) {
	t.Helper()
	if err := f.ctrl.UpdateField(form.FieldEmail, email); err != nil {
		t.Fatalf("update email: %v", err)
	}
	if err := f.ctrl.UpdateField(form.FieldPassword, password); err != nil {
		t.Fatalf("update password: %v", err)
	}
}

// pendingTimers blocks until the fake clock holds at least n timers.
func (f fixture) pendingTimers(t *testing.T, n int) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.clock.BlockUntilContext(ctx, n); err != nil {
		t.Fatalf("waiting for %d pending timers: %v", n, err)
	}
}

// changes returns a channel fed with every snapshot the controller publishes.
func (f fixture) changes(t *testing.T) <-chan controller.Snapshot {
	t.Helper()
	ch := make(chan controller.Snapshot, 16)
	remove := f.ctrl.OnChange(func(s controller.Snapshot) {
		select {
		case ch <- s:
		default:
		}
	})
	t.Cleanup(remove)
	return ch
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := controller.New(nil); !errors.Is(err, controller.ErrStoreRequired) {
		t.Fatalf("expected ErrStoreRequired, got %v", err)
	}
	_, err := controller.New(testsupport.NewStore(), controller.WithLoadingPolicy("eventually"))
	if !errors.Is(err, controller.ErrUnknownLoadingPolicy) {
		t.Fatalf("expected ErrUnknownLoadingPolicy, got %v", err)
	}
}

func TestCanSubmit_FollowsFieldValidity(t *testing.T) {
	f := newFixture(t)

	f.fill(t, "a@b.com", "")
	if f.ctrl.Snapshot().CanSubmit() {
		t.Fatalf("submit must be disabled with an empty password")
	}
	if err := f.ctrl.Submit(context.Background()); !errors.Is(err, controller.ErrNotSubmittable) {
		t.Fatalf("expected ErrNotSubmittable, got %v", err)
	}
	if len(f.store.Dispatched()) != 0 {
		t.Fatalf("rejected submit must not dispatch")
	}

	if err := f.ctrl.UpdateField(form.FieldPassword, "x"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if !f.ctrl.Snapshot().CanSubmit() {
		t.Fatalf("submit must be enabled once both fields are valid")
	}
}

func TestUpdateField_UnknownField(t *testing.T) {
	f := newFixture(t)
	if err := f.ctrl.UpdateField("username", "bob"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestSubmit_FixedWindow(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "a@b.com", "x")

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !f.ctrl.Snapshot().Loading() {
		t.Fatalf("loading must be set immediately")
	}
	want := []auth.Credentials{{Email: "a@b.com", Password: "x"}}
	if diff := cmp.Diff(want, f.store.Dispatched()); diff != "" {
		t.Fatalf("dispatched credentials mismatch (-want +got):\n%s", diff)
	}

	f.clock.Advance(controller.DefaultLoadingWindow - time.Millisecond)
	if !f.ctrl.Snapshot().Loading() {
		t.Fatalf("loading cleared before the window elapsed")
	}

	f.clock.Advance(time.Millisecond)
	testsupport.WaitFor(t, "loading to clear", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})

	// The store never settled; the fixed window ignores it.
	if !f.store.State().Loading {
		t.Fatalf("store state should still be loading")
	}
}

func TestSubmit_RejectsDoubleSubmit(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "a@b.com", "x")

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.ctrl.Submit(context.Background()); !errors.Is(err, controller.ErrSubmitInFlight) {
		t.Fatalf("expected ErrSubmitInFlight, got %v", err)
	}
	if got := len(f.store.Dispatched()); got != 1 {
		t.Fatalf("expected a single dispatch, got %d", got)
	}

	f.clock.Advance(controller.DefaultLoadingWindow)
	testsupport.WaitFor(t, "loading to clear", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("resubmit after the window: %v", err)
	}
	if got := len(f.store.Dispatched()); got != 2 {
		t.Fatalf("expected a second dispatch, got %d", got)
	}
}

func TestSubmit_RestartsWindow(t *testing.T) {
	f := newFixture(t, controller.WithLoadingWindow(time.Second))
	f.fill(t, "a@b.com", "x")

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	f.clock.Advance(time.Second)
	testsupport.WaitFor(t, "first window", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})

	f.clock.Advance(500 * time.Millisecond)
	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	// Half of the second window. Advance only fires timers that are due.
	f.pendingTimers(t, 1)
	f.clock.Advance(500 * time.Millisecond)
	if !f.ctrl.Snapshot().Loading() {
		t.Fatalf("second window ended early")
	}
	f.clock.Advance(500 * time.Millisecond)
	testsupport.WaitFor(t, "second window", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})
}

func TestSubmit_UntilSettled(t *testing.T) {
	f := newFixture(t, controller.WithLoadingPolicy(controller.LoadingUntilSettled))
	f.fill(t, "a@b.com", "x")

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Settling early keeps the spinner for the minimum window.
	f.store.Fail("Invalid email or password.")
	if !f.ctrl.Snapshot().Loading() {
		t.Fatalf("spinner hidden before the minimum window")
	}
	if got := f.ctrl.Snapshot().Auth.Error; got != "Invalid email or password." {
		t.Fatalf("store error not mirrored: %q", got)
	}

	f.clock.Advance(controller.DefaultLoadingWindow)
	testsupport.WaitFor(t, "loading to clear", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})
}

func TestSubmit_UntilSettledWaitsForStore(t *testing.T) {
	f := newFixture(t, controller.WithLoadingPolicy(controller.LoadingUntilSettled))
	f.fill(t, "a@b.com", "x")

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	changes := f.changes(t)
	f.clock.Advance(controller.DefaultLoadingWindow)
	select {
	case snap := <-changes:
		if !snap.Loading() {
			t.Fatalf("spinner hidden while the store is still loading")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loading window never elapsed")
	}
	if !f.ctrl.Snapshot().Loading() {
		t.Fatalf("spinner hidden while the store is still loading")
	}

	f.store.Settle(auth.Session{UserID: "u-1"})
	testsupport.WaitFor(t, "loading to clear after settle", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})
	if sess := f.ctrl.Snapshot().Auth.Session; sess == nil || sess.UserID != "u-1" {
		t.Fatalf("session not mirrored: %+v", sess)
	}
}

func TestSubmit_DispatchErrorResetsPhase(t *testing.T) {
	f := newFixture(t)
	f.store.DispatchErr = auth.ErrStoreClosed
	f.fill(t, "a@b.com", "x")

	err := f.ctrl.Submit(context.Background())
	if !errors.Is(err, auth.ErrStoreClosed) {
		t.Fatalf("expected wrapped ErrStoreClosed, got %v", err)
	}
	if f.ctrl.Snapshot().Loading() {
		t.Fatalf("phase must return to idle when dispatch fails")
	}
}

func TestSubmit_RequiresActivation(t *testing.T) {
	ctrl, err := controller.New(testsupport.NewStore())
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if err := ctrl.UpdateField(form.FieldEmail, "a@b.com"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := ctrl.UpdateField(form.FieldPassword, "x"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := ctrl.Submit(context.Background()); !errors.Is(err, controller.ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestViewport_ModeTracksEvents(t *testing.T) {
	f := newFixture(t)
	if got := f.ctrl.Snapshot().Mode; got != viewport.ModePortrait {
		t.Fatalf("initial mode = %q, want portrait", got)
	}

	f.screen.Publish(viewport.Event{Width: 800, Height: 500})
	if got := f.ctrl.Snapshot().Mode; got != viewport.ModeLandscape {
		t.Fatalf("mode after 500px = %q, want landscape", got)
	}
	f.screen.Publish(viewport.Event{Width: 400, Height: 501})
	if got := f.ctrl.Snapshot().Mode; got != viewport.ModePortrait {
		t.Fatalf("mode after 501px = %q, want portrait", got)
	}
}

func TestDeactivate_ReleasesSubscriptions(t *testing.T) {
	f := newFixture(t)
	var (
		mu    sync.Mutex
		calls int
	)
	f.ctrl.OnChange(func(controller.Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	f.ctrl.Deactivate()
	f.ctrl.Deactivate()

	if f.screen.Subscribers() != 0 || f.store.Subscribers() != 0 {
		t.Fatalf("subscriptions leaked: viewport=%d store=%d", f.screen.Subscribers(), f.store.Subscribers())
	}

	f.screen.Publish(viewport.Event{Height: 100})
	f.store.SetError("late")

	snap := f.ctrl.Snapshot()
	if snap.Mode != viewport.ModePortrait || snap.Auth.Error != "" || snap.Active {
		t.Fatalf("deactivated controller observed events: %+v", snap)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("listeners notified after deactivation: %d", calls)
	}
}

func TestDeactivate_StopsPendingWindow(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "a@b.com", "x")
	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.pendingTimers(t, 1)
	// Deactivate stops the timer, so Advance has nothing to fire.
	f.ctrl.Deactivate()
	f.clock.Advance(controller.DefaultLoadingWindow)

	if snap := f.ctrl.Snapshot(); snap.Loading() || snap.Active {
		t.Fatalf("unexpected state after deactivation: %+v", snap)
	}
}

func TestStore_LateNotificationFromOlderAttemptIgnored(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "a@b.com", "x")

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	f.store.Fail("Invalid email or password.")
	stale := f.store.State()

	f.clock.Advance(controller.DefaultLoadingWindow)
	testsupport.WaitFor(t, "first window", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})
	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	f.store.Settle(auth.Session{UserID: "u-1", Email: "a@b.com"})

	// Attempt 1's outcome reaches subscribers after attempt 2 settled.
	f.store.Deliver(stale)

	got := f.ctrl.Snapshot().Auth
	if got.Attempt != 2 || got.Error != "" || got.Session == nil {
		t.Fatalf("controller regressed to an older attempt: %+v", got)
	}
}

func TestStore_LateNotificationKeepsSettledWindow(t *testing.T) {
	f := newFixture(t, controller.WithLoadingPolicy(controller.LoadingUntilSettled))
	f.fill(t, "a@b.com", "x")

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	f.store.Fail("Invalid email or password.")
	stale := f.store.State()
	f.clock.Advance(controller.DefaultLoadingWindow)
	testsupport.WaitFor(t, "first window", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})

	if err := f.ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	f.store.Settle(auth.Session{UserID: "u-1"})
	f.store.Deliver(stale)

	f.clock.Advance(controller.DefaultLoadingWindow)
	testsupport.WaitFor(t, "second window", func() bool {
		return !f.ctrl.Snapshot().Loading()
	})
}

func TestActivate_ContextCancellationDeactivates(t *testing.T) {
	store := testsupport.NewStore()
	screen := viewport.NewBroadcaster(viewport.Event{Height: 200})
	ctrl, err := controller.New(store, controller.WithViewportSource(screen))
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := ctrl.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if screen.Subscribers() != 1 || store.Subscribers() != 1 {
		t.Fatalf("expected one subscription each")
	}

	cancel()
	testsupport.WaitFor(t, "deactivation", func() bool {
		return !ctrl.Active() && screen.Subscribers() == 0 && store.Subscribers() == 0
	})

	// The screen can be entered again.
	if err := ctrl.Activate(context.Background()); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	defer ctrl.Deactivate()
	if !ctrl.Active() {
		t.Fatalf("controller not active after reactivation")
	}
}

func TestOnChange_ReceivesSnapshots(t *testing.T) {
	f := newFixture(t)
	var got []string
	remove := f.ctrl.OnChange(func(s controller.Snapshot) {
		got = append(got, s.Form.Email.Value)
	})

	if err := f.ctrl.UpdateField(form.FieldEmail, "a"); err != nil {
		t.Fatalf("update: %v", err)
	}
	remove()
	if err := f.ctrl.UpdateField(form.FieldEmail, "ab"); err != nil {
		t.Fatalf("update: %v", err)
	}

	if diff := cmp.Diff([]string{"a"}, got); diff != "" {
		t.Fatalf("listener calls mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLoadingPolicy(t *testing.T) {
	cases := map[string]controller.LoadingPolicy{
		"":          controller.LoadingFixedWindow,
		"fixed":     controller.LoadingFixedWindow,
		" Settled ": controller.LoadingUntilSettled,
	}
	for raw, want := range cases {
		got, err := controller.ParseLoadingPolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseLoadingPolicy(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := controller.ParseLoadingPolicy("later"); !errors.Is(err, controller.ErrUnknownLoadingPolicy) {
		t.Fatalf("expected ErrUnknownLoadingPolicy, got %v", err)
	}
	if controller.PhaseSubmitting.String() != "submitting" {
		t.Fatalf("unexpected phase string")
	}
}
