package view_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-loginform/pkg/auth"
	"github.com/goliatone/go-loginform/pkg/controller"
	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/testsupport"
	"github.com/goliatone/go-loginform/pkg/view"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

func snapshot() controller.Snapshot {
	return controller.Snapshot{
		Form: form.Snapshot{
			Email:    form.FieldState{Value: "a@b.com", Valid: true, Touched: true},
			Password: form.FieldState{Value: "pw", Valid: true, Touched: true},
		},
		Mode:  viewport.ModePortrait,
		Phase: controller.PhaseIdle,
	}
}

func TestErrorVisible(t *testing.T) {
	cases := map[string]bool{
		"":                  false,
		"   ":               true,
		"Invalid password.": true,
	}
	for text, want := range cases {
		if got := view.ErrorVisible(text); got != want {
			t.Fatalf("ErrorVisible(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestFromSnapshot_Idle(t *testing.T) {
	screen := view.FromSnapshot(snapshot())

	if !screen.ShowImage || screen.ShowSpinner || !screen.ShowSubmit || !screen.SubmitEnabled || screen.ShowError {
		t.Fatalf("unexpected flags: %+v", screen)
	}
	want := []view.Field{
		{Name: form.FieldEmail, Label: "E-mail", Placeholder: "E-mail", Value: "a@b.com", Valid: true, Touched: true},
		{Name: form.FieldPassword, Label: "Password", Placeholder: "Password", Value: "••", Secure: true, Valid: true, Touched: true},
	}
	if diff := cmp.Diff(want, screen.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSnapshot_WhitespaceErrorShowsBanner(t *testing.T) {
	snap := snapshot()
	snap.Auth = auth.State{Error: "   "}

	screen := view.FromSnapshot(snap)
	if !screen.ShowError {
		t.Fatalf("non-empty store error %q must show the banner", snap.Auth.Error)
	}
}

func TestFromSnapshot_LoadingErrorAndLandscape(t *testing.T) {
	snap := snapshot()
	snap.Mode = viewport.ModeLandscape
	snap.Phase = controller.PhaseSubmitting
	snap.Auth = auth.State{Error: "  Invalid email or password. "}
	snap.Form.Password = form.FieldState{Touched: true}

	screen := view.FromSnapshot(snap)
	if screen.ShowImage {
		t.Fatalf("landscape must hide the image region")
	}
	if !screen.ShowSpinner || screen.ShowSubmit {
		t.Fatalf("spinner must replace the submit control while loading")
	}
	if screen.SubmitEnabled {
		t.Fatalf("submit must be disabled with an invalid password")
	}
	if !screen.ShowError || screen.Error != "Invalid email or password." {
		t.Fatalf("unexpected banner: %v %q", screen.ShowError, screen.Error)
	}
	if !screen.Fields[1].ShowInvalid {
		t.Fatalf("touched invalid password should be flagged")
	}
}

func TestTextRenderer_Default(t *testing.T) {
	r, err := view.NewTextRenderer(view.WithLogo("[logo]"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, err := r.Render(view.FromSnapshot(snapshot()))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"[logo]", "== Login ==", "a@b.com", "••", "[ Login ]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(disabled)") || strings.Contains(out, "!") {
		t.Fatalf("unexpected disabled marker or banner:\n%s", out)
	}

	snap := snapshot()
	snap.Mode = viewport.ModeLandscape
	snap.Phase = controller.PhaseSubmitting
	snap.Auth.Error = "Wrong <password> & email"
	out, err = r.Render(view.FromSnapshot(snap))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "[logo]") || strings.Contains(out, "[ Login ]") {
		t.Fatalf("landscape loading output should hide logo and button:\n%s", out)
	}
	for _, want := range []string{"! Wrong <password> & email", view.DefaultLoadingText} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTextRenderer_EmptyFieldsShowPlaceholders(t *testing.T) {
	r, err := view.NewTextRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(view.FromSnapshot(controller.Snapshot{Mode: viewport.ModeLandscape}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<e-mail>", "<password>", "(disabled)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(invalid)") {
		t.Fatalf("untouched fields must not be flagged:\n%s", out)
	}
}

func TestTextRenderer_TemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.tpl")
	if err := os.WriteFile(path, []byte(`{{ screen.title }}|{{ screen.mode }}`), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}
	r, err := view.NewTextRenderer(view.WithTemplateFile(path))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.Render(view.FromSnapshot(snapshot()))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Login|portrait" {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := view.NewTextRenderer(view.WithTemplate("{% if %}")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestTextRenderer_Golden(t *testing.T) {
	r, err := view.NewTextRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	snap := snapshot()
	snap.Mode = viewport.ModeLandscape
	out, err := r.Render(view.FromSnapshot(snap))
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	goldenPath := filepath.Join("testdata", "landscape_ready.golden")
	if testsupport.WriteMaybeGolden(t, goldenPath, []byte(out)) {
		return
	}
	want := testsupport.MustReadGolden(t, goldenPath)
	if diff := testsupport.CompareGolden(string(want), out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}
