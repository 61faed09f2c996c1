package validation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-loginform/pkg/validation"
)

func TestRuleValidator_Validate(t *testing.T) {
	v := validation.New()

	cases := []struct {
		name  string
		value string
		rules validation.RuleSet
		want  bool
	}{
		{name: "empty rule set", value: "", rules: nil, want: true},
		{name: "email ok", value: "a@b.com", rules: validation.RuleSet{validation.IsEmail()}, want: true},
		{name: "email missing at", value: "ab.com", rules: validation.RuleSet{validation.IsEmail()}, want: false},
		{name: "email empty", value: "", rules: validation.RuleSet{validation.IsEmail()}, want: false},
		{name: "min length empty", value: "", rules: validation.RuleSet{validation.MinLength(1)}, want: false},
		{name: "min length single char", value: "x", rules: validation.RuleSet{validation.MinLength(1)}, want: true},
		{name: "min length counts runes", value: "éé", rules: validation.RuleSet{validation.MinLength(3)}, want: false},
		{name: "min length astral char counts once", value: "😀", rules: validation.RuleSet{validation.MinLength(2)}, want: false},
		{name: "max length", value: "abcd", rules: validation.RuleSet{validation.MaxLength(3)}, want: false},
		{name: "required blank", value: "   ", rules: validation.RuleSet{validation.Required()}, want: false},
		{name: "pattern", value: "abc123", rules: validation.RuleSet{validation.Pattern(`^[a-z]+\d+$`)}, want: true},
		{name: "pattern mismatch", value: "123", rules: validation.RuleSet{validation.Pattern(`^[a-z]+$`)}, want: false},
		{name: "broken pattern ignored", value: "x", rules: validation.RuleSet{validation.Pattern(`(`)}, want: true},
		{name: "unknown kind ignored", value: "x", rules: validation.RuleSet{{Kind: "isFancy"}}, want: true},
		{name: "unparsable threshold ignored", value: "", rules: validation.RuleSet{{Kind: validation.RuleMinLength, Params: map[string]string{"value": "many"}}}, want: true},
		{name: "all rules must hold", value: "a@b.com", rules: validation.RuleSet{validation.IsEmail(), validation.MaxLength(3)}, want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.Validate(tc.value, tc.rules); got != tc.want {
				t.Fatalf("Validate(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestRuleSet_CloneIsDeep(t *testing.T) {
	original := validation.RuleSet{validation.MinLength(2)}
	clone := original.Clone()
	clone[0].Params["value"] = "9"

	want := validation.RuleSet{validation.MinLength(2)}
	if diff := cmp.Diff(want, original); diff != "" {
		t.Fatalf("original mutated (-want +got):\n%s", diff)
	}
	if !clone.Has(validation.RuleMinLength) || clone.Has(validation.RuleIsEmail) {
		t.Fatalf("unexpected Has results for %v", clone)
	}
}

func TestFunc_Adapter(t *testing.T) {
	var calls int
	fn := validation.Func(func(value string, _ validation.RuleSet) bool {
		calls++
		return value == "ok"
	})
	if !fn.Validate("ok", nil) || fn.Validate("nope", nil) {
		t.Fatalf("adapter did not forward results")
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}
