package validation

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Validator maps a value and a rule set to a validity flag.
type Validator interface {
	Validate(value string, rules RuleSet) bool
}

// Func adapts a plain function to the Validator interface.
type Func func(value string, rules RuleSet) bool

// Validate calls f.
func (f Func) Validate(value string, rules RuleSet) bool {
	return f(value, rules)
}

// RuleValidator is the default Validator. Email checks delegate to
// go-playground/validator; length and pattern rules are evaluated locally.
type RuleValidator struct {
	validate *validator.Validate

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

var _ Validator = (*RuleValidator)(nil)

// New constructs a RuleValidator.
func New() *RuleValidator {
	return &RuleValidator{
		validate: validator.New(),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Validate reports whether value satisfies every rule. An empty rule set is
// always satisfied.
func (v *RuleValidator) Validate(value string, rules RuleSet) bool {
	for _, rule := range rules {
		if !v.check(value, rule) {
			return false
		}
	}
	return true
}

func (v *RuleValidator) check(value string, rule Rule) bool {
	switch rule.Kind {
	case RuleIsEmail:
		return v.validate.Var(value, "required,email") == nil
	case RuleRequired:
		return strings.TrimSpace(value) != ""
	case RuleMinLength:
		n, ok := parseInt(rule.Params["value"])
		if !ok {
			return true
		}
		return utf8.RuneCountInString(value) >= n
	case RuleMaxLength:
		n, ok := parseInt(rule.Params["value"])
		if !ok {
			return true
		}
		return utf8.RuneCountInString(value) <= n
	case RulePattern:
		re := v.pattern(rule.Params["pattern"])
		if re == nil {
			return true
		}
		return re.MatchString(value)
	default:
		return true
	}
}

func (v *RuleValidator) pattern(expr string) *regexp.Regexp {
	if expr == "" {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if re, ok := v.patterns[expr]; ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	v.patterns[expr] = re
	return re
}

func parseInt(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	return val, err == nil
}
