package validation

import "strconv"

// Canonical rule identifiers.
const (
	RuleIsEmail   = "isEmail"
	RuleMinLength = "minLength"
	RuleMaxLength = "maxLength"
	RuleRequired  = "required"
	RulePattern   = "pattern"
)

// Rule is a single named constraint. Length limits encode their threshold in
// Params["value"]; pattern rules keep the expression in Params["pattern"].
type Rule struct {
	Kind   string            `json:"kind" yaml:"kind"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// RuleSet is the ordered list of rules attached to a field.
type RuleSet []Rule

// IsEmail requires a well-formed email address.
func IsEmail() Rule {
	return Rule{Kind: RuleIsEmail}
}

// MinLength requires at least n characters. Length is counted in runes
// (Unicode code points), so an emoji or other character outside the Basic
// Multilingual Plane counts as one, not as a UTF-16 surrogate pair.
func MinLength(n int) Rule {
	return Rule{Kind: RuleMinLength, Params: map[string]string{"value": strconv.Itoa(n)}}
}

// MaxLength allows at most n characters, counted in runes like MinLength.
func MaxLength(n int) Rule {
	return Rule{Kind: RuleMaxLength, Params: map[string]string{"value": strconv.Itoa(n)}}
}

// Required rejects blank values.
func Required() Rule {
	return Rule{Kind: RuleRequired}
}

// Pattern requires the value to match a regular expression.
func Pattern(expr string) Rule {
	return Rule{Kind: RulePattern, Params: map[string]string{"pattern": expr}}
}

// Clone returns a deep copy so callers cannot mutate shared rule parameters.
func (rs RuleSet) Clone() RuleSet {
	if rs == nil {
		return nil
	}
	out := make(RuleSet, len(rs))
	for i, rule := range rs {
		out[i] = Rule{Kind: rule.Kind}
		if len(rule.Params) > 0 {
			out[i].Params = make(map[string]string, len(rule.Params))
			for k, v := range rule.Params {
				out[i].Params[k] = v
			}
		}
	}
	return out
}

// Has reports whether the set contains a rule of the given kind.
func (rs RuleSet) Has(kind string) bool {
	for _, rule := range rs {
		if rule.Kind == kind {
			return true
		}
	}
	return false
}
