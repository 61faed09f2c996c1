// Package validation evaluates declarative rule sets against raw field values.
// Rules mirror the canonical identifiers used by form inputs (isEmail,
// minLength/maxLength, required, pattern) and carry their thresholds as string
// parameters so rule sets can be loaded from YAML or JSON without custom
// decoding. Validation never fails loudly: a value either satisfies every rule
// in the set or it does not, and unknown rule kinds are treated as satisfied.
package validation
