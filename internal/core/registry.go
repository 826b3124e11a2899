package core

import (
	"slices"
	"strings"
)

// FieldRule defines how one column is parsed and range-checked.
type FieldRule struct {
	Name          string
	Required      bool // an unusable value makes the row required-missing
	AllowNegative bool
	MinDigits     int // 0 disables the bound
	MaxDigits     int // 0 disables the bound

	// Check runs on a successfully parsed value and returns a reason code,
	// or "" when the value is acceptable. Nil accepts any value.
	Check func(v Integer) string
}

// FieldResult is the outcome of evaluating one cell: a value or a reason.
type FieldResult struct {
	Value  Integer
	Usable bool   // false when the cell produced no value for the record
	Reason string // "" when the cell passed every rule
}

// Evaluate applies the rule to a raw cell. present is false when the row is
// too short to contain the column or the column is not mapped at all.
func (r FieldRule) Evaluate(raw string, present bool) FieldResult {
	if !r.Required && (!present || strings.TrimSpace(raw) == "") {
		// Optional and empty: resolves to the empty marker.
		return FieldResult{}
	}
	if !present {
		raw = ""
	}

	v, reason := ParseInteger(raw, r.AllowNegative, r.MinDigits, r.MaxDigits)
	if reason != "" {
		return FieldResult{Reason: reason}
	}

	if r.Check != nil {
		if reason := r.Check(v); reason != "" {
			// A required value that parsed stays usable; the row is rejected
			// through its reason, not through required-missing. An optional
			// value that fails its check resolves to empty.
			return FieldResult{Value: v, Usable: r.Required, Reason: reason}
		}
	}

	return FieldResult{Value: v, Usable: true}
}

// zeroOrOne accepts only the flag values 0 and 1.
func zeroOrOne(v Integer) string {
	if v != "0" && v != "1" {
		return ReasonNotZeroOrOne
	}
	return ""
}

// within returns a check accepting values in [lo, hi]. A value beyond the
// int64 range is out of range.
func within(lo, hi int64) func(Integer) string {
	return func(v Integer) string {
		n, ok := v.Int64()
		if !ok || n < lo || n > hi {
			return ReasonOutOfRange
		}
		return ""
	}
}

// applicantRules is evaluated in this order, which is also the positional
// column order of a headerless file and the order reasons are reported in.
var applicantRules = []FieldRule{
	{Name: ColAge, Required: true, MinDigits: 2, MaxDigits: 3},
	{Name: ColIncome, Required: true, AllowNegative: true},
	{Name: ColEmployed, Required: true, Check: zeroOrOne},
	{Name: ColCreditScore, Required: true, Check: within(CreditScoreMin, CreditScoreMax)},
	{Name: ColLoanAmount, Required: true, AllowNegative: true},
	{Name: ColApproved, Check: zeroOrOne},
}

// DefaultRules returns the applicant dataset rules in evaluation order.
// The returned slice may be modified by the caller.
func DefaultRules() []FieldRule {
	return slices.Clone(applicantRules)
}

// requiredNames returns the names of the required rules, in order.
func requiredNames(rules []FieldRule) []string {
	var names []string
	for _, r := range rules {
		if r.Required {
			names = append(names, r.Name)
		}
	}
	return names
}

// ruleNames returns the names of all rules, in order.
func ruleNames(rules []FieldRule) []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}
