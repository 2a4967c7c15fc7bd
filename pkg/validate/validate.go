// Package validate implements the Syntax Validator (§4.C): a pure,
// deterministic, total check of an Arguments value against a command
// node's OptionSpec/PositionalSpec declarations.
package validate

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cliforge/cmdcore/pkg/command"
)

// Severity of a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Reason is the closed set of issue reasons from §4.C.
type Reason string

const (
	ReasonMissing          Reason = "Missing"
	ReasonTypeMismatch     Reason = "TypeMismatch"
	ReasonNotAllowedValue  Reason = "NotAllowedValue"
	ReasonConflict         Reason = "Conflict"
	ReasonImpliedMissing   Reason = "ImpliedMissing"
	ReasonRangeViolation   Reason = "RangeViolation"
	ReasonArrayCardinality Reason = "ArrayCardinality"
	ReasonUnknownOption    Reason = "UnknownOption"
)

// Issue describes a single validation violation.
type Issue struct {
	Severity           Severity
	OptionOrPositional string
	Reason             Reason
	Message            string
}

// Result is the validator's total, non-short-circuiting output.
type Result struct {
	Valid  bool
	Issues []Issue
}

// slot is the shared shape of OptionSpec and PositionalSpec that
// Validate checks; both are adapted to it so the same logic runs once.
type slot struct {
	name              string
	typ               command.ValueType
	required          bool
	allowedValues     []string
	conflictsWith     []string
	impliesPresenceOf []string
	numericRange      *command.Range
	arrayMin, arrayMax *int
}

func optionSlots(opts []command.OptionSpec) []slot {
	out := make([]slot, len(opts))
	for i, o := range opts {
		out[i] = slot{
			name: o.Name, typ: o.Type, required: o.Required,
			allowedValues: o.AllowedValues, conflictsWith: o.ConflictsWith,
			impliesPresenceOf: o.ImpliesPresenceOf, numericRange: o.NumericRange,
			arrayMin: o.ArrayMin, arrayMax: o.ArrayMax,
		}
	}
	return out
}

func positionalSlots(pos []command.PositionalSpec) []slot {
	out := make([]slot, len(pos))
	for i, p := range pos {
		out[i] = slot{
			name: p.Name, typ: p.Type, required: p.Required,
			allowedValues: p.AllowedValues, conflictsWith: p.ConflictsWith,
			impliesPresenceOf: p.ImpliesPresenceOf, numericRange: p.NumericRange,
			arrayMin: p.ArrayMin, arrayMax: p.ArrayMax,
		}
	}
	return out
}

// Validate checks args against node's declared options and positionals.
// It is pure (no I/O), deterministic, and total: every violation is
// reported, none short-circuits the rest (§4.C).
func Validate(node *command.Node, args *command.Arguments) Result {
	if args == nil {
		args = command.NewArguments()
	}

	var issues []Issue
	slots := optionSlots(node.Options)

	known := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		known[s.name] = struct{}{}
	}

	unknown := make([]string, 0, len(args.Options))
	for name := range args.Options {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		issues = append(issues, Issue{
			Severity: SeverityError, OptionOrPositional: name, Reason: ReasonUnknownOption,
			Message: fmt.Sprintf("unknown option %q", name),
		})
	}

	reportedConflicts := make(map[string]struct{})

	for _, s := range slots {
		value, present := args.Get(s.name)
		issues = append(issues, checkSlot(s, value, present, args, reportedConflicts)...)
	}

	// Positionals are checked by position against the ordered
	// PositionalList; a missing slot beyond the supplied length is
	// Missing, an out-of-range value is TypeMismatch/RangeViolation
	// the same as options.
	posSlots := positionalSlots(node.Positionals)
	for i, s := range posSlots {
		var value any
		present := i < len(args.PositionalList)
		if present {
			value = args.PositionalList[i]
		}
		issues = append(issues, checkSlot(s, value, present, args, reportedConflicts)...)
	}

	return Result{Valid: len(issues) == 0, Issues: issues}
}

func checkSlot(s slot, value any, present bool, args *command.Arguments, reportedConflicts map[string]struct{}) []Issue {
	var issues []Issue

	if s.required && !present {
		issues = append(issues, Issue{
			Severity: SeverityError, OptionOrPositional: s.name, Reason: ReasonMissing,
			Message: fmt.Sprintf("%q is required", s.name),
		})
	}

	if present {
		typed, ok := coerce(s.typ, value)
		if !ok {
			issues = append(issues, Issue{
				Severity: SeverityError, OptionOrPositional: s.name, Reason: ReasonTypeMismatch,
				Message: fmt.Sprintf("%q must be of type %s", s.name, s.typ),
			})
		} else {
			if len(s.allowedValues) > 0 && !containsStr(s.allowedValues, fmt.Sprintf("%v", typed)) {
				issues = append(issues, Issue{
					Severity: SeverityError, OptionOrPositional: s.name, Reason: ReasonNotAllowedValue,
					Message: fmt.Sprintf("%q must be one of %v", s.name, s.allowedValues),
				})
			}
			if s.numericRange != nil {
				if n, ok := typed.(float64); ok {
					if (s.numericRange.Min != nil && n < *s.numericRange.Min) ||
						(s.numericRange.Max != nil && n > *s.numericRange.Max) {
						issues = append(issues, Issue{
							Severity: SeverityError, OptionOrPositional: s.name, Reason: ReasonRangeViolation,
							Message: fmt.Sprintf("%q is out of range", s.name),
						})
					}
				}
			}
			if s.typ == command.TypeArray {
				if arr, ok := typed.([]any); ok {
					if (s.arrayMin != nil && len(arr) < *s.arrayMin) ||
						(s.arrayMax != nil && len(arr) > *s.arrayMax) {
						issues = append(issues, Issue{
							Severity: SeverityError, OptionOrPositional: s.name, Reason: ReasonArrayCardinality,
							Message: fmt.Sprintf("%q has an invalid number of elements", s.name),
						})
					}
				}
			}
		}

		for _, other := range s.conflictsWith {
			if _, otherPresent := args.Get(other); otherPresent {
				key := conflictKey(s.name, other)
				if _, already := reportedConflicts[key]; !already {
					reportedConflicts[key] = struct{}{}
					issues = append(issues, Issue{
						Severity: SeverityError, OptionOrPositional: s.name, Reason: ReasonConflict,
						Message: fmt.Sprintf("%q conflicts with %q", s.name, other),
					})
				}
			}
		}

		for _, implied := range s.impliesPresenceOf {
			if _, ok := args.Get(implied); !ok {
				issues = append(issues, Issue{
					Severity: SeverityError, OptionOrPositional: implied, Reason: ReasonImpliedMissing,
					Message: fmt.Sprintf("%q requires %q to also be set", s.name, implied),
				})
			}
		}
	}

	return issues
}

// conflictKey normalizes a pair so a conflict is reported once per
// pair regardless of which side triggers the check first (§4.C).
func conflictKey(a, b string) string {
	if a < b {
		return a + "\x00" + b
	}
	return b + "\x00" + a
}

func containsStr(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

// coerce attempts to interpret value as typ, returning the canonical
// Go representation (float64 for numbers, bool for booleans, string
// for strings, []any for arrays) and whether coercion succeeded.
func coerce(typ command.ValueType, value any) (any, bool) {
	switch typ {
	case command.TypeString:
		s, ok := value.(string)
		return s, ok
	case command.TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(v)
			return b, err == nil
		}
		return nil, false
	case command.TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		}
		return nil, false
	case command.TypeArray:
		arr, ok := value.([]any)
		return arr, ok
	default:
		return value, true
	}
}
