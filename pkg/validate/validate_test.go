package validate

import (
	"testing"

	"github.com/cliforge/cmdcore/pkg/command"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestValidate_MissingRequired(t *testing.T) {
	node := &command.Node{
		Name: "greet",
		Options: []command.OptionSpec{
			{Name: "name", Type: command.TypeString, Required: true},
		},
	}
	res := Validate(node, command.NewArguments())
	if res.Valid {
		t.Fatal("expected invalid result for missing required option")
	}
	if len(res.Issues) != 1 || res.Issues[0].Reason != ReasonMissing {
		t.Fatalf("Issues = %+v, want a single Missing issue", res.Issues)
	}
}

func TestValidate_UnknownOption(t *testing.T) {
	node := &command.Node{Name: "greet"}
	args := command.NewArguments()
	args.Set("mystery", "value")

	res := Validate(node, args)
	if res.Valid {
		t.Fatal("expected invalid result for unknown option")
	}
	if res.Issues[0].Reason != ReasonUnknownOption {
		t.Fatalf("Reason = %v, want UnknownOption", res.Issues[0].Reason)
	}
}

func TestValidate_ConflictReportedOncePerPair(t *testing.T) {
	node := &command.Node{
		Options: []command.OptionSpec{
			{Name: "a", Type: command.TypeBoolean, ConflictsWith: []string{"b"}},
			{Name: "b", Type: command.TypeBoolean, ConflictsWith: []string{"a"}},
		},
	}
	args := command.NewArguments()
	args.Set("a", true)
	args.Set("b", true)

	res := Validate(node, args)
	count := 0
	for _, issue := range res.Issues {
		if issue.Reason == ReasonConflict {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("Conflict reported %d times, want exactly once", count)
	}
}

func TestValidate_ImpliesPresenceOf(t *testing.T) {
	node := &command.Node{
		Options: []command.OptionSpec{
			{Name: "token", Type: command.TypeString, ImpliesPresenceOf: []string{"tenant"}},
			{Name: "tenant", Type: command.TypeString},
		},
	}
	args := command.NewArguments()
	args.Set("token", "abc")

	res := Validate(node, args)
	if res.Valid {
		t.Fatal("expected invalid result: tenant implied but missing")
	}
	if res.Issues[0].Reason != ReasonImpliedMissing {
		t.Fatalf("Reason = %v, want ImpliedMissing", res.Issues[0].Reason)
	}
}

func TestValidate_NumericRangeAndArrayCardinality(t *testing.T) {
	node := &command.Node{
		Options: []command.OptionSpec{
			{Name: "count", Type: command.TypeNumber, NumericRange: &command.Range{Min: floatPtr(1), Max: floatPtr(10)}},
			{Name: "tags", Type: command.TypeArray, ArrayMin: intPtr(1), ArrayMax: intPtr(2)},
		},
	}
	args := command.NewArguments()
	args.Set("count", 42.0)
	args.Set("tags", []any{"a", "b", "c"})

	res := Validate(node, args)
	reasons := map[Reason]bool{}
	for _, i := range res.Issues {
		reasons[i.Reason] = true
	}
	if !reasons[ReasonRangeViolation] {
		t.Error("expected RangeViolation")
	}
	if !reasons[ReasonArrayCardinality] {
		t.Error("expected ArrayCardinality")
	}
}

func TestValidate_AllowedValuesAndTypeMismatch(t *testing.T) {
	node := &command.Node{
		Options: []command.OptionSpec{
			{Name: "level", Type: command.TypeString, AllowedValues: []string{"low", "high"}},
			{Name: "verbose", Type: command.TypeBoolean},
		},
	}
	args := command.NewArguments()
	args.Set("level", "medium")
	args.Set("verbose", "not-a-bool")

	res := Validate(node, args)
	reasons := map[Reason]bool{}
	for _, i := range res.Issues {
		reasons[i.Reason] = true
	}
	if !reasons[ReasonNotAllowedValue] {
		t.Error("expected NotAllowedValue")
	}
	if !reasons[ReasonTypeMismatch] {
		t.Error("expected TypeMismatch")
	}
}

func TestValidate_TotalNotShortCircuited(t *testing.T) {
	node := &command.Node{
		Options: []command.OptionSpec{
			{Name: "a", Type: command.TypeString, Required: true},
			{Name: "b", Type: command.TypeString, Required: true},
		},
	}
	res := Validate(node, command.NewArguments())
	if len(res.Issues) != 2 {
		t.Fatalf("Issues count = %d, want 2 (validation must not short-circuit)", len(res.Issues))
	}
}

func TestValidate_ZeroOptionsIsValid(t *testing.T) {
	node := &command.Node{Name: "noop"}
	res := Validate(node, command.NewArguments())
	if !res.Valid {
		t.Fatalf("expected valid result for command with zero options, got %+v", res.Issues)
	}
}

func TestValidate_IsDeterministic(t *testing.T) {
	node := &command.Node{
		Options: []command.OptionSpec{{Name: "name", Type: command.TypeString, Required: true}},
	}
	args := command.NewArguments()

	first := Validate(node, args)
	second := Validate(node, args)

	if len(first.Issues) != len(second.Issues) {
		t.Fatalf("Validate is not deterministic: %d issues vs %d", len(first.Issues), len(second.Issues))
	}
}
