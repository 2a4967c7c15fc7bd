package chain

import (
	"testing"

	"github.com/cliforge/cmdcore/pkg/command"
)

func TestArguments_BindsFromPriorStepData(t *testing.T) {
	top := command.NewArguments()
	top.Set("verbose", true)

	step := command.ChainedStep{
		ArgMapping: []command.ArgMapping{
			{FromPriorStepIndex: 0, JSONPath: "token", ToArg: "auth"},
		},
	}
	prior := []StepData{{"token": "T"}}

	got := Arguments(top, step, prior)
	if v, _ := got.Get("auth"); v != "T" {
		t.Fatalf("auth = %v, want T", v)
	}
	if v, _ := got.Get("verbose"); v != true {
		t.Fatal("top-level Arguments were not carried through")
	}
}

func TestArguments_MissingPathBindsNil(t *testing.T) {
	step := command.ChainedStep{
		ArgMapping: []command.ArgMapping{
			{FromPriorStepIndex: 0, JSONPath: "nope.deeper", ToArg: "x"},
		},
	}
	got := Arguments(command.NewArguments(), step, []StepData{{"token": "T"}})
	v, present := got.Get("x")
	if !present || v != nil {
		t.Fatalf("Get(x) = (%v, %v), want (nil, true)", v, present)
	}
}

func TestArguments_ArrayIndexPath(t *testing.T) {
	step := command.ChainedStep{
		ArgMapping: []command.ArgMapping{
			{FromPriorStepIndex: 0, JSONPath: "items.1.name", ToArg: "picked"},
		},
	}
	prior := []StepData{{
		"items": []any{
			map[string]any{"name": "first"},
			map[string]any{"name": "second"},
		},
	}}
	got := Arguments(command.NewArguments(), step, prior)
	if v, _ := got.Get("picked"); v != "second" {
		t.Fatalf("picked = %v, want second", v)
	}
}

// TestArguments_DoesNotMutateTopLevel is testable property 4's
// non-mutation half: computing step arguments must never affect the
// top-level Arguments object shared across steps.
func TestArguments_DoesNotMutateTopLevel(t *testing.T) {
	top := command.NewArguments()
	top.Set("name", "Ada")

	step := command.ChainedStep{
		ArgMapping: []command.ArgMapping{{FromPriorStepIndex: 0, JSONPath: "x", ToArg: "name"}},
	}
	_ = Arguments(top, step, []StepData{{"x": "overwritten"}})

	if v, _ := top.Get("name"); v != "Ada" {
		t.Fatalf("top-level Arguments mutated: name = %v", v)
	}
}

func TestShouldRun_BlankConditionAlwaysRuns(t *testing.T) {
	if !ShouldRun(command.ChainedStep{}, nil) {
		t.Fatal("blank condition should always run")
	}
}

func TestShouldRun_EvaluatesAgainstPriorStepData(t *testing.T) {
	step := command.ChainedStep{Condition: `steps[0].ok == true`}
	if !ShouldRun(step, []StepData{{"ok": true}}) {
		t.Fatal("expected condition to evaluate true")
	}
	if ShouldRun(step, []StepData{{"ok": false}}) {
		t.Fatal("expected condition to evaluate false")
	}
}

func TestShouldRun_InvalidConditionIsTreatedAsFalse(t *testing.T) {
	step := command.ChainedStep{Condition: "not ( valid expr"}
	if ShouldRun(step, nil) {
		t.Fatal("an uncompilable condition must not run the step")
	}
}
