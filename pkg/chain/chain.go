// Package chain implements the Chained-Handler Linker (§4.F): computing
// each downstream step's Arguments from prior steps' structured output,
// plus the optional per-step skip condition (§3 supplement).
package chain

import (
	"strconv"
	"strings"

	"github.com/cliforge/cmdcore/pkg/command"
	"github.com/expr-lang/expr"
)

// StepData is one prior step's structured response payload, addressed
// by JSONPath in a later step's argMapping.
type StepData = map[string]any

// Arguments computes the Arguments object for chain step at stepIndex,
// given the top-level invocation Arguments and the accumulated data of
// every earlier step (§4.F):
//  1. start from a shallow copy of the top-level Arguments;
//  2. for each argMapping entry, evaluate jsonPath against
//     priorSteps[fromPriorStepIndex] and bind the result at toArg,
//     replacing any prior binding;
//  3. a path that resolves to nothing binds toArg to nil.
//
// Pure and deterministic: the result depends only on its inputs.
func Arguments(top *command.Arguments, step command.ChainedStep, priorSteps []StepData) *command.Arguments {
	out := top.Clone()
	for _, m := range step.ArgMapping {
		var source StepData
		if m.FromPriorStepIndex >= 0 && m.FromPriorStepIndex < len(priorSteps) {
			source = priorSteps[m.FromPriorStepIndex]
		}
		value, _ := evaluatePath(source, m.JSONPath)
		out.Set(m.ToArg, value)
	}
	return out
}

// ShouldRun evaluates a step's optional condition against the
// accumulated prior-step data. A blank condition always runs. A
// condition that fails to compile or evaluate is treated as false,
// matching the "skip and contribute empty data" behavior described for
// a false condition (§3 supplement) rather than aborting the chain.
func ShouldRun(step command.ChainedStep, priorSteps []StepData) bool {
	if strings.TrimSpace(step.Condition) == "" {
		return true
	}

	env := map[string]any{"steps": toAnySlice(priorSteps)}
	program, err := expr.Compile(step.Condition, expr.Env(env), expr.AsBool())
	if err != nil {
		return false
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func toAnySlice(steps []StepData) []any {
	out := make([]any, len(steps))
	for i, s := range steps {
		out[i] = s
	}
	return out
}

// evaluatePath implements the trivial dotted-field / numeric-array-index
// path language called for by Design Notes §9: no library is
// appropriate for a path grammar this small.
func evaluatePath(root any, path string) (any, bool) {
	if path == "" {
		return root, root != nil
	}

	cur := root
	for _, segment := range strings.Split(path, ".") {
		if cur == nil {
			return nil, false
		}
		if idx, err := strconv.Atoi(segment); err == nil {
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
			continue
		}
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, present := m[segment]
		if !present {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
