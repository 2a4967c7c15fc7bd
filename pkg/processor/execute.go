package processor

import (
	"context"

	"github.com/cliforge/cmdcore/pkg/chain"
	"github.com/cliforge/cmdcore/pkg/cmderror"
	"github.com/cliforge/cmdcore/pkg/handler"
	"github.com/cliforge/cmdcore/pkg/profile"
	"github.com/cliforge/cmdcore/pkg/response"
)

// executeSingle runs the node's single handler against resp directly
// (§4.G step 5, single handler).
func (p *Processor) executeSingle(params InvokeParams, resp *response.Response, profiles *profile.ProfileMap) *response.Snapshot {
	h, ok := p.resolveHandler(p.node.HandlerRef)
	if !ok {
		resp.SetError(instantiationFailure(p.node.HandlerRef))
		return resp.Finalize()
	}

	thrown, err := p.runHandler(h, handler.Params{
		Response:       resp,
		Profiles:       profiles,
		Arguments:      params.Arguments,
		Definition:     p.node,
		FullDefinition: p.root,
	})
	applyOutcome(resp, thrown, err)
	return resp.Finalize()
}

// executeChain runs the node's chained handlers in declaration order
// (§4.G step 5, chained handlers). Each step gets a fresh Response
// seeded with the running console accumulator; the chain's success is
// the success of the last step, and a failing step's own finalized
// Response is returned as the invocation's result (§9 Open Question:
// the failed step's snapshot carries the cumulative stdout/stderr up to
// and including that step, per the spec's minimum requirement, and
// nothing further).
func (p *Processor) executeChain(ctx context.Context, params InvokeParams, top *response.Response, profiles *profile.ProfileMap) *response.Snapshot {
	var priorSteps []chain.StepData
	cumulativeStdout, cumulativeStderr := top.StdoutString(), top.StderrString()
	var last *response.Snapshot

	for _, step := range p.node.ChainedHandlers {
		if cancelled := checkCancelled(ctx, top); cancelled != nil {
			return cancelled
		}

		if !chain.ShouldRun(step, priorSteps) {
			priorSteps = append(priorSteps, chain.StepData{})
			continue
		}

		h, ok := p.resolveHandler(step.HandlerRef)
		stepArgs := chain.Arguments(params.Arguments, step, priorSteps)

		stepResp := response.New(response.Options{
			Format:     params.Format,
			Silent:     step.Silent || params.Silent,
			StdoutLive: p.stdoutLive,
			StderrLive: p.stderrLive,
		})
		stepResp.SeedStreams(cumulativeStdout, cumulativeStderr)

		if !ok {
			stepResp.SetError(instantiationFailure(step.HandlerRef))
		} else {
			thrown, err := p.runHandler(h, handler.Params{
				Response:       stepResp,
				Profiles:       profiles,
				Arguments:      stepArgs,
				Definition:     p.node,
				FullDefinition: p.root,
				IsChained:      true,
			})
			applyOutcome(stepResp, thrown, err)
		}

		snap := stepResp.Finalize()
		last = snap
		if !snap.Success {
			return snap
		}

		cumulativeStdout, cumulativeStderr = snap.Stdout, snap.Stderr
		priorSteps = append(priorSteps, toStepData(snap.Data))
	}

	if last == nil {
		// A chain with zero steps: nothing ran, nothing failed.
		top.Succeeded()
		return top.Finalize()
	}
	return last
}

func (p *Processor) resolveHandler(ref string) (handler.Handler, bool) {
	if p.handlers == nil {
		return nil, false
	}
	return p.handlers.Get(ref)
}

func instantiationFailure(ref string) *cmderror.Record {
	return cmderror.New(cmderror.KindInternal, "Handler Instantiation Failed").
		WithSubkind(cmderror.SubkindHandlerInstantiation).
		WithDetails(ref)
}

// runHandler invokes h.Process, translating a panic of any shape into
// the same "thrown value" the handler-error mapping table expects,
// mirroring the throw/reject completion signal from §6 in idiomatic Go
// terms (recover instead of catch).
func (p *Processor) runHandler(h handler.Handler, params handler.Params) (thrown any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			thrown = rec
		}
	}()
	err = h.Process(params)
	return thrown, err
}

// applyOutcome maps a handler's completion signal onto resp: a thrown
// panic value, a Reject()-wrapped value, a generic Go error, a plain
// nil return (success, unless resp.Failed() was already called
// directly), or resp.Failed() called directly with no return error —
// which still needs an ErrorRecord to keep success XOR error true.
func applyOutcome(resp *response.Response, thrown any, err error) {
	if thrown != nil {
		resp.SetError(cmderror.MapHandlerFailure(thrown))
		return
	}
	if err != nil {
		if rj, ok := err.(interface{ Value() any }); ok {
			resp.SetError(cmderror.MapHandlerFailure(rj.Value()))
			return
		}
		resp.SetError(cmderror.MapHandlerFailure(err))
		return
	}
	if resp.FailedWithoutError() {
		resp.SetError(cmderror.MapHandlerFailure(nil))
		return
	}
	if !resp.IsTerminal() {
		resp.Succeeded()
	}
}

// toStepData adapts a step's structured data payload into the map
// shape the chain linker's path evaluator understands. A step whose
// data is not itself a map (e.g. a bare scalar) is wrapped under the
// key "value", so a later step reaches it with jsonPath "value"; nil
// data becomes an empty map.
func toStepData(data any) chain.StepData {
	if m, ok := data.(map[string]any); ok {
		return m
	}
	if data == nil {
		return chain.StepData{}
	}
	return chain.StepData{"value": data}
}
