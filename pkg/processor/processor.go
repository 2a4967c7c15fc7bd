// Package processor implements the Command Processor (§4.G): the
// pipeline that resolves a command node, validates its arguments, loads
// the profiles it declares, runs its handler (or chain of handlers),
// and produces a finalized Response.
package processor

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cliforge/cmdcore/pkg/cmderror"
	"github.com/cliforge/cmdcore/pkg/command"
	"github.com/cliforge/cmdcore/pkg/handler"
	"github.com/cliforge/cmdcore/pkg/profile"
	"github.com/cliforge/cmdcore/pkg/response"
	"github.com/cliforge/cmdcore/pkg/validate"
)

// diagLog is the package-level diagnostics logger for pipeline-stage
// transitions, matching the teacher's own plain-log ambient practice
// (internal/executor) rather than pulling in a new logging dependency
// for internal diagnostics.
var diagLog = log.New(io.Discard, "processor: ", log.LstdFlags)

// SetDiagnosticsOutput redirects pipeline-stage diagnostics, off by
// default (io.Discard).
func SetDiagnosticsOutput(w io.Writer) {
	diagLog.SetOutput(w)
}

// HelpGenerator renders help text for a node; injected because
// help-text rendering internals are out of scope (§1).
type HelpGenerator func(node, root *command.Node, rootName string) string

// ProfileFactory constructs a fresh *profile.Manager for one
// invocation. A new Manager per invoke() call keeps its memoization and
// cycle-detection state properly scoped (§4.D: "ProfileMap for an
// invocation is built fresh per call").
type ProfileFactory func() *profile.Manager

// IndicatorFactory constructs a fresh progress indicator for one
// invocation's Response, or returns nil to disable progress rendering.
type IndicatorFactory func() response.Indicator

// Processor orchestrates the pipeline for exactly one CommandNode.
type Processor struct {
	node     *command.Node
	root     *command.Node
	rootName string

	handlers *handler.Registry
	profiles ProfileFactory
	helpGen  HelpGenerator
	indicator IndicatorFactory

	stdoutLive io.Writer
	stderrLive io.Writer
	stdin      io.Reader
}

// Config bundles Processor construction parameters: the node, tree
// root and root name, the handler registry, the profile factory, and
// optionally a help generator, a progress indicator factory (an
// indicator may mirror its events to a progress Broadcaster), live
// stream writers and stdin.
type Config struct {
	Node     *command.Node
	Root     *command.Node
	RootName string
	Handlers *handler.Registry
	Profiles ProfileFactory
	HelpGen  HelpGenerator
	Indicator IndicatorFactory

	StdoutLive io.Writer
	StderrLive io.Writer
	Stdin      io.Reader
}

// NewProcessor constructs a Processor for cfg.Node.
func NewProcessor(cfg Config) *Processor {
	return &Processor{
		node:       cfg.Node,
		root:       cfg.Root,
		rootName:   cfg.RootName,
		handlers:   cfg.Handlers,
		profiles:   cfg.Profiles,
		helpGen:    cfg.HelpGen,
		indicator:  cfg.Indicator,
		stdoutLive: cfg.StdoutLive,
		stderrLive: cfg.StderrLive,
		stdin:      cfg.Stdin,
	}
}

// InvokeParams is the invocation API's parameter object (§6).
type InvokeParams struct {
	Arguments *command.Arguments
	Silent    bool
	Format    response.Format

	// Context carries the caller-supplied cancellation signal (§5,
	// §9: "pass an explicit cancellation token through the invocation
	// context"). A nil Context is treated as context.Background().
	Context context.Context

	// ProfileSelections binds a profile type to the specific name to
	// load for this invocation (e.g. {"main": "m1"} for `--main-profile
	// m1`). A required type absent from this map loads the profile
	// named "default".
	ProfileSelections map[string]string
}

// Help renders help text for the Processor's node via the injected
// generator and emits it through resp (§4.G help()).
func (p *Processor) Help(resp *response.Response) {
	var text string
	if p.helpGen != nil {
		text = p.helpGen(p.node, p.root, p.rootName)
	} else {
		text = fmt.Sprintf("Usage: %s\n", strings.Join(command.Path(p.node), " "))
	}
	resp.Log(response.Stdout, []byte(text))
}

// Validate defers to the syntax validator and returns its result
// verbatim; it does not mutate resp on failure, per §4.G ("does not
// mutate the Response on validator failure — that is the caller's
// job").
func (p *Processor) Validate(args *command.Arguments) validate.Result {
	return validate.Validate(p.node, args)
}

// Invoke runs the full pipeline described in §4.G and returns the
// finalized snapshot.
func (p *Processor) Invoke(params InvokeParams) *response.Snapshot {
	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Pre-check.
	if params.Arguments == nil {
		params.Arguments = command.NewArguments()
	}
	if params.Format == "" {
		params.Format = response.FormatDefault
	}
	if params.Format != response.FormatDefault && params.Format != response.FormatJSON {
		bad := params.Format
		params.Format = response.FormatDefault
		return failFast(params, cmderror.New(cmderror.KindInternal, fmt.Sprintf("unsupported response format %q", bad)).
			WithSubkind(cmderror.SubkindBadFormat))
	}
	if p.node == nil {
		return failFast(params, cmderror.New(cmderror.KindInternal, "processor constructed with a nil command node"))
	}
	hasHandler := p.node.HandlerRef != ""
	hasChain := len(p.node.ChainedHandlers) > 0
	if p.node.Kind == command.KindCommand && hasHandler == hasChain {
		return failFast(params, cmderror.New(cmderror.KindInternal, "command node has neither or both of handlerRef/chainedHandlers"))
	}

	// 2. Construct Response.
	var indicator response.Indicator
	if p.indicator != nil {
		indicator = p.indicator()
	}
	resp := response.New(response.Options{
		Format:     params.Format,
		Silent:     params.Silent,
		StdoutLive: p.stdoutLive,
		StderrLive: p.stderrLive,
		Progress:   indicator,
	})

	if p.node.Deprecated != nil {
		resp.Logf(response.Stderr, "warning: %s is deprecated%s\n",
			strings.Join(command.Path(p.node), " "), deprecationSuffix(p.node.Deprecated))
	}

	if cancelled := checkCancelled(ctx, resp); cancelled != nil {
		return cancelled
	}

	// 3. Validate.
	_ = resp.SetState(response.StateValidating)
	diagLog.Printf("validating %s", strings.Join(command.Path(p.node), " "))
	result := func() (r validate.Result) {
		defer func() {
			if rec := recover(); rec != nil {
				r = validate.Result{}
				resp.SetError(cmderror.New(cmderror.KindSyntax, "Unexpected syntax validation error").
					WithDetails(fmt.Sprintf("%v", rec)))
			}
		}()
		return p.Validate(params.Arguments)
	}()
	if resp.IsTerminal() {
		return resp.Finalize()
	}
	if !result.Valid {
		resp.SetMessage("Command syntax invalid")
		for _, issue := range result.Issues {
			resp.Logf(response.Stderr, "%s: %s\n", issue.Reason, issue.Message)
		}
		resp.Logf(response.Stderr, "%s\n", validate.HelpHint(command.Path(p.node)))
		resp.SetError(cmderror.New(cmderror.KindSyntax, "Command syntax invalid"))
		return resp.Finalize()
	}

	if cancelled := checkCancelled(ctx, resp); cancelled != nil {
		return cancelled
	}

	// 4. Prepare.
	_ = resp.SetState(response.StatePreparing)
	diagLog.Printf("preparing %s", strings.Join(command.Path(p.node), " "))
	profiles, err := p.prepare(ctx, params, resp)
	if err != nil {
		resp.SetError(err)
		return resp.Finalize()
	}
	if resp.IsTerminal() {
		return resp.Finalize()
	}

	if cancelled := checkCancelled(ctx, resp); cancelled != nil {
		return cancelled
	}

	// 5. Execute.
	_ = resp.SetState(response.StateExecuting)
	diagLog.Printf("executing %s", strings.Join(command.Path(p.node), " "))
	if hasChain {
		return p.executeChain(ctx, params, resp, profiles)
	}
	return p.executeSingle(params, resp, profiles)
}

// prepare drains stdin (if declared) and loads the node's profiles.
func (p *Processor) prepare(ctx context.Context, params InvokeParams, resp *response.Response) (*profile.ProfileMap, *cmderror.Record) {
	if p.node.ReadStdin && p.stdin != nil {
		data, err := io.ReadAll(p.stdin)
		if err != nil {
			return nil, cmderror.Wrap(cmderror.KindPreparation, cmderror.SubkindStdinFailed, "failed to read stdin", err)
		}
		params.Arguments.Set(command.StdinArgKey, string(data))
	}

	if p.node.Profile == nil || p.profiles == nil {
		return profile.NewProfileMap(), nil
	}

	mgr := p.profiles()
	merged := profile.NewProfileMap()

	load := func(typ string, required bool) *cmderror.Record {
		name, selected := params.ProfileSelections[typ]
		if !selected {
			if !required {
				return nil
			}
			name = "default"
		}
		pm, err := mgr.Load(ctx, typ, name)
		if err != nil {
			if rec, ok := err.(*cmderror.Record); ok {
				return rec
			}
			return cmderror.New(cmderror.KindPreparation, err.Error())
		}
		// Merge the whole resolved dependency closure, not just the
		// requested type, so a handler can reach a dependency profile
		// through the same ProfileMap.
		for _, prof := range pm.All() {
			merged.Add(prof)
		}
		return nil
	}

	for _, typ := range p.node.Profile.Required {
		if rec := load(typ, true); rec != nil {
			return nil, rec
		}
	}
	for _, typ := range p.node.Profile.Optional {
		if rec := load(typ, false); rec != nil {
			return nil, rec
		}
	}

	return merged, nil
}

func deprecationSuffix(d *command.Deprecation) string {
	var b strings.Builder
	if d.Message != "" {
		b.WriteString(": ")
		b.WriteString(d.Message)
	}
	if d.RemoveInVersion != "" {
		b.WriteString(" (removed in ")
		b.WriteString(d.RemoveInVersion)
		b.WriteString(")")
	}
	return b.String()
}

func checkCancelled(ctx context.Context, resp *response.Response) *response.Snapshot {
	select {
	case <-ctx.Done():
		resp.SetError(cmderror.New(cmderror.KindInternal, "invocation cancelled").WithSubkind(cmderror.SubkindCancelled))
		return resp.Finalize()
	default:
		return nil
	}
}

func failFast(params InvokeParams, rec *cmderror.Record) *response.Snapshot {
	resp := response.New(response.Options{Format: params.Format, Silent: params.Silent})
	resp.SetError(rec)
	return resp.Finalize()
}
