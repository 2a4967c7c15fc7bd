// Package response implements the per-invocation accumulator described
// in §4.B: buffered console output, structured data, at most one active
// progress indicator, and a terminal success/error state that can be
// frozen into a JSON-serializable snapshot.
package response

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/cliforge/cmdcore/pkg/cmderror"
)

// Format is the response's rendering mode.
type Format string

const (
	FormatDefault Format = "default"
	FormatJSON    Format = "json"
)

// Stream identifies which console stream a log write targets.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

// State is the per-invocation lifecycle described in §4.G: Fresh ->
// Validating -> Preparing -> Executing -> Finalized. Any state may
// transition directly to Finalized on failure.
type State int

const (
	StateFresh State = iota
	StateValidating
	StatePreparing
	StateExecuting
	StateFinalized
)

// Indicator is the minimal contract Response needs from a progress
// implementation; it never talks to a concrete rendering library
// directly (Design Notes §9: "avoid global singletons").
type Indicator interface {
	Start(message string) error
	Update(message string) error
	Success(message string) error
	Failure(message string) error
}

// Response is the accumulator a single invoke() call owns exclusively.
// It is not safe for concurrent use by multiple goroutines beyond the
// suspension-point discipline described in §5.
type Response struct {
	mu sync.Mutex

	format Format
	silent bool

	stdoutLive io.Writer
	stderrLive io.Writer
	stdoutBuf  bytes.Buffer
	stderrBuf  bytes.Buffer

	data    any
	message string

	progress       Indicator
	progressActive bool

	success bool
	failed  bool
	err     *cmderror.Record
	exit    *int

	state State

	finalized  bool
	snapshot   *Snapshot
}

// Options configures a new Response.
type Options struct {
	Format     Format
	Silent     bool
	StdoutLive io.Writer
	StderrLive io.Writer
	Progress   Indicator
}

// New constructs a Fresh Response. A nil StdoutLive/StderrLive disables
// live re-emission on that stream even when not silent.
func New(opts Options) *Response {
	if opts.Format == "" {
		opts.Format = FormatDefault
	}
	return &Response{
		format:     opts.Format,
		silent:     opts.Silent,
		stdoutLive: opts.StdoutLive,
		stderrLive: opts.StderrLive,
		progress:   opts.Progress,
		state:      StateFresh,
	}
}

// SetState advances the pipeline state. It is the Processor's
// responsibility to call this at each pipeline barrier; Response
// itself only enforces that Finalized is terminal.
func (r *Response) SetState(s State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateFinalized {
		return fmt.Errorf("response: cannot transition out of Finalized")
	}
	r.state = s
	return nil
}

// Log appends bytes to the named stream's buffer and, unless silent,
// re-emits them live immediately so ordering across handler writes is
// preserved (§5 ordering guarantees).
func (r *Response) Log(stream Stream, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}

	var buf *bytes.Buffer
	var live io.Writer
	switch stream {
	case Stdout:
		buf, live = &r.stdoutBuf, r.stdoutLive
	case Stderr:
		buf, live = &r.stderrBuf, r.stderrLive
	}
	buf.Write(data)
	if !r.silent && live != nil {
		_, _ = live.Write(data)
	}
}

// Logf is a convenience wrapper around Log for formatted text.
func (r *Response) Logf(stream Stream, format string, args ...any) {
	r.Log(stream, []byte(fmt.Sprintf(format, args...)))
}

// SetData sets the structured response payload.
func (r *Response) SetData(data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.data = data
}

// SetMessage sets the human-facing summary message.
func (r *Response) SetMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.message = message
}

// BeginProgress starts the single active progress indicator. Starting
// a second one while one is active is a programmer error and returns
// an error rather than silently replacing it (§4.B: "at most one
// active progress indicator").
func (r *Response) BeginProgress(message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return fmt.Errorf("response: already finalized")
	}
	if r.progressActive {
		return fmt.Errorf("response: a progress indicator is already active")
	}
	if r.progress == nil {
		return nil
	}
	if err := r.progress.Start(message); err != nil {
		return err
	}
	r.progressActive = true
	return nil
}

// EndProgress stops the active progress indicator, if any.
func (r *Response) EndProgress(succeeded bool, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.progressActive || r.progress == nil {
		return nil
	}
	r.progressActive = false
	if succeeded {
		return r.progress.Success(message)
	}
	return r.progress.Failure(message)
}

// Succeeded transitions the Response to the success terminal state.
func (r *Response) Succeeded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.success = true
	r.failed = false
	r.err = nil
}

// Failed transitions the Response to a generic failure state without
// attaching a specific ErrorRecord; if none is attached by Finalize, the
// snapshot carries the generic HandlerSilentReject "Command Failed"
// record. Prefer SetError when the failure kind is known.
func (r *Response) Failed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.failed = true
	r.success = false
}

// SetError attaches an ErrorRecord and implies Failed (§4.B).
func (r *Response) SetError(err *cmderror.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.err = err
	r.failed = true
	r.success = false
}

// SetExitCode overrides the exit code that would otherwise be derived
// from success/failure at Finalize time.
func (r *Response) SetExitCode(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return
	}
	r.exit = &code
}

// IsTerminal reports whether the Response has reached success or
// failure (but has not necessarily been finalized yet).
func (r *Response) IsTerminal() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success || r.failed
}

// FailedWithoutError reports whether the Response was driven to Failed
// directly (rather than via SetError) and so has no ErrorRecord
// attached yet. A caller that knows a more specific failure kind
// attaches it before Finalize; otherwise Finalize attaches the generic
// record, preserving §4.B's success XOR error invariant.
func (r *Response) FailedWithoutError() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed && r.err == nil
}

// StdoutString returns the accumulated stdout buffer.
func (r *Response) StdoutString() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stdoutBuf.String()
}

// StderrString returns the accumulated stderr buffer.
func (r *Response) StderrString() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stderrBuf.String()
}

// SeedStreams pre-loads the stdout/stderr buffers, used by the
// chained-handler execution to carry forward cumulative output across
// steps (§4.G step 5, chained handlers).
func (r *Response) SeedStreams(stdout, stderr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stdoutBuf.WriteString(stdout)
	r.stderrBuf.WriteString(stderr)
}
