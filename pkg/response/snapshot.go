package response

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cliforge/cmdcore/pkg/cmderror"
	"github.com/pterm/pterm"
)

// FailureExitCode is the single well-known non-zero exit code the
// framework uses for any failure (§6).
const FailureExitCode = 1

// SuccessExitCode is used when a Response finalizes successfully.
const SuccessExitCode = 0

// Snapshot is the frozen, JSON-serializable form of a Response
// returned from invoke() (§4.B, §6 wire format).
type Snapshot struct {
	Success  bool             `json:"success"`
	ExitCode int              `json:"exitCode"`
	Message  string           `json:"message"`
	Data     any              `json:"data"`
	Stdout   string           `json:"stdout"`
	Stderr   string           `json:"stderr"`
	Error    *cmderror.Record `json:"error"`
}

// Finalize freezes the Response and returns its snapshot. Finalize is
// idempotent: calling it more than once returns the same snapshot
// without mutating anything further (§4.B, §4.G state machine).
func (r *Response) Finalize() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finalized {
		return r.snapshot
	}

	// A Response driven to Failed without an ErrorRecord gets the generic
	// "Command Failed" record so success XOR error holds in the snapshot.
	if r.failed && r.err == nil {
		r.err = cmderror.MapHandlerFailure(nil)
	}

	exit := SuccessExitCode
	if r.exit != nil {
		exit = *r.exit
	} else if !r.success {
		exit = FailureExitCode
	}

	r.snapshot = &Snapshot{
		Success:  r.success && r.err == nil,
		ExitCode: exit,
		Message:  r.message,
		Data:     r.data,
		Stdout:   r.stdoutBuf.String(),
		Stderr:   r.stderrBuf.String(),
		Error:    r.err,
	}
	r.finalized = true
	r.state = StateFinalized
	return r.snapshot
}

// WriteJSON emits Finalize()'s snapshot to w as a single JSON document.
// It is only meaningful when the Response's format is FormatJSON; the
// Processor is responsible for gating the call on format and silent
// (§4.B, §6).
func (r *Response) WriteJSON(w io.Writer) error {
	snap := r.Finalize()
	enc := json.NewEncoder(w)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("response: failed to write JSON snapshot: %w", err)
	}
	return nil
}

// RenderDefault writes the human-oriented rendering of a finalized
// Response's stream content, plus (on failure) an error header and
// message, to the given stdout/stderr writers. Grounded on the
// teacher's pterm-based success/error printers (pkg/progress).
func (r *Response) RenderDefault(stdout, stderr io.Writer) {
	snap := r.Finalize()

	if snap.Stdout != "" {
		fmt.Fprint(stdout, snap.Stdout)
	}
	if snap.Stderr != "" {
		fmt.Fprint(stderr, snap.Stderr)
	}

	if snap.Success {
		return
	}

	header := "Command failed"
	msg := snap.Message
	details := ""
	if snap.Error != nil {
		header = string(snap.Error.Kind)
		if snap.Error.Subkind != "" {
			header = header + "/" + string(snap.Error.Subkind)
		}
		if msg == "" {
			msg = snap.Error.Message
		}
		details = snap.Error.AdditionalDetails
	}

	fmt.Fprint(stderr, pterm.Error.Sprintfln("%s: %s", header, msg))
	if details != "" {
		fmt.Fprintln(stderr, pterm.Gray(details))
	}
}

// Format returns the Response's configured rendering mode.
func (r *Response) Format() Format {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

// Silent reports whether the Response suppresses live output.
func (r *Response) Silent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.silent
}
