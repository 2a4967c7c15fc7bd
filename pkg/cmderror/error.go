// Package cmderror defines the closed error taxonomy shared by the
// command processor pipeline: every recoverable failure the pipeline
// produces is converted into a Record and attached to a Response rather
// than propagated as a Go error.
package cmderror

import "fmt"

// Kind is the top-level error taxonomy. The set is closed; do not add
// values without also updating the handler-error mapping table in
// pkg/cmderror/mapping.go.
type Kind string

const (
	KindSyntax             Kind = "Syntax"
	KindPreparation        Kind = "Preparation"
	KindHandlerImperative  Kind = "HandlerImperative"
	KindHandlerUnhandled   Kind = "HandlerUnhandled"
	KindHandlerStringReject Kind = "HandlerStringReject"
	KindHandlerSilentReject Kind = "HandlerSilentReject"
	KindInternal           Kind = "Internal"
)

// Subkind enumerates the closed set of Preparation and Internal
// subkinds named in the taxonomy.
type Subkind string

const (
	SubkindProfileMissing    Subkind = "ProfileMissing"
	SubkindProfileCycle      Subkind = "ProfileCycle"
	SubkindDependencyFailed  Subkind = "DependencyFailed"
	SubkindCredentialMissing Subkind = "CredentialMissing"
	SubkindStdinFailed       Subkind = "StdinFailed"

	SubkindMissingSecureField   Subkind = "MissingSecureField"
	SubkindHandlerInstantiation Subkind = "HandlerInstantiation"
	SubkindBadFormat            Subkind = "BadFormat"
	SubkindCancelled            Subkind = "Cancelled"
	SubkindUnknown              Subkind = "Unknown"
)

// Record is the structured error attached to a finalized Response.
type Record struct {
	Kind               Kind     `json:"kind"`
	Subkind            Subkind  `json:"subkind,omitempty"`
	Message            string   `json:"msg"`
	AdditionalDetails  string   `json:"additionalDetails,omitempty"`
	Stack              string   `json:"stack,omitempty"`
	CauseChain         []*Record `json:"causeErrors,omitempty"`
}

// Error implements the error interface so a Record can be returned
// through ordinary Go error-handling paths inside the pipeline before
// it is attached to a Response.
func (r *Record) Error() string {
	if r == nil {
		return ""
	}
	if r.Subkind != "" {
		return fmt.Sprintf("%s/%s: %s", r.Kind, r.Subkind, r.Message)
	}
	return fmt.Sprintf("%s: %s", r.Kind, r.Message)
}

// New builds a Record with no subkind or cause chain.
func New(kind Kind, message string) *Record {
	return &Record{Kind: kind, Message: message}
}

// Newf builds a Record with a formatted message.
func Newf(kind Kind, format string, args ...any) *Record {
	return &Record{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithSubkind returns a copy of r with Subkind set.
func (r *Record) WithSubkind(sub Subkind) *Record {
	c := *r
	c.Subkind = sub
	return &c
}

// WithDetails returns a copy of r with AdditionalDetails set.
func (r *Record) WithDetails(details string) *Record {
	c := *r
	c.AdditionalDetails = details
	return &c
}

// WithCause returns a copy of r with cause wrapped into its cause chain
// (§4.D dependency-load failures wrap the underlying failure; §7 says
// downstream stages carry the original message/additionalDetails
// through).
func (r *Record) WithCause(cause *Record) *Record {
	c := *r
	if cause != nil {
		c.CauseChain = append(append([]*Record{}, r.CauseChain...), cause)
	}
	return &c
}

// Wrap builds a Record of the given kind and subkind around a plain Go
// error,
// carrying the original error's message through as AdditionalDetails
// per the propagation policy in §7 ("the original error's message and
// additionalDetails are carried through").
func Wrap(kind Kind, sub Subkind, message string, cause error) *Record {
	r := &Record{Kind: kind, Subkind: sub, Message: message}
	if cause != nil {
		r.AdditionalDetails = cause.Error()
	}
	return r
}
