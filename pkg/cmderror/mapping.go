package cmderror

import "encoding/json"

// ImperativeError is the shape a handler throws for an expected,
// user-facing failure: a message plus optional additional context. Any
// value satisfying this interface maps to KindHandlerImperative
// regardless of its concrete type, per the shape-based discriminator in
// Design Notes §9.
type ImperativeError interface {
	error
	ImperativeMessage() string
}

// ImperativeDetails is an optional refinement of ImperativeError that
// also carries additional details. A cause chain is not read from the
// thrown value.
type ImperativeDetails interface {
	ImperativeError
	Details() string
}

// StdError is satisfied by any Go error that also exposes a captured
// stack trace, matching the "generic error with message and stack"
// row of the mapping table.
type StdError interface {
	error
	Stack() string
}

// MapHandlerFailure implements the §4.G handler-error mapping table.
// thrown is whatever value a handler's process() surfaced as failure:
// a Go error (imperative or generic), a string, or nil.
func MapHandlerFailure(thrown any) *Record {
	switch v := thrown.(type) {
	case nil:
		return New(KindHandlerSilentReject, "Command Failed")

	case ImperativeDetails:
		r := New(KindHandlerImperative, v.ImperativeMessage())
		return r.WithDetails(v.Details())

	case ImperativeError:
		return New(KindHandlerImperative, v.ImperativeMessage())

	case StdError:
		return New(KindHandlerUnhandled, "Unexpected Command Error: "+v.Error()).WithDetails(v.Stack())

	case string:
		return New(KindHandlerStringReject, v)

	case error:
		return New(KindHandlerUnhandled, "Unexpected Command Error: "+v.Error())

	default:
		data, err := json.Marshal(v)
		if err != nil {
			data = []byte(err.Error())
		}
		return New(KindHandlerUnhandled, "Unexpected Command Error").WithDetails(string(data))
	}
}
