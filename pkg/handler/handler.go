// Package handler implements the Handler Registry (Design Notes §9): a
// name/id -> factory map populated at process startup, replacing
// filesystem-directed or reflective module loading with a plain lookup.
// Grounded on the teacher's pkg/plugin/registry.go.
package handler

import (
	"fmt"
	"sync"

	"github.com/cliforge/cmdcore/pkg/command"
	"github.com/cliforge/cmdcore/pkg/profile"
	"github.com/cliforge/cmdcore/pkg/response"
)

// Params is the invocation context a handler's Process method receives
// (§6 handler contract).
type Params struct {
	Response       *response.Response
	Profiles       *profile.ProfileMap
	Arguments      *command.Arguments
	Definition     *command.Node
	FullDefinition *command.Node
	IsChained      bool
}

// Reject lets a handler fail with a value of any shape (a plain string,
// a sentinel int, a custom struct) rather than only a Go error,
// mirroring the throw/reject completion signal in the handler contract.
// The processor unwraps a Reject value before running it through the
// handler-error mapping table, so Reject("boom") maps exactly as a
// plain string would.
func Reject(value any) error {
	return &rejection{value: value}
}

type rejection struct{ value any }

func (r *rejection) Error() string { return fmt.Sprintf("%v", r.value) }

// Value exposes the rejected value for the processor's error mapping.
func (r *rejection) Value() any { return r.value }

// Handler is the contract every registered handler value exposes (§6).
// Completion is signalled by a normal return (success), by returning a
// non-nil error whose value shape is mapped per the handler-error
// mapping table (see pkg/cmderror), or by calling Response.Failed and
// returning nil.
type Handler interface {
	Process(params Params) error
}

// Factory constructs a fresh Handler instance for one invocation. A
// factory per invocation (rather than a shared singleton) keeps
// handlers free to hold invocation-scoped state without synchronization.
type Factory func() Handler

// Registry is a name -> Factory map populated at startup and consulted
// by the processor to resolve a CommandNode's handlerRef or a
// ChainedStep's handlerRef.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds a named handler factory. Registering the same name
// twice is a programmer error and returns an error rather than
// silently overwriting the earlier registration.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("handler: %q is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister panics on a duplicate registration, for use in package
// init() blocks where a collision is unrecoverable configuration error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Get resolves handlerRef to a fresh Handler instance. Resolution
// failure surfaces as Internal/HandlerInstantiation per §4.G, with
// handlerRef named in additionalDetails; the caller (processor) is
// responsible for constructing that ErrorRecord.
func (r *Registry) Get(handlerRef string) (Handler, bool) {
	r.mu.RLock()
	factory, ok := r.factories[handlerRef]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}
