package command

// Arguments is the parsed invocation input: a mapping from option name
// to value plus an ordered list of positionals. Values carry the
// declared primitive types after parsing (§3).
type Arguments struct {
	Options        map[string]any
	PositionalList []any
}

// NewArguments returns an empty, ready-to-use Arguments value.
func NewArguments() *Arguments {
	return &Arguments{Options: map[string]any{}}
}

// Get returns the value bound to name and whether it was present.
func (a *Arguments) Get(name string) (any, bool) {
	if a == nil || a.Options == nil {
		return nil, false
	}
	v, ok := a.Options[name]
	return v, ok
}

// Set binds name to value, overwriting any prior binding.
func (a *Arguments) Set(name string, value any) {
	if a.Options == nil {
		a.Options = map[string]any{}
	}
	a.Options[name] = value
}

// Clone returns a shallow copy: a new Options map with the same
// values, and a new backing array for PositionalList. Used by the
// chained-handler linker, which must never mutate the top-level
// invocation Arguments (§4.F step 1).
func (a *Arguments) Clone() *Arguments {
	if a == nil {
		return NewArguments()
	}
	out := &Arguments{
		Options:        make(map[string]any, len(a.Options)),
		PositionalList: append([]any{}, a.PositionalList...),
	}
	for k, v := range a.Options {
		out.Options[k] = v
	}
	return out
}
