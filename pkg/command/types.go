// Package command defines the command-definition tree: the data model a
// host application (and its plugins) contribute to describe the
// commands a CLI exposes. The processor consumes this tree; nothing in
// this package parses argv or renders help text.
package command

// Kind distinguishes a command group (a namespace with children) from
// a leaf command (something that actually runs).
type Kind string

const (
	KindGroup   Kind = "group"
	KindCommand Kind = "command"
)

// ValueType is the closed set of primitive types an option or
// positional argument may declare.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeBoolean ValueType = "boolean"
	TypeArray   ValueType = "array"
)

// OptionSpec describes one named option (a flag) a command accepts.
type OptionSpec struct {
	Name              string
	Type              ValueType
	Required          bool
	AllowedValues     []string
	ConflictsWith     []string
	ImpliesPresenceOf []string
	NumericRange      *Range
	ArrayMin          *int
	ArrayMax          *int
}

// PositionalSpec describes one positional argument slot.
type PositionalSpec struct {
	Name              string
	Type              ValueType
	Required          bool
	AllowedValues     []string
	ConflictsWith     []string
	ImpliesPresenceOf []string
	NumericRange      *Range
	ArrayMin          *int
	ArrayMax          *int
}

// Range is an inclusive numeric bound.
type Range struct {
	Min *float64
	Max *float64
}

// ArgMapping pulls a value out of a prior chained step's structured
// data and binds it to a named argument of the current step.
type ArgMapping struct {
	FromPriorStepIndex int
	JSONPath           string
	ToArg              string
}

// ChainedStep is one handler invocation within a chained command.
type ChainedStep struct {
	HandlerRef string
	Silent     bool
	ArgMapping []ArgMapping
	// Condition is an optional small boolean expression evaluated
	// against the accumulated prior-step data (§3 supplement: a step
	// whose condition is false is skipped and contributes empty data,
	// as if it had succeeded silently).
	Condition string
}

// ProfileRequirement declares which profile types a command needs.
type ProfileRequirement struct {
	Required []string
	Optional []string
}

// Deprecation annotates a node as scheduled for removal (§3 supplement).
type Deprecation struct {
	Message         string
	RemoveInVersion string
}

// Node is a vertex in the command-definition tree: either a group with
// children, or a leaf command with a handler (single or chained).
type Node struct {
	Name            string
	Kind            Kind
	Description     string
	Aliases         map[string]struct{}
	Options         []OptionSpec
	Positionals     []PositionalSpec
	HandlerRef      string
	ChainedHandlers []ChainedStep
	Profile         *ProfileRequirement
	Children        []*Node
	Deprecated      *Deprecation

	// ReadStdin, when true, tells the processor's prepare stage (not
	// the tree-level Prepare function) to drain stdin into
	// Arguments under the conventional key StdinArgKey (§4.G step 4).
	ReadStdin bool

	parent   *Node
	prepared bool
}

// StdinArgKey is the conventional Arguments key under which drained
// stdin content is bound during Prepare.
const StdinArgKey = "_stdin"

// Validate checks the structural invariants from §3: a command node has
// either a handler or a non-empty chain, never both; group nodes have
// at least one child and no handler; sibling names (after alias
// expansion) are unique.
func (n *Node) Validate() error {
	return validateNode(n)
}
