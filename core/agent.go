package core

import "context"

// Descriptor carries the identity and configuration of an agent. It is
// created once at agent construction and must not change afterwards; the
// coordinator routes by Name and discovers by Capabilities.
type Descriptor struct {
	// Name is the unique routing key across all registered agents.
	Name string `json:"name" yaml:"name"`

	// Description is human text with no semantic effect.
	Description string `json:"description" yaml:"description"`

	// Version is informational.
	Version string `json:"version" yaml:"version"`

	// Capabilities is the set of tags the agent advertises for
	// capability-based lookup. Treated as a set; duplicates are harmless.
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}

// Agent is the contract every processing unit on the bus implements.
//
// Construction doubles as initialization: constructors allocate whatever
// private state the agent needs (models, connections, history) and return an
// error if that fails, which is fatal for the agent. Agents live for the
// process lifetime.
//
// Process must not return an error for expected, recoverable conditions;
// those should be routed through HandleError and encoded in the returned
// output, because the dispatch loop never retries.
type Agent interface {
	// Name returns the registry key used for routing.
	Name() string

	// Descriptor returns the agent's immutable identity.
	Descriptor() Descriptor

	// Capabilities returns the stable capability tag set.
	Capabilities() []string

	// Process handles one delivered message payload. It may block on I/O and
	// must respect ctx cancellation.
	Process(ctx context.Context, input any) (any, error)

	// HandleError is a best-effort, side-effecting notification (typically
	// logging) invoked by the dispatch loop when Process fails. It must not
	// panic; any return value would be ignored.
	HandleError(ctx context.Context, err error)
}

// Cleaner is an optional hook for agents holding external resources. The bus
// never calls it; drivers invoke Cleanup at shutdown for the agents they own.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}
