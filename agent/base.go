package agent

import (
	"context"

	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
)

// Base bundles the descriptor accessors and a default HandleError shared by
// all concrete agents. Embed it and supply a Process method to satisfy the
// core.Agent interface.
type Base struct {
	descriptor core.Descriptor
	logger     logging.Logger
}

// NewBase constructs a Base from a descriptor. A nil logger is replaced by
// the no-op logger so embedding agents never need nil checks.
func NewBase(descriptor core.Descriptor, logger logging.Logger) Base {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return Base{descriptor: descriptor, logger: logger}
}

// Name returns the registry key used for routing.
func (b *Base) Name() string { return b.descriptor.Name }

// Descriptor returns the agent's immutable identity.
func (b *Base) Descriptor() core.Descriptor { return b.descriptor }

// Capabilities returns the stable capability tag set.
func (b *Base) Capabilities() []string { return b.descriptor.Capabilities }

// Logger returns the agent's logger.
func (b *Base) Logger() logging.Logger { return b.logger }

// HandleError logs the failure. It never panics and its effect is purely
// observational; the dispatch loop does not retry.
func (b *Base) HandleError(_ context.Context, err error) {
	b.logger.Error("agent %s error: %v", b.descriptor.Name, err)
}
