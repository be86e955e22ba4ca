// Package agentbus provides a high-level façade over the bus coordinator and
// workflow sequencing, enabling rapid construction of single-process agent
// pipelines. Most applications interact with this package by:
//  1. Creating an AgentBus via New() (optionally overriding the logger)
//  2. Registering one or more agents (text, data, api, analysis, custom)
//  3. Starting the dispatch loop, submitting messages or workflows, and
//     stopping the loop when done
//
// The façade delegates routing to bus.Coordinator while keeping setup and
// usage ergonomics concise. Defaults are safe for local development and
// testing; production deployments typically supply a structured logger.
package agentbus

import (
	"context"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
	"github.com/hupe1980/agentbus/workflow"
)

// Options configures the AgentBus instance.
type Options struct {
	// Logger receives bus observations (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// AgentBus is the high-level façade aggregating the coordinator.
type AgentBus struct {
	coordinator *bus.Coordinator
}

// New creates a new AgentBus instance with optional overrides.
func New(optFns ...func(o *Options)) *AgentBus {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &AgentBus{
		coordinator: bus.New(bus.WithLogger(opts.Logger)),
	}
}

// Coordinator exposes the underlying bus for advanced use.
func (a *AgentBus) Coordinator() *bus.Coordinator { return a.coordinator }

// Register adds an agent to the registry. Last write wins on name collision.
func (a *AgentBus) Register(agents ...core.Agent) {
	for _, ag := range agents {
		a.coordinator.Register(ag)
	}
}

// Send enqueues a message for dispatch.
func (a *AgentBus) Send(msg core.Message) error {
	return a.coordinator.Send(msg)
}

// Start launches the dispatch loop.
func (a *AgentBus) Start(ctx context.Context) error {
	return a.coordinator.Start(ctx)
}

// Stop terminates the dispatch loop after the in-flight message finishes.
func (a *AgentBus) Stop() {
	a.coordinator.Stop()
}

// NewWorkflow creates an empty workflow bound to this bus.
func (a *AgentBus) NewWorkflow() *workflow.Workflow {
	return workflow.New(a.coordinator)
}

// RunWorkflow builds a workflow from the given steps, executes it and waits
// for the correlated results in step order.
func (a *AgentBus) RunWorkflow(ctx context.Context, steps ...core.Message) ([]any, error) {
	w := workflow.New(a.coordinator)
	for _, step := range steps {
		if err := w.AddStep(step); err != nil {
			return nil, err
		}
	}
	return w.Collect(ctx)
}
