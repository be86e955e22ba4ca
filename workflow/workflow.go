package workflow

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentbus/bus"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/internal/util"
)

// Workflow is an ordered sequence of message templates submitted to one
// coordinator, plus the collected results of their execution. A Workflow is
// created per execution request and discarded after use; it is not safe for
// concurrent mutation.
type Workflow struct {
	coordinator *bus.Coordinator
	steps       []core.Message
	results     []any
}

// New constructs an empty workflow bound to the given coordinator.
func New(coordinator *bus.Coordinator) *Workflow {
	return &Workflow{coordinator: coordinator}
}

// AddStep appends a message template to the ordered step list. Templates
// missing a receiver or a message type are rejected with a core.ConfigError
// before the dispatch loop ever sees them.
func (w *Workflow) AddStep(msg core.Message) error {
	if msg.Receiver == "" {
		return &core.ConfigError{Field: "receiver", Message: "must name a target agent"}
	}
	if msg.Type == "" {
		return &core.ConfigError{Field: "type", Message: "must tag the operation"}
	}
	w.steps = append(w.steps, msg)
	return nil
}

// Steps returns the step templates in submission order.
func (w *Workflow) Steps() []core.Message {
	return w.steps
}

// Results returns whatever results were collected by a prior Collect call.
// After Execute it is empty: nothing links an in-flight response back into
// this structure on the fire-and-forget path.
func (w *Workflow) Results() []any {
	return w.results
}

// Execute submits every step, in list order, to the coordinator and returns
// once all are enqueued. It is fire-and-forget per step: it awaits neither
// the processing of a step nor its correlated response envelope. Callers
// that need results should use Collect or register themselves as a
// receiving agent.
func (w *Workflow) Execute(ctx context.Context) ([]any, error) {
	for i, step := range w.steps {
		select {
		case <-ctx.Done():
			return w.results, ctx.Err()
		default:
		}
		if err := w.coordinator.Send(step); err != nil {
			return w.results, fmt.Errorf("failed to submit step %d: %w", i, err)
		}
	}
	return w.results, nil
}

// Collect executes the workflow and waits for the correlated response of
// every step, returning the results in step order.
//
// Each step is stamped with a fresh correlation id and a requires-response
// flag before submission; the coordinator settles the matching waiter when
// it routes the reply envelope, so the submitting caller does not need to be
// a registered agent. Collect honors ctx for cancellation and timeouts; on
// cancellation the results gathered so far are returned alongside the error.
func (w *Workflow) Collect(ctx context.Context) ([]any, error) {
	type waiter struct {
		id string
		ch <-chan any
	}

	waiters := make([]waiter, 0, len(w.steps))
	for i := range w.steps {
		step := &w.steps[i]
		if step.Context == nil {
			step.Context = map[string]any{}
		}
		step.Context[core.ContextRequiresResponse] = true
		cid, _ := step.Context[core.ContextCorrelationID].(string)
		if cid == "" {
			cid = util.NewID()
			step.Context[core.ContextCorrelationID] = cid
		}
		waiters = append(waiters, waiter{id: cid, ch: w.coordinator.AwaitResponse(cid)})
	}

	w.results = w.results[:0]

	for i, step := range w.steps {
		if err := w.coordinator.Send(step); err != nil {
			for _, wt := range waiters[i:] {
				w.coordinator.CancelWait(wt.id)
			}
			return w.results, fmt.Errorf("failed to submit step %d: %w", i, err)
		}
	}

	for i, wt := range waiters {
		select {
		case <-ctx.Done():
			for _, rest := range waiters[i:] {
				w.coordinator.CancelWait(rest.id)
			}
			return w.results, ctx.Err()
		case content := <-wt.ch:
			w.results = append(w.results, content)
		}
	}

	return w.results, nil
}
