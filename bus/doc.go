// Package bus implements the coordinator at the center of AgentBus: a named
// agent registry, a single unbounded FIFO queue, and the sequential dispatch
// loop that routes each envelope to its receiver and emits correlated reply
// envelopes for requests that asked for one.
//
// Exactly one dispatch goroutine consumes the queue, giving a strict global
// delivery order: message N+1 is not dequeued until message N's routing,
// including the agent's processing, has returned. Throughput is therefore
// capped at one in-flight agent call; deployments needing parallel execution
// must run multiple coordinators with distinct receiver partitions.
package bus
