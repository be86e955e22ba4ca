// Package core defines the shared contracts of the AgentBus framework: the
// Message envelope exchanged on the bus, the Agent interface every processing
// unit implements, the unbounded FIFO Queue drained by the coordinator's
// dispatch loop, and the error values crossing package boundaries.
//
// The package deliberately contains no orchestration logic; it exists so the
// bus, workflow and agent packages can depend on a small, stable surface
// without importing each other.
package core
