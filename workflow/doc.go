// Package workflow provides ordered multi-step submission on top of the bus.
//
// A Workflow is a list of message templates validated at build time. Two
// execution paths exist: Execute submits every step fire-and-forget and does
// not await replies, while Collect stamps each step with a correlation id,
// awaits the matching response envelopes and returns results in step order.
package workflow
