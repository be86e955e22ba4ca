// Package logging provides a tiny abstraction over slog so the bus can depend
// on a minimal Logger interface while callers plug in any structured logger.
// It also offers a richer BusLogger with contextual helpers (component,
// correlation id) and domain specific helpers for dispatch and agent calls.
package logging
