// Package trace is the structured event log of strata.
//
// Drivers and the semantic database report spans and point events to a
// Tracer carried in context.Context. Tracing is off unless the CLI is asked
// for it, in which case events go to a stream (text or NDJSON), a ring buffer
// kept for crash dumps, or both.
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only crash dumps
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: module-level events
//   - LevelDebug: everything, including individual query hits and misses
//
// # Usage
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "check", 0)
//	defer span.End("")
package trace
