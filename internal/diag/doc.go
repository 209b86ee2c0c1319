// Package diag defines the diagnostic model shared by the workspace loader,
// the trait resolver and the driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error).
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form such as SEM3102.
//   - Message – short, actionable text.
//   - Primary – the source.Span the finding points at.
//   - Notes – optional secondary spans for context ("declared here").
//
// # Emitting
//
// Producers depend on Reporter only. ReportBuilder (ReportError,
// ReportWarning) chains notes before Emit. BagReporter stores into a Bag,
// which supports limits, sorting and deduplication. The sema package
// provides its own sealed Reporter for per-trait diagnostics.
//
// Package diag does no formatting beyond the golden/short text form; rich
// rendering lives in internal/diagfmt.
package diag
