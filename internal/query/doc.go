// Package query provides the memoization capability the semantic database is
// built on.
//
// A Runtime owns the current input Revision. Each Memo caches one derived
// query per key; a cached value is served only while its revision equals the
// runtime's. Callers that change inputs call Runtime.Bump, after which every
// memo recomputes lazily on the next request. Detecting *which* inputs
// changed is left to the caller.
//
// Concurrent requests for the same key in the same revision are coalesced with
// singleflight. A caller that arrives after a Bump never joins an evaluation
// started in an older revision; it computes its own value.
package query
