// Package pagination assembles multi-page result sets from repeated
// single-page fetches.
//
// The orchestrator is deliberately dumb about transport: callers hand it a
// PageFunc backed by either a direct HTTP call or a proxied one. It owns the
// loop mechanics only: bounded/unbounded targets, per-round batch sizing,
// exact-count truncation, randomized pacing between pages, and the
// partial-failure policy (a failed page mid-run degrades to the results
// accumulated so far; a failed first page propagates). It never retries.
package pagination
