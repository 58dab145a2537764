// Package proxy implements the correlation layer between API callers and
// connected browser extensions.
//
// Three pieces cooperate:
//   - Registry tracks which extension instances currently hold a live
//     transport connection.
//   - Table tracks in-flight correlated calls, each with a single-fire
//     completion signal and mutually exclusive result/error slots.
//   - Dispatcher turns the fire-and-forget message exchange into a
//     synchronous call: it sends an envelope to an instance, waits for the
//     correlated response with a deadline, and guarantees the pending entry
//     is removed on every exit path.
//
// Inbound responses from the extension socket are fed into
// Dispatcher.Resolve; late or duplicate resolutions are discarded.
package proxy
