/*
Package resilience provides a circuit breaker for outbound calls.

# Overview

The breaker guards the direct-execution path to LinkedIn: a burst of
failures there usually means the cached session expired or the remote side
started blocking, and hammering on is the fastest way to get an account
flagged. Tripping open turns that burst into fast local failures until a
probe in half-open state succeeds.

# States

  - Closed: requests pass through; failures are counted
  - Open: requests fail immediately with ErrCircuitOpen
  - HalfOpen: a bounded number of probe requests decide recovery

# Usage

	breaker := resilience.New("voyager-direct", resilience.Settings{})
	err := breaker.Do(func() error {
		return callRemote()
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// degrade or surface
	}
*/
package resilience
