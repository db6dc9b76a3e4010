// Package clock provides a tiny time abstraction.
//
// Business code depends on the Clocker interface instead of calling time.Now
// directly, so counters, gates and expiry checks can be driven by Fake in
// tests.
package clock
