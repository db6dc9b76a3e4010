// Package throttle provides per-source admission counters.
//
// Two shapes are offered: fixed windows keyed by floor(now/window), and
// calendar-day counters evaluated in one configured time zone. Both
// increment-or-reject atomically. Memory stores are process local and need
// Run to sweep stale keys; the Redis store relies on key expiry.
package throttle
