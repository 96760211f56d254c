// Package debug holds small invariant-checking helpers used throughout the
// core to fail loudly (rather than silently corrupt the manifest graph)
// when an internal assumption is violated.
package debug

import "fmt"

// Assert panics with msg if cond is false. Reserved for invariants that
// indicate a bug in this module, never for user-triggerable error
// conditions (those are returned as errors instead).
func Assert(cond bool, msg string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(msg, args...))
	}
}
