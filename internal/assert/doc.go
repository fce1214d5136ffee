// Package assert provides the assertion primitives used inside test procedures.
//
// Every helper either returns normally, when the checked condition holds, or
// panics with a *Failure carrying a human-readable message. The runner recovers
// the panic and records the test as failed, so a failing assertion stops the
// rest of the test body the same way a thrown error would.
//
// Two equality strengths are exposed on purpose:
//
//   - StrictEquals (and its short alias Eq) requires the same dynamic type and value.
//   - Equals coerces between numbers, numeric strings and booleans before comparing.
//
// # Usage
//
//	suite.Test("adds numbers", func() {
//	    assert.Eq(6.0, add(2, 4))
//	    assert.Equals("6", add(2, 4))
//	    assert.Assert(add(1, 1) > 0, "sum is positive")
//	})
package assert
