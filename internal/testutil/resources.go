package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks verifies that no goroutines are leaked during test execution.
// Call it deferred at the start of tests that open HTTP connections or
// spawn processes.
//
//	func TestFetch(t *testing.T) {
//	    defer testutil.VerifyNoLeaks(t)
//	    // ...
//	}
func VerifyNoLeaks(t *testing.T, options ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, append(defaultOptions(), options...)...)
}

// defaultOptions returns common ignore patterns for testing framework goroutines
func defaultOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("testing.tRunner.func1"),
		goleak.IgnoreTopFunction("testing.runTests"),
		goleak.IgnoreTopFunction("testing.(*M).Run"),
		goleak.IgnoreTopFunction("go.uber.org/goleak.(*opts).retry"),
		goleak.IgnoreTopFunction("time.Sleep"),
		goleak.IgnoreCurrent(),
	}
}
