// Package assert provides invariant checks that can be switched off by configuration.
//
// Checks are enabled by default. A violated invariant panics with a *Violation so the
// caller fails loudly instead of continuing with corrupt data.
package assert

import (
	"fmt"
	"sync/atomic"
)

var enabled atomic.Bool

func init() {
	enabled.Store(true)
}

// Violation describes a failed invariant.
type Violation struct {
	Message string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return "assertion failed: " + v.Message
}

// SetEnabled toggles assertion checks process-wide and returns the previous setting.
func SetEnabled(on bool) bool {
	return enabled.Swap(on)
}

// Enabled reports whether assertion checks are active.
func Enabled() bool {
	return enabled.Load()
}

// That panics with a *Violation when cond is false and checks are enabled.
func That(cond bool, format string, args ...any) {
	if cond || !enabled.Load() {
		return
	}
	panic(&Violation{Message: fmt.Sprintf(format, args...)})
}
