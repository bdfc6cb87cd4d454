//go:build simdebug

package economy

import "fmt"

// assert panics on invariant violations in builds tagged simdebug.
func assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
