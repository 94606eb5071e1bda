package lgi

import "fmt"

// ArgError reports a conversion argument whose value did not match the
// native type the callee requires.
type ArgError struct {
	Arg      int    // 1-based argument position
	Expected string // human-readable expected type
	Actual   string // human-readable actual type
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("bad argument #%d: %s expected, got %s", e.Arg, e.Expected, e.Actual)
}
