//go:build !tinygo

package core

// State is the saved interrupt state on regular Go
type State uintptr

// irqDepth tracks critical section nesting so host tests can check that
// every exit path restores the saved state.
var irqDepth uintptr

// disableInterrupts enters a critical section and returns the previous state
func disableInterrupts() State {
	prev := State(irqDepth)
	irqDepth++
	return prev
}

// restoreInterrupts leaves a critical section
func restoreInterrupts(state State) {
	irqDepth = uintptr(state)
}
