package sim

// IRQ is a simulated interrupt controller line
type IRQ struct {
	enabled bool
	pending bool
	handler func()
	count   int
}

// SetHandler installs the interrupt service routine
func (q *IRQ) SetHandler(h func()) {
	q.handler = h
}

// ClearPending drops a pending request
func (q *IRQ) ClearPending() {
	q.pending = false
}

// Enable unmasks the line and services a pending request
func (q *IRQ) Enable() {
	q.enabled = true
	if q.pending {
		q.raise()
	}
}

// Disable masks the line
func (q *IRQ) Disable() {
	q.enabled = false
}

// Enabled reports whether the line is unmasked
func (q *IRQ) Enabled() bool {
	return q.enabled
}

// Count returns how many times the handler has run
func (q *IRQ) Count() int {
	return q.count
}

func (q *IRQ) raise() {
	if !q.enabled || q.handler == nil {
		q.pending = true
		return
	}
	q.pending = false
	q.count++
	q.handler()
}
