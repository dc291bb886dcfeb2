package sim

// LFClock is a simulated low-frequency clock source. After Start it reports
// started once Started has been polled StartupPolls times.
type LFClock struct {
	StartupPolls int

	running    bool
	started    bool
	polls      int
	startCalls int
}

// NewRunningLFClock returns a clock that is already running
func NewRunningLFClock() *LFClock {
	return &LFClock{running: true, started: true}
}

func (c *LFClock) Running() bool {
	return c.running
}

func (c *LFClock) Start() {
	c.startCalls++
	c.started = false
	c.polls = 0
}

func (c *LFClock) Started() bool {
	if c.started {
		return true
	}
	c.polls++
	if c.polls > c.StartupPolls {
		c.started = true
		c.running = true
	}
	return c.started
}

// StartCalls returns how many times the start task was triggered
func (c *LFClock) StartCalls() int {
	return c.startCalls
}

// Polls returns how many times Started was polled since the last Start
func (c *LFClock) Polls() int {
	return c.polls
}
