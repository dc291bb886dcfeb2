package sim

import "testing"

func TestRTCStoppedDoesNotCount(t *testing.T) {
	r := NewRTC(3, 24)
	r.Advance(10)
	if r.Counter() != 0 {
		t.Errorf("Stopped counter advanced to %d", r.Counter())
	}
}

func TestRTCWrapLatchesOverflow(t *testing.T) {
	r := NewRTC(3, 8)
	r.Start()
	r.Advance(255)
	if r.OverflowEvent() {
		t.Fatal("Overflow latched before wrap")
	}
	r.Advance(1)
	if r.Counter() != 0 || !r.OverflowEvent() {
		t.Errorf("Expected wrap to 0 with overflow, got counter=%d overflow=%v", r.Counter(), r.OverflowEvent())
	}
}

func TestRTCCompareLatchesWithoutInterrupt(t *testing.T) {
	r := NewRTC(3, 24)
	calls := 0
	r.IRQ().SetHandler(func() { calls++ })
	r.IRQ().Enable()
	r.Start()

	r.SetCompare(1, 5)
	r.Advance(5)
	if !r.CompareEvent(1) {
		t.Error("Compare event not latched")
	}
	if calls != 0 {
		t.Error("Handler ran with compare interrupt disabled")
	}

	r.EnableCompareInterrupt(1)
	r.Poll()
	if calls != 1 {
		t.Errorf("Expected 1 handler call after enabling, got %d", calls)
	}
}

func TestRTCSetCompareMasksWidth(t *testing.T) {
	r := NewRTC(2, 24)
	r.SetCompare(1, 0x1000005)
	if r.Compare(1) != 5 {
		t.Errorf("Expected compare 5, got 0x%X", r.Compare(1))
	}
}

func TestRTCAdvanceTo(t *testing.T) {
	r := NewRTC(2, 8)
	r.Start()
	r.SetCounter(250)
	r.AdvanceTo(3)
	if r.Counter() != 3 || !r.OverflowEvent() {
		t.Errorf("AdvanceTo across wrap: counter=%d overflow=%v", r.Counter(), r.OverflowEvent())
	}
}

func TestIRQPendingWhileMasked(t *testing.T) {
	r := NewRTC(2, 24)
	calls := 0
	r.IRQ().SetHandler(func() { calls++ })
	r.EnableOverflowInterrupt()
	r.Start()

	r.LatchOverflow()
	r.Poll()
	if calls != 0 {
		t.Fatal("Handler ran on a masked line")
	}

	r.IRQ().Enable()
	if calls != 1 || r.IRQ().Count() != 1 {
		t.Errorf("Expected pending request serviced on Enable, got %d calls", calls)
	}
}

func TestLFClockStartup(t *testing.T) {
	c := &LFClock{StartupPolls: 2}
	if c.Running() {
		t.Fatal("New clock reports running")
	}
	c.Start()
	polls := 1
	for !c.Started() {
		polls++
	}
	if polls != 3 || !c.Running() {
		t.Errorf("Expected start after 3 polls, got %d (running=%v)", polls, c.Running())
	}
	if c.StartCalls() != 1 {
		t.Errorf("Expected 1 start call, got %d", c.StartCalls())
	}
}
