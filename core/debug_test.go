package core

import "testing"

func captureDebug(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	t.Cleanup(func() {
		SetDebugWriter(func(string) {})
		SetDebugEnabled(false)
		SetEventsEnabled(true)
	})
	return &lines
}

func TestDebugPrintlnGated(t *testing.T) {
	lines := captureDebug(t)

	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")

	if len(*lines) != 1 || (*lines)[0] != "shown" {
		t.Errorf("Expected only 'shown', got %v", *lines)
	}
}

func TestEventRingWraps(t *testing.T) {
	ClearEventRing()
	for i := uint32(0); i < EventRingSize+5; i++ {
		RecordEvent(EvtAlarmFire, 1, i, 0)
	}

	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("Expected %d events, got %d", EventRingSize, len(events))
	}
	if events[0].Clock != 5 || events[EventRingSize-1].Clock != EventRingSize+4 {
		t.Errorf("Ring not ordered oldest to newest: first %d last %d", events[0].Clock, events[EventRingSize-1].Clock)
	}
	if !interruptsEnabled() {
		t.Error("Critical section not restored")
	}
}

func TestEventRingDisabled(t *testing.T) {
	captureDebug(t)
	ClearEventRing()
	SetEventsEnabled(false)

	RecordEvent(EvtOverflow, 0, 0, 1)
	if len(Events()) != 0 {
		t.Error("Event recorded while disabled")
	}
}

func TestUtoa(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{4294967295, "4294967295"},
		{18446744073709551615, "18446744073709551615"},
	}
	for _, tc := range tests {
		if got := utoa64(tc.in); got != tc.want {
			t.Errorf("utoa64(%d) = %s, want %s", tc.in, got, tc.want)
		}
		if tc.in <= 0xFFFFFFFF {
			if got := utoa(uint32(tc.in)); got != tc.want {
				t.Errorf("utoa(%d) = %s, want %s", tc.in, got, tc.want)
			}
		}
	}
}
