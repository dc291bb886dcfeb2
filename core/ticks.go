package core

// LFClockFreq is the low-frequency clock feeding the counter
const LFClockFreq = 32768

// TicksFromMS converts milliseconds to counter ticks at rate Hz, rounding down
func TicksFromMS(ms uint32, rate uint32) uint32 {
	return uint32(uint64(ms) * uint64(rate) / 1000)
}

// TicksFromUS converts microseconds to counter ticks at rate Hz, rounding down
func TicksFromUS(us uint32, rate uint32) uint32 {
	return uint32(uint64(us) * uint64(rate) / 1000000)
}

// TicksToUS converts counter ticks at rate Hz to microseconds
func TicksToUS(ticks uint64, rate uint32) uint64 {
	return ticks * 1000000 / uint64(rate)
}
