package domain

import "time"

// Slot is a candidate bookable interval of exactly one appointment duration
type Slot struct {
	Start     time.Time
	End       time.Time
	Available bool
}

// Interval returns the slot time span
func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// Duration returns the slot length
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}
