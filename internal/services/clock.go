package services

import "time"

// Clock owns every "how much time is left" computation. Sessions store a
// fixed deadline computed once at creation; all later reads derive remaining
// time from that deadline and a single now value, never from client-reported
// countdowns.
type Clock struct{}

func NewClock() Clock {
	return Clock{}
}

// Now returns the single wall-clock read an operation should use for all of
// its time fields, so two fields computed in one call cannot skew.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// ComputeDeadline converts an exam duration into the fixed wall-clock
// deadline for a session starting at now.
func (Clock) ComputeDeadline(now time.Time, durationMinutes int) time.Time {
	return now.Add(time.Duration(durationMinutes) * time.Minute)
}

// Remaining returns the time left until deadline, floored at zero.
func (Clock) Remaining(now, deadline time.Time) time.Duration {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Elapsed returns the time since start, floored at zero for clock skew.
func (Clock) Elapsed(now, start time.Time) time.Duration {
	elapsed := now.Sub(start)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
