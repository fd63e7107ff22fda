// Package domain contains core concepts of the chat system.
// This file defines Participant entities and related invariants.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

// Participant is a registered chat identity with a liveness timestamp.
// Name is unique across active participants (case-sensitive).
type Participant struct {
	Name     string
	LastSeen time.Time
}

// IsStale reports whether the participant has been inactive for strictly
// longer than timeout at instant now.
func (p Participant) IsStale(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastSeen) > timeout
}

// SweepReport summarizes one eviction pass.
type SweepReport struct {
	Scanned int
	Evicted []string
	Failed  int
}
