// Package timemodel converts between simulator time and peer time using a
// fixed resolution, and decides how long the host should wait before the
// next forced re-entry.
package timemodel

// TimeState tracks the fixed resolution between simulator ticks and peer
// time units, the most recently observed times, and the peer's requested
// next wake-up.
type TimeState struct {
	Resolution  int64
	SimTime     int64
	PeerTime    int64
	NextTrigger int64
}

// New creates a TimeState with the given resolution (simulator ticks per one
// peer time unit). resolution must be positive; New does not check it.
func New(resolution int64) *TimeState {
	return &TimeState{Resolution: resolution}
}

// PeerOf converts a simulator time to peer time by integer division.
func (ts *TimeState) PeerOf(simTime int64) int64 {
	return simTime / ts.Resolution
}

// NextDelay returns the amount of simulator time to wait before the next
// scheduled re-entry. It is always strictly positive.
func (ts *TimeState) NextDelay(simNow int64) int64 {
	peerNow := ts.PeerOf(simNow)
	if ts.NextTrigger > peerNow {
		return (ts.NextTrigger - peerNow) * ts.Resolution
	}
	return ts.Resolution
}
