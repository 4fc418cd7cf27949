// Package cosimerr centralizes the protocol's error kinds so that
// transport, signalset, codec and session can each produce them and
// callers can tell them apart with errors.Is.
package cosimerr

import "errors"

var (
	// ErrConfigMissing: no PEER_SOCKET or pipe pair configured.
	ErrConfigMissing = errors.New("cosim: no PEER_SOCKET or PEER_READ_PIPE/PEER_WRITE_PIPE configured")
	// ErrParseError: a malformed signal list or protocol response.
	ErrParseError = errors.New("cosim: parse error")
	// ErrInconsistentVector: the host vector's direction or length
	// changed after the set was configured.
	ErrInconsistentVector = errors.New("cosim: inconsistent vector")
	// ErrNegativeAck: a handshake reply lacked the affirmative prefix.
	ErrNegativeAck = errors.New("cosim: handshake not acknowledged")
	// ErrIOError: a non-recoverable transport read/write error.
	ErrIOError = errors.New("cosim: I/O error")
	// ErrPeerClosed: the peer closed the channel (zero-byte read, or a
	// broken-pipe write).
	ErrPeerClosed = errors.New("cosim: peer closed")
	// ErrRenderAmbiguous: a non-binary bit was about to be rendered as
	// hex; surface this rather than guessing.
	ErrRenderAmbiguous = errors.New("cosim: non-binary value cannot be rendered unambiguously as hex")
)
