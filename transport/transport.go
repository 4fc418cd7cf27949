// Package transport implements the blocking request/response byte channel
// between the cosimulation bridge and its external peer. A Transport is
// either a stream socket (TCP or UNIX-domain) or a pair of inherited pipe
// descriptors; which one is selected is decided once, at first use, from
// the process environment (see env.go).
package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
)

// Transport is a single synchronous request/response byte channel. Exchange
// sends request, then blocks for the peer's reply, writing it into buf (which
// the caller must size to the largest acceptable message).
//
// It returns the number of response bytes written into buf (0 on orderly
// peer closure, including a broken-pipe write failure, which is treated
// as "0 bytes" rather than an error), or a non-nil error on any other I/O
// failure.
type Transport interface {
	Exchange(request []byte, buf []byte) (n int, err error)
	Close() error
}

// streamTransport adapts a net.Conn (TCP or UNIX-domain socket) to the
// Transport contract; pipe pairs use pipeTransport instead.
type streamTransport struct {
	conn net.Conn
}

func (t *streamTransport) Exchange(request []byte, buf []byte) (int, error) {
	if _, err := t.conn.Write(request); err != nil {
		if isBrokenPeer(err) {
			return 0, nil
		}
		return 0, wrapIOErr(err)
	}

	n, err := t.conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, wrapIOErr(err)
	}
	if n == 0 {
		return 0, nil
	}
	return n, nil
}

func (t *streamTransport) Close() error {
	return t.conn.Close()
}

func isBrokenPeer(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe)
}

// wrapIOErr joins the underlying cause with cosimerr.ErrIOError so callers
// can both errors.Is against the sentinel and print the original detail.
func wrapIOErr(err error) error {
	return fmt.Errorf("%w: %w", cosimerr.ErrIOError, err)
}
