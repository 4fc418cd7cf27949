package transport

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
)

// DialSocket connects to addr: a value containing a colon is treated as
// "host:port" and dialed over TCP (first resolved address wins, via
// net.Dial's own resolution); a value without a colon is a local-domain
// stream socket path, unlinked first to clear any stale binding left by a
// crashed prior session.
func DialSocket(addr string) (Transport, error) {
	if strings.Contains(addr, ":") {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %v", cosimerr.ErrIOError, addr, err)
		}
		return &streamTransport{conn: conn}, nil
	}

	os.Remove(addr)
	conn, err := net.Dial("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", cosimerr.ErrIOError, addr, err)
	}
	return &streamTransport{conn: conn}, nil
}
