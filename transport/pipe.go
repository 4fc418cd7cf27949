package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
)

// pipeTransport exchanges bytes over a pair of inherited pipe descriptors —
// one for writing requests to the peer, one for reading its responses. This
// mirrors the host simulator handing the plug-in MYHDL_TO_PIPE/MYHDL_FROM_PIPE
// style fds rather than a socket.
type pipeTransport struct {
	read  *os.File
	write *os.File
}

// NewPipeTransport wraps already-open read and write file descriptors.
func NewPipeTransport(readFD, writeFD uintptr) Transport {
	return &pipeTransport{
		read:  os.NewFile(readFD, "cosim-read-pipe"),
		write: os.NewFile(writeFD, "cosim-write-pipe"),
	}
}

func (t *pipeTransport) Exchange(request []byte, buf []byte) (int, error) {
	if _, err := t.write.Write(request); err != nil {
		if errors.Is(err, syscall.EPIPE) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", cosimerr.ErrIOError, err)
	}

	n, err := t.read.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", cosimerr.ErrIOError, err)
	}
	if n == 0 {
		return 0, nil
	}
	return n, nil
}

func (t *pipeTransport) Close() error {
	werr := t.write.Close()
	rerr := t.read.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
