package transport

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dargor0/myhdl-cosim-bridge/cosimerr"
)

const (
	envSocket    = "PEER_SOCKET"
	envReadPipe  = "PEER_READ_PIPE"
	envWritePipe = "PEER_WRITE_PIPE"
)

// FromEnvironment resolves a Transport from the process environment:
// PEER_SOCKET takes precedence over the pipe pair; if neither is
// present, startup fails with cosimerr.ErrConfigMissing.
func FromEnvironment() (Transport, error) {
	if sock, ok := os.LookupEnv(envSocket); ok && sock != "" {
		return DialSocket(sock)
	}

	readStr, readOK := os.LookupEnv(envReadPipe)
	writeStr, writeOK := os.LookupEnv(envWritePipe)
	if readOK && writeOK {
		readFD, err := strconv.ParseUint(readStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a file descriptor", cosimerr.ErrConfigMissing, envReadPipe, readStr)
		}
		writeFD, err := strconv.ParseUint(writeStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a file descriptor", cosimerr.ErrConfigMissing, envWritePipe, writeStr)
		}
		return NewPipeTransport(uintptr(readFD), uintptr(writeFD)), nil
	}

	return nil, fmt.Errorf("%w: set %s or both %s/%s", cosimerr.ErrConfigMissing, envSocket, envReadPipe, envWritePipe)
}
