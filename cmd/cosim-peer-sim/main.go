// Command cosim-peer-sim is a standalone reference implementation of the
// peer side of the cosimulation wire protocol. It listens for exactly the
// connection session.Session.Startup/Update would make over
// transport.FromEnvironment, and answers the handshake and update rounds
// with the minimal compliant replies — useful for exercising a host's
// session machinery without a real VHDL simulator attached.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/dargor0/myhdl-cosim-bridge/internal/term"
)

func main() {
	listenAddr := flag.String("listen", "/tmp/cosim-peer-sim.sock", "address to listen on: host:port for TCP, any other value for a unix-domain socket path")
	advance := flag.Int64("advance", 0, "peer_time units to add to each round's reply (0 means the peer never drives time forward)")
	verbose := flag.Bool("v", false, "print every exchanged message")
	flag.Parse()

	ln, err := listen(*listenAddr)
	if err != nil {
		log.Fatalf("cosim-peer-sim: listen: %v", err)
	}
	defer ln.Close()

	colored := term.IsTerminal(os.Stdout)
	fmt.Printf("cosim-peer-sim: listening on %s\n", *listenAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("cosim-peer-sim: accept: %v", err)
			continue
		}
		go serve(conn, *advance, *verbose, colored)
	}
}

func listen(addr string) (net.Listener, error) {
	if strings.Contains(addr, ":") {
		return net.Listen("tcp", addr)
	}
	_ = os.Remove(addr)
	return net.Listen("unix", addr)
}

func serve(conn net.Conn, advance int64, verbose, colored bool) {
	defer conn.Close()
	peerTime := int64(0)
	r := bufio.NewReader(conn)

	for {
		line, err := readMessage(r)
		if err != nil {
			return
		}
		if verbose {
			printTrace("recv", line, colored)
		}

		reply, isUpdate := respond(line, &peerTime, advance)
		if verbose {
			printTrace("send", reply, colored)
		}
		if _, err := conn.Write([]byte(reply)); err != nil {
			return
		}
		_ = isUpdate
	}
}

// readMessage reads one request. The protocol has no length prefix or
// delimiter, so this mirrors the bridge's own assumption that one Write on
// the other end arrives as one Read here — true for the loopback
// unix/TCP sockets this tool is meant to be pointed at.
func readMessage(r *bufio.Reader) (string, error) {
	buf := make([]byte, 4096)
	n, err := r.Read(buf)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf[:n]), "\x00"), nil
}

func respond(request string, peerTime *int64, advance int64) (reply string, isUpdate bool) {
	switch {
	case strings.HasPrefix(request, "FROM "), strings.HasPrefix(request, "TO "), strings.HasPrefix(request, "START"):
		return "OK ", false
	default:
		*peerTime += advance
		fields := strings.Fields(request)
		if len(fields) > 0 {
			if t, err := strconv.ParseInt(fields[0], 10, 64); err == nil && t > *peerTime {
				*peerTime = t
			}
		}
		return fmt.Sprintf("%d ", *peerTime), true
	}
}

func printTrace(label, text string, colored bool) {
	if colored {
		fmt.Printf("\x1b[36m%s\x1b[0m >>>%s<<<\n", label, text)
		return
	}
	fmt.Printf("%s >>>%s<<<\n", label, text)
}
