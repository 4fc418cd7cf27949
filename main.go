// Command myhdl-cosim-bridge is the host-loadable cosimulation plug-in: a
// cgo c-shared library exporting the three entry points a VHDL simulator
// calls (startup/update/next_delay), wired over session.Session.
//
// Build with:
//
//	go build -buildmode=c-shared -o cosim_bridge.so .
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"unsafe"

	"github.com/dargor0/myhdl-cosim-bridge/config"
	"github.com/dargor0/myhdl-cosim-bridge/logic"
	"github.com/dargor0/myhdl-cosim-bridge/recorder"
	"github.com/dargor0/myhdl-cosim-bridge/session"
	"github.com/dargor0/myhdl-cosim-bridge/telemetry"
	"github.com/dargor0/myhdl-cosim-bridge/transport"
)

// bridge holds every piece of process-wide mutable state the plug-in owns.
// The host is the sole caller and calls strictly serially, so none of
// this needs locking.
type bridge struct {
	sess *session.Session
	rec  *recorder.Recorder
	mqtt *telemetry.MQTTPublisher
	ws   *telemetry.WebSocketHub
	log  *log.Logger
}

var b *bridge

const defaultConfigPath = "cosim-bridge.yaml"

// startup runs the FROM/TO/START handshake. from_signals and to_signals
// are the two signal-list strings; resolution is the host's chosen
// peer-time resolution. Returns 0 on success, -1 on failure.
//
//export startup
func startup(simTime, resolution C.longlong, fromSignals, toSignals *C.char) C.int {
	logger := log.New(os.Stderr, "cosim-bridge: ", log.LstdFlags|log.Lmicroseconds)

	cfgPath := os.Getenv("COSIM_CONFIG")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Printf("config load: %v", err)
		return -1
	}
	if cfg.LogLevel == "debug" {
		logger.Printf("config: %+v", cfg)
	}

	tr, err := transport.FromEnvironment()
	if err != nil {
		logger.Printf("transport: %v", err)
		return -1
	}

	sess := session.New(tr, int64(resolution))
	sess.SetLogger(logger)
	sess.SetMaxMessageBytes(cfg.MaxMessageBytes)
	if cfg.Trace {
		sess.SetTrace(os.Stderr)
	}

	nb := &bridge{sess: sess, log: logger}
	wireOptionalSinks(nb, cfg, logger)

	if err := sess.Startup(int64(simTime), C.GoString(fromSignals), C.GoString(toSignals)); err != nil {
		logger.Printf("startup: %v", err)
		return -1
	}

	b = nb
	return 0
}

// wireOptionalSinks attaches the recorder and telemetry publishers the
// config asks for; any of them being absent is a no-op, not an error.
func wireOptionalSinks(nb *bridge, cfg config.Config, logger *log.Logger) {
	if cfg.RecorderPath != "" {
		rec, err := recorder.NewRecorder(cfg.RecorderPath, cfg.RecorderLimit)
		if err != nil {
			logger.Printf("recorder: %v (continuing without it)", err)
		} else {
			nb.rec = rec
		}
	}
	if cfg.TelemetryMQTTBroker != "" {
		pub, err := telemetry.NewMQTTPublisher(cfg.TelemetryMQTTBroker, "myhdl-cosim-bridge", "cosim/rounds")
		if err != nil {
			logger.Printf("telemetry mqtt: %v (continuing without it)", err)
		} else {
			nb.mqtt = pub
		}
	}
	if cfg.TelemetryWebSocketAddr != "" {
		hub := telemetry.NewWebSocketHub()
		mux := http.NewServeMux()
		mux.Handle("/telemetry", hub)
		go func() {
			if err := http.ListenAndServe(cfg.TelemetryWebSocketAddr, mux); err != nil {
				logger.Printf("telemetry websocket server: %v", err)
			}
		}()
		nb.ws = hub
	}
}

// update runs one update round. datain is the TO-vector
// (observed in the simulator), dataout is the FROM-vector (written from
// the peer's response); both are flat one-byte-per-bit logic.Value arrays
// of the given length, wrapped without copying. direction is 0 for the
// ascending VHDL "to" bound, nonzero for the descending "downto" bound.
//
//export update
func update(
	datain *C.uchar, datainLen C.int, datainDirection C.int,
	dataout *C.uchar, dataoutLen C.int, dataoutDirection C.int,
	simTime C.longlong,
) C.int {
	if b == nil {
		return -1
	}

	toVec := wrapVector(datain, datainLen, datainDirection)
	fromVec := wrapVector(dataout, dataoutLen, dataoutDirection)

	result, toChanges, fromChanges := b.sess.Update(toVec, fromVec, int64(simTime))
	reportRound(result, int64(simTime), toChanges, fromChanges)
	return resultToReturnCode(result)
}

// next_delay reports the simulator-time delay until the next forced
// wake-up, consulted by the host whenever update returns TIME.
//
//export next_delay
func next_delay(simTime C.longlong) C.longlong {
	if b == nil {
		return C.longlong(1)
	}
	return C.longlong(b.sess.NextDelay(int64(simTime)))
}

// wrapVector reinterprets a C buffer as a logic.LogicVector without
// copying: logic.Value is a single byte per the host's own storage
// convention, the same layout the C side already uses.
func wrapVector(ptr *C.uchar, length, direction C.int) *logic.LogicVector {
	n := int(length)
	data := unsafe.Slice((*logic.Value)(unsafe.Pointer(ptr)), n)
	dir := logic.ToLeft
	if direction != 0 {
		dir = logic.ToRight
	}
	return &logic.LogicVector{Left: 0, Right: n - 1, Direction: dir, Data: data}
}

func resultToReturnCode(r session.Result) C.int {
	if r == session.ResultError {
		return -1
	}
	return C.int(r)
}

// reportRound forwards this round's timing, outcome and changed
// descriptors to whichever optional sinks are wired up.
func reportRound(result session.Result, simTime int64, toChanges, fromChanges []session.ValueChange) {
	if b == nil {
		return
	}
	sessionID := b.sess.ID.String()
	peerTime := b.sess.PeerTime()

	if b.rec != nil {
		b.rec.Record(recorder.Round{
			SessionID:  sessionID,
			SimTime:    simTime,
			PeerTime:   peerTime,
			Result:     result.String(),
			ToValues:   toFieldChanges(toChanges),
			FromValues: toFieldChanges(fromChanges),
		})
	}
	event := telemetry.Event{
		SessionID:  sessionID,
		SimTime:    simTime,
		PeerTime:   peerTime,
		Result:     result.String(),
		ToValues:   toNameValues(toChanges),
		FromValues: toNameValues(fromChanges),
	}
	if b.mqtt != nil {
		b.mqtt.Publish(event)
	}
	if b.ws != nil {
		b.ws.Broadcast(event)
	}
}

func toFieldChanges(changes []session.ValueChange) []recorder.FieldChange {
	if len(changes) == 0 {
		return nil
	}
	out := make([]recorder.FieldChange, len(changes))
	for i, c := range changes {
		out[i] = recorder.FieldChange{Name: c.Name, Value: c.Value}
	}
	return out
}

func toNameValues(changes []session.ValueChange) []telemetry.NameValue {
	if len(changes) == 0 {
		return nil
	}
	out := make([]telemetry.NameValue, len(changes))
	for i, c := range changes {
		out[i] = telemetry.NameValue{Name: c.Name, Value: c.Value}
	}
	return out
}

func main() {
	// Required by -buildmode=c-shared; the host never calls this, it loads
	// the library and calls the exported entry points directly.
	fmt.Fprintln(os.Stderr, "myhdl-cosim-bridge: build as a c-shared library, do not run directly")
}
