package main

/*
#include <stdint.h>
*/
import "C"

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	_ "modernc.org/sqlite"

	"github.com/dargor0/myhdl-cosim-bridge/logic"
	"github.com/dargor0/myhdl-cosim-bridge/recorder"
	"github.com/dargor0/myhdl-cosim-bridge/session"
	"github.com/dargor0/myhdl-cosim-bridge/telemetry"
)

func TestResultToReturnCode(t *testing.T) {
	cases := map[session.Result]C.int{
		session.ResultEnd:    0,
		session.ResultSignal: 1,
		session.ResultTime:   2,
		session.ResultDelta:  3,
		session.ResultError:  -1,
	}
	for result, want := range cases {
		if got := resultToReturnCode(result); got != want {
			t.Fatalf("resultToReturnCode(%v) = %d, want %d", result, got, want)
		}
	}
}

func TestWrapVectorIsZeroCopy(t *testing.T) {
	buf := []C.uchar{C.uchar(logic.Zero), C.uchar(logic.One), C.uchar(logic.U)}
	vec := wrapVector(&buf[0], C.int(len(buf)), 0)

	if vec.Length() != 3 {
		t.Fatalf("expected length 3, got %d", vec.Length())
	}
	if vec.Direction != logic.ToLeft {
		t.Fatalf("expected ToLeft for direction=0")
	}

	vec.Set(1, logic.Zero)
	if buf[1] != C.uchar(logic.Zero) {
		t.Fatalf("expected write through wrapVector to mutate the underlying C buffer")
	}
}

func TestWrapVectorHonorsDowntoDirection(t *testing.T) {
	buf := []C.uchar{C.uchar(logic.Zero), C.uchar(logic.One)}
	vec := wrapVector(&buf[0], C.int(len(buf)), 1)
	if vec.Direction != logic.ToRight {
		t.Fatalf("expected ToRight for nonzero direction")
	}
}

// noopTransport never exchanges anything; reportRound only needs a
// *session.Session to exist, not to have run a live handshake.
type noopTransport struct{}

func (noopTransport) Exchange(request, buf []byte) (int, error) { return 0, nil }
func (noopTransport) Close() error                              { return nil }

func TestReportRoundPopulatesChangedDescriptors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rounds.sqlite")
	rec, err := recorder.NewRecorder(dbPath, 10)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	defer rec.Close()

	hub := telemetry.NewWebSocketHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial telemetry ws: %v", err)
	}
	defer conn.Close()
	time.Sleep(20 * time.Millisecond) // let the server register the client

	b = &bridge{sess: session.New(noopTransport{}, 1000), rec: rec, ws: hub}
	defer func() { b = nil }()

	toChanges := []session.ValueChange{{Name: "clk", Value: "1"}}
	fromChanges := []session.ValueChange{{Name: "q", Value: "0"}}
	reportRound(session.ResultSignal, 42, toChanges, fromChanges)

	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read telemetry message: %v", err)
	}
	var e telemetry.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if len(e.ToValues) != 1 || e.ToValues[0].Name != "clk" || e.ToValues[0].Value != "1" {
		t.Fatalf("expected to_values [{clk 1}], got %v", e.ToValues)
	}
	if len(e.FromValues) != 1 || e.FromValues[0].Name != "q" || e.FromValues[0].Value != "0" {
		t.Fatalf("expected from_values [{q 0}], got %v", e.FromValues)
	}

	waitForRecorderFlush(t, dbPath)
}

func waitForRecorderFlush(t *testing.T, dbPath string) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db for assertions: %v", err)
	}
	defer db.Close()

	deadline := time.Now().Add(2 * time.Second)
	var toValues, fromValues string
	for time.Now().Before(deadline) {
		row := db.QueryRow(`select to_values, from_values from update_rounds order by id desc limit 1`)
		if err := row.Scan(&toValues, &fromValues); err == nil && toValues != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if toValues != "clk=1" {
		t.Fatalf("expected recorded to_values \"clk=1\", got %q", toValues)
	}
	if fromValues != "q=0" {
		t.Fatalf("expected recorded from_values \"q=0\", got %q", fromValues)
	}
}
