// Command cosim-monitor is a terminal dashboard that connects to a
// telemetry.WebSocketHub feed and displays incoming update-round events as
// a scrolling, colorized table — the tcell/tview equivalent of the
// teacher's ANSI console dashboard.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/rivo/tview"

	"github.com/dargor0/myhdl-cosim-bridge/telemetry"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/telemetry", "telemetry WebSocket URL")
	history := flag.Int("history", 200, "maximum rounds kept on screen")
	flag.Parse()

	if _, err := url.Parse(*addr); err != nil {
		log.Fatalf("cosim-monitor: invalid -addr: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("cosim-monitor: dial %s: %v", *addr, err)
	}
	defer conn.Close()

	app := tview.NewApplication()
	table := newRoundTable(*history)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewTextView().SetText(fmt.Sprintf(" cosim-monitor — %s ", *addr)).SetTextColor(tcell.ColorYellow), 1, 0, false).
		AddItem(table.view, 0, 1, true)

	go pump(conn, table, app)

	if err := app.SetRoot(root, true).Run(); err != nil {
		log.Fatalf("cosim-monitor: %v", err)
	}
}

// roundTable renders a fixed-size scroll-back of telemetry.Events, newest
// row on top.
type roundTable struct {
	view    *tview.Table
	history int
	rows    int
}

func newRoundTable(history int) *roundTable {
	t := tview.NewTable().SetBorders(false).SetFixed(1, 0)
	for i, h := range []string{"SESSION", "SIM_TIME", "PEER_TIME", "RESULT"} {
		t.SetCell(0, i, tview.NewTableCell(h).SetTextColor(tcell.ColorYellow).SetSelectable(false))
	}
	return &roundTable{view: t, history: history}
}

func (t *roundTable) push(e telemetry.Event) {
	row := 1
	t.view.InsertRow(row)
	t.view.SetCell(row, 0, tview.NewTableCell(e.SessionID))
	t.view.SetCell(row, 1, tview.NewTableCell(fmt.Sprintf("%d", e.SimTime)))
	t.view.SetCell(row, 2, tview.NewTableCell(fmt.Sprintf("%d", e.PeerTime)))
	t.view.SetCell(row, 3, tview.NewTableCell(e.Result).SetTextColor(resultColor(e.Result)))

	t.rows++
	if t.rows > t.history {
		t.view.RemoveRow(t.view.GetRowCount() - 1)
		t.rows--
	}
}

func resultColor(result string) tcell.Color {
	switch result {
	case "ERROR":
		return tcell.ColorRed
	case "END":
		return tcell.ColorGray
	case "TIME":
		return tcell.ColorBlue
	case "SIGNAL":
		return tcell.ColorGreen
	default:
		return tcell.ColorWhite
	}
}

func pump(conn *websocket.Conn, table *roundTable, app *tview.Application) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			app.QueueUpdateDraw(func() {})
			return
		}
		var e telemetry.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			continue
		}
		app.QueueUpdateDraw(func() {
			table.push(e)
		})
	}
}
