// Package telemetry broadcasts update-round events to external consumers
// over MQTT and WebSocket, independent of the recorder's SQLite log.
// Like recorder, it is entirely optional: a session runs unchanged with
// no publishers attached.
package telemetry

import jsoniter "github.com/json-iterator/go"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// NameValue is one named signal value carried in an Event.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Event is the wire-level summary of one update round, shaped to mirror
// recorder.Round without importing it — telemetry and recorder are
// independent consumers of the same round information, each fed by the
// caller after session.Update returns.
type Event struct {
	SessionID  string      `json:"session_id"`
	SimTime    int64       `json:"sim_time"`
	PeerTime   int64       `json:"peer_time"`
	Result     string      `json:"result"`
	ToValues   []NameValue `json:"to_values,omitempty"`
	FromValues []NameValue `json:"from_values,omitempty"`
}
