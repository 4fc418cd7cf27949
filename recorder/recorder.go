// Package recorder persists update-round summaries to SQLite for post-mortem
// analysis. Recording is optional and must never slow down or block the
// cosimulation hot path: Record enqueues and returns immediately, and a
// full queue drops the round rather than stalling the caller.
package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// FieldChange is one named signal value carried by a Round, either a TO_SET
// value observed from the simulator or a FROM_SET value applied from the
// peer's response.
type FieldChange struct {
	Name  string
	Value string
}

// Round summarizes a single session.Update call, independent of the session
// package so recorder has no import-cycle dependency on it.
type Round struct {
	SessionID  string
	SimTime    int64
	PeerTime   int64
	Result     string
	ToValues   []FieldChange
	FromValues []FieldChange
}

// Recorder asynchronously writes Rounds to a SQLite database, keeping only
// the most recently recorded `limit` rows.
type Recorder struct {
	db    *sql.DB
	limit int
	queue chan Round
	stop  chan struct{}
	done  chan struct{}

	dropCount uint64
}

// NewRecorder opens (creating if necessary) the SQLite database at path and
// starts its background insert loop. limit bounds the number of rows kept;
// values <= 0 fall back to a default of 1000.
func NewRecorder(path string, limit int) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("recorder: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("recorder: open db: %w", err)
	}
	if _, err := db.Exec(`pragma journal_mode=WAL; pragma synchronous=NORMAL; pragma busy_timeout=5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("recorder: pragmas: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if limit <= 0 {
		limit = 1000
	}

	r := &Recorder{
		db:    db,
		limit: limit,
		queue: make(chan Round, 1000),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go r.insertLoop()
	return r, nil
}

// Record enqueues round for asynchronous insertion. It never blocks: a full
// queue drops the round and bumps the drop counter instead of stalling
// the caller.
func (r *Recorder) Record(round Round) {
	if r == nil {
		return
	}
	select {
	case r.queue <- round:
	default:
		r.dropCount++
	}
}

// Close stops the insert loop, waits for it to drain, and closes the
// database.
func (r *Recorder) Close() error {
	close(r.stop)
	<-r.done
	return r.db.Close()
}

// DroppedRounds reports how many Record calls were dropped due to queue
// backpressure since the recorder was created.
func (r *Recorder) DroppedRounds() uint64 {
	return r.dropCount
}

func (r *Recorder) insertLoop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			r.drain()
			return
		case round := <-r.queue:
			r.insert(round)
			r.trim()
		}
	}
}

// drain flushes whatever is left in the queue once stop has been signaled,
// without blocking on further sends.
func (r *Recorder) drain() {
	for {
		select {
		case round := <-r.queue:
			r.insert(round)
		default:
			r.trim()
			return
		}
	}
}

func (r *Recorder) insert(round Round) {
	toText := encodeChanges(round.ToValues)
	fromText := encodeChanges(round.FromValues)
	if _, err := r.db.Exec(
		`insert into update_rounds(session_id, sim_time, peer_time, result, to_values, from_values, recorded_at) values(?,?,?,?,?,?,?)`,
		round.SessionID, round.SimTime, round.PeerTime, round.Result, toText, fromText, time.Now().UTC().Unix(),
	); err != nil {
		log.Printf("recorder: insert failed: %v", err)
	}
}

// trim enforces the row-count limit, deleting the oldest rows beyond it.
func (r *Recorder) trim() {
	if _, err := r.db.Exec(
		`delete from update_rounds where id in (
			select id from update_rounds order by id desc limit -1 offset ?
		)`, r.limit,
	); err != nil {
		log.Printf("recorder: trim failed: %v", err)
	}
}

func encodeChanges(changes []FieldChange) string {
	if len(changes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, " ")
}

func ensureSchema(db *sql.DB) error {
	schema := `
	create table if not exists update_rounds (
		id integer primary key autoincrement,
		session_id text,
		sim_time integer,
		peer_time integer,
		result text,
		to_values text,
		from_values text,
		recorded_at integer
	);
	create index if not exists idx_update_rounds_session on update_rounds(session_id);
	create index if not exists idx_update_rounds_sim_time on update_rounds(sim_time);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("recorder: schema: %w", err)
	}
	return nil
}
