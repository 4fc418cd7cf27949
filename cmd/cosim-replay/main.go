// Command cosim-replay reports on a recorder database, printing a tabular
// summary of recorded update rounds for post-mortem analysis.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"
)

type round struct {
	id         int64
	sessionID  string
	simTime    int64
	peerTime   int64
	result     string
	toValues   string
	fromValues string
	recordedAt time.Time
}

func main() {
	dbPath := flag.String("db", "", "path to a recorder SQLite database")
	limit := flag.Int("limit", 50, "maximum rounds to print, most recent first")
	session := flag.String("session", "", "restrict to a single session id")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("cosim-replay: -db is required")
	}
	if err := run(*dbPath, *limit, *session); err != nil {
		log.Fatalf("cosim-replay: %v", err)
	}
}

func run(dbPath string, limit int, session string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	rounds, err := loadRounds(db, limit, session)
	if err != nil {
		return err
	}
	if len(rounds) == 0 {
		fmt.Println("no rounds recorded")
		return nil
	}

	printSummary(rounds)
	printTable(rounds)
	return nil
}

func loadRounds(db *sql.DB, limit int, session string) ([]round, error) {
	query := `select id, session_id, sim_time, peer_time, result, to_values, from_values, recorded_at
		from update_rounds`
	args := []any{}
	if session != "" {
		query += ` where session_id = ?`
		args = append(args, session)
	}
	query += ` order by id desc limit ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var out []round
	for rows.Next() {
		var r round
		var recordedAtUnix int64
		if err := rows.Scan(&r.id, &r.sessionID, &r.simTime, &r.peerTime, &r.result, &r.toValues, &r.fromValues, &recordedAtUnix); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.recordedAt = time.Unix(recordedAtUnix, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func printSummary(rounds []round) {
	byResult := make(map[string]int)
	for _, r := range rounds {
		byResult[r.result]++
	}
	fmt.Printf("%s rounds loaded, most recent %s\n", humanize.Comma(int64(len(rounds))), humanize.Time(rounds[0].recordedAt))
	for result, count := range byResult {
		fmt.Printf("  %-8s %s\n", result, humanize.Comma(int64(count)))
	}
	fmt.Println()
}

func printTable(rounds []round) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSESSION\tSIM_TIME\tPEER_TIME\tRESULT\tTO_VALUES\tFROM_VALUES")
	for _, r := range rounds {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.id, r.sessionID, r.simTime, r.peerTime, r.result, r.toValues, r.fromValues)
	}
	_ = w.Flush()
}
