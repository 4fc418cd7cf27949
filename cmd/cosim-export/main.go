// Command cosim-export parses a negotiated FROM_SET/TO_SET signal list (as
// sent in the handshake's FROM/TO request bodies) and exports it as JSON or
// a property list, for documentation or tooling that wants a structured
// view of a cosimulation interface.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"howett.net/plist"

	"github.com/dargor0/myhdl-cosim-bridge/signalset"
)

// signalEntry is the exported shape of one descriptor: name and declared
// width, the two fields carried by the wire-level signal list itself.
type signalEntry struct {
	Name  string `json:"name" plist:"Name"`
	Width int    `json:"width" plist:"Width"`
}

type exportedSet struct {
	Signals []signalEntry `json:"signals" plist:"Signals"`
}

func main() {
	fromList := flag.String("from", "", "FROM_SET signal list, e.g. \"a 1 b 2\"")
	toList := flag.String("to", "", "TO_SET signal list, e.g. \"c 3\"")
	format := flag.String("format", "json", "output format: json or plist")
	out := flag.String("out", "", "output file; default stdout")
	flag.Parse()

	if *fromList == "" && *toList == "" {
		log.Fatal("cosim-export: at least one of -from or -to is required")
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("cosim-export: create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	if err := run(*fromList, *toList, *format, w); err != nil {
		log.Fatalf("cosim-export: %v", err)
	}
}

func run(fromList, toList, format string, w *os.File) error {
	doc := make(map[string]exportedSet)
	if fromList != "" {
		set, err := exportSignalList(fromList)
		if err != nil {
			return fmt.Errorf("from_set: %w", err)
		}
		doc["from_set"] = set
	}
	if toList != "" {
		set, err := exportSignalList(toList)
		if err != nil {
			return fmt.Errorf("to_set: %w", err)
		}
		doc["to_set"] = set
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "plist":
		enc := plist.NewEncoder(w)
		enc.Indent("  ")
		return enc.Encode(doc)
	default:
		return fmt.Errorf("unknown format %q (want json or plist)", format)
	}
}

func exportSignalList(list string) (exportedSet, error) {
	set, err := signalset.Parse(list)
	if err != nil {
		return exportedSet{}, err
	}
	entries := make([]signalEntry, len(set.Descriptors))
	for i, d := range set.Descriptors {
		entries[i] = signalEntry{Name: d.Name, Width: d.Width}
	}
	return exportedSet{Signals: entries}, nil
}
