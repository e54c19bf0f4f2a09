// Package main is a command-line tool for poking at a bridge journal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gangwayio/gangway/bridge"
	"github.com/gangwayio/gangway/journal"
)

func main() {

	if len(os.Args) < 3 {
		Usage()
		os.Exit(1)
	}

	var (
		filename = os.Args[1]
		verb     = os.Args[2]
	)

	ctx := context.Background()

	j, err := journal.NewJournal(filename)
	if err != nil {
		fatal(err)
	}
	if err = j.Open(ctx); err != nil {
		fatal(err)
	}
	defer j.Close()

	switch verb {
	case "reports":
		err = j.Reports(ctx, func(rep *bridge.Report) error {
			bs, err := json.Marshal(rep)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", bs)
			return nil
		})

	case "deadletters":
		err = j.Replay(ctx, func(raw []byte) error {
			fmt.Printf("%s\n", raw)
			return nil
		})

	case "drop":
		err = j.Drop(ctx)

	default:
		Usage()
		os.Exit(1)
	}

	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func Usage() {
	fmt.Fprintf(os.Stderr, `usage: gwjournal FILENAME VERB

Verbs:

  reports      Print each journaled report as a line of JSON.
  deadletters  Print each dead-lettered raw message, one per line.
               Pipe this back into a (repaired) bridge to replay.
  drop         Delete all dead letters (reports are kept).
`)
}
