// Command jiofsck is a thin driver around libjournal.Fsck: it scans a
// data file's journal directory, replays recoverable records, and
// prints a report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jio/libjournal"
)

var (
	cleanup = flag.Bool("cleanup", false, "remove corrupt and truncated journal records in addition to applied ones")
	verbose = flag.Bool("verbose", false, "print per-record status in addition to the summary")
)

func main() {
	flag.Parse()

	log.SetFlags(0)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: jiofsck [--cleanup] [--verbose] <datafile>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	report, err := libjournal.Fsck(path, libjournal.FsckOptions{Cleanup: *cleanup})
	if err != nil {
		fmt.Fprintf(os.Stderr, "jiofsck: %v\n", err)
		os.Exit(2)
	}

	if report.NoJournal {
		fmt.Println("no journal directory found; nothing to recover")
		return
	}

	if *verbose {
		for _, r := range report.Records {
			fmt.Printf("%09d  %-9s  %s\n", r.ID, r.Status, r.Path)
		}
	}

	fmt.Printf("applied: %d  broken: %d  cleaned: %d\n", report.Applied, report.Broken, report.Cleaned)

	if report.Broken > 0 && !*cleanup {
		os.Exit(1)
	}
}
