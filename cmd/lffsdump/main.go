// Command lffsdump prints a unified diff between two manifest-graph
// snapshots, each loaded from its own device base directory through
// dump.Open, which uses that device's configured storage backend. It exists to
// inspect how a batch of Mutator operations changed a store during
// development, the same role cmd/muscle's "diff" subcommand plays for the
// teacher's tree.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/opaquecloud/lffs/dump"
	"github.com/opaquecloud/lffs/internal/diff"
)

func main() {
	fs := flag.NewFlagSet("lffsdump", flag.ExitOnError)
	contextLines := fs.Int("U", 3, "number of unified context `lines`")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-U lines] before-base after-base\n", os.Args[0])
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(2)
	}

	before, err := snapshot(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "lffsdump: %v\n", err)
		os.Exit(1)
	}
	after, err := snapshot(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "lffsdump: %v\n", err)
		os.Exit(1)
	}

	out, err := diff.Unified(diff.StringNode(before), diff.StringNode(after), *contextLines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lffsdump: computing diff: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(out)
}

func snapshot(base string) (string, error) {
	m, err := dump.Open(base)
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", base, err)
	}
	return dump.Snapshot(m)
}
