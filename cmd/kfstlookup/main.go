// Command kfstlookup loads a single finite-state transducer and runs an
// interactive lookup REPL against it, mirroring the reference Python
// tool's flag surface and behavior.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/npillmayer/kfst"
)

func main() {
	format := flag.String("f", "auto", "input format: att, kfst, or auto (detect from extension)")
	debug := flag.Bool("d", false, "enable debug tracing")
	printSymbols := flag.Bool("s", false, "print symbols in the transducer and exit")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: kfstlookup [-f att|kfst|auto] [-d] [-s] <fst-file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	t, err := loadTransducer(path, *format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "kfstlookup:", err)
		os.Exit(1)
	}

	if *printSymbols {
		printSorted(t.Symbols())
		return
	}
	if *debug {
		kfst.SetDebug(true)
		printSorted(t.Symbols())
		fmt.Printf("%+v\n", t.Stats())
	}

	repl(t)
}

func loadTransducer(path, format string) (*kfst.Transducer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wantBinary := format == "kfst" || (format == "auto" && filepath.Ext(path) == ".kfst")
	if wantBinary {
		return kfst.ParseBinary(f)
	}
	return kfst.ParseATT(f)
}

func repl(t *kfst.Transducer) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		analyses, err := t.Lookup(context.Background(), line, kfst.DefaultLookupOptions())
		if err != nil {
			fmt.Fprintln(os.Stderr, "kfstlookup:", err)
		}
		for _, a := range analyses {
			fmt.Printf("%s\t%s\t%v\n", line, a.Output, a.Weight)
		}
		fmt.Print("> ")
	}
}

func printSorted(symbols []string) {
	cp := append([]string(nil), symbols...)
	sort.Strings(cp)
	fmt.Println(strings.Join(cp, " "))
}
