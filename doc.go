/*
Package kfst is a finite-state transducer engine for morphological analysis
and generation of natural-language word forms, compatible with transducers
produced by the HFST toolchain.

Given an input string, Transducer.Lookup enumerates every output string
(with weight) that the transducer accepts, honoring the flag-diacritic and
epsilon-transition extensions real-world morphologies rely on. Transducers
can be loaded from the AT&T tabular format (ParseATT) or the compact KFST
binary format (ParseBinary), and round-tripped back to either.

The package only executes precompiled transducers; it performs no FST
composition, determinization, or minimization.

Further Reading

	https://github.com/hfst/hfst              (the HFST toolchain)
	https://pypi.org/project/kfst/             (the reference Python/Rust implementation)

----------------------------------------------------------------------

# BSD License

Copyright (c) Norbert Pillmayer <norbert@pillmayer@com>

All rights reserved.

License information is available in the LICENSE file.
*/
package kfst

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'kfst'
func tracer() tracing.Trace {
	return tracing.Select("kfst")
}

// debugMode gates the per-transition trace lines emitted during lookup
// (lookup.go's fire), mirroring the reference Python implementation's
// self.debug flag rather than a trace-sink verbosity level. Set once via
// SetDebug before any Lookup call; not safe to flip concurrently with an
// in-flight lookup.
var debugMode bool

// SetDebug enables or disables the per-transition trace lines fire emits
// during Transducer.Lookup, used by cmd/kfstlookup's -d flag.
func SetDebug(enabled bool) {
	debugMode = enabled
}

func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
