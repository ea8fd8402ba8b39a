package kfst

import "context"

// Transducer is an immutable, loaded finite-state transducer: a symbol
// table plus a transition/final-weight store (§3). Once constructed by
// ParseATT or ParseBinary, a Transducer is never mutated again and is
// safe for concurrent use by multiple goroutines (§5).
type Transducer struct {
	symtab *SymbolTable
	store  *TransducerStore

	// declaredWeighted and hasDeclaredWeighted carry a format's own
	// weighted designation across a parse (§4.3.1, §4.3.2) so a
	// transducer that was explicitly marked weighted but happens to
	// carry only zero-valued weights doesn't silently flip to
	// unweighted on re-encode. Transducers built directly (as in
	// tests) leave hasDeclaredWeighted false, so Stats falls back to
	// inspecting the actual weights.
	declaredWeighted    bool
	hasDeclaredWeighted bool
}

// TransducerStats summarizes a loaded transducer, for diagnostics such as
// the `kfstlookup -d` front-end.
type TransducerStats struct {
	States      int
	Transitions int
	FinalStates int
	Symbols     int
	Weighted    bool
}

// Stats reports the transducer's size.
func (t *Transducer) Stats() TransducerStats {
	weighted := t.declaredWeighted
	if !t.hasDeclaredWeighted {
		for _, tr := range t.store.transitions {
			if tr.Weight != 0 {
				weighted = true
				break
			}
		}
		if !weighted {
			for _, w := range t.store.finalWeights {
				if w != 0 {
					weighted = true
					break
				}
			}
		}
	}
	return TransducerStats{
		States:      t.store.NumStates(),
		Transitions: t.store.NumTransitions(),
		FinalStates: len(t.store.finalWeights),
		Symbols:     t.symtab.Len(),
		Weighted:    weighted,
	}
}

// Symbols returns the transducer's registered symbol texts, in id
// order (§4.1), for enumeration and round-tripping.
func (t *Transducer) Symbols() []string {
	return t.symtab.Symbols()
}

// Lookup runs the transducer on input with the given options, returning
// every accepted (output, weight) pair, deduplicated and sorted
// ascending by weight (§4.4, §6). ctx may be nil; it is polled only for
// cancellation, on the caller's own terms (§5). Lookup never errors for
// "no analyses" — it returns an empty slice (§4.4.7).
func (t *Transducer) Lookup(ctx context.Context, input string, opts LookupOptions) ([]Analysis, error) {
	toks, err := tokenize(t.symtab, input, opts.AllowUnknown)
	if err != nil {
		return nil, err
	}

	s := &searcher{
		ctx:         ctx,
		store:       t.store,
		symtab:      t.symtab,
		tokens:      toks,
		postProcess: opts.PostProcess,
		visited:     make(map[cfgKey]bool),
	}
	if err := s.run(opts.StartState, 0, nil, 0); err != nil {
		return nil, err
	}

	return finalize(s.results), nil
}
