package kfst

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"
)

// LookupOptions configures a single Transducer.Lookup call (§6).
type LookupOptions struct {
	// StartState is the state the search begins from.
	StartState StateID
	// PostProcess strips flag-diacritic symbols from emitted outputs
	// when true; when false they are preserved verbatim (§4.4.5).
	PostProcess bool
	// AllowUnknown permits the tokenizer to fall back to a single
	// Unicode scalar for input that matches no regular symbol, provided
	// the transducer's alphabet has an identity or unknown symbol
	// (§4.4.1). When false, unmatched input is an UntokenizableInputError.
	AllowUnknown bool
}

// DefaultLookupOptions returns the options Transducer.Lookup uses when
// none are given: start at state 0, strip flag diacritics, allow the
// identity/unknown fallback.
func DefaultLookupOptions() LookupOptions {
	return LookupOptions{PostProcess: true, AllowUnknown: true}
}

// Analysis is one surface-level result of a lookup: an accepted output
// string together with its accumulated path weight. It is the sole
// interchange type for downstream analyzer front-ends (§6).
type Analysis struct {
	Output string
	Weight float64
}

// token is one element of a tokenized input (§4.4.1): either a symbol
// already present in the transducer's alphabet, or a single Unicode
// scalar consumed through the identity/unknown fallback.
type token struct {
	known bool
	id    SymbolID
	text  string
}

// tokenize splits input by longest-match greedy tokenization against
// st (§4.4.1): at each position the longest matching regular symbol is
// consumed; failing that, a single Unicode scalar is consumed as an
// unknown token if allowUnknown is set and the table carries an
// identity or unknown symbol; failing that, tokenization fails.
func tokenize(st *SymbolTable, input string, allowUnknown bool) ([]token, error) {
	fallbackOK := allowUnknown && st.HasIdentityOrUnknown()

	var toks []token
	pos := 0
	for pos < len(input) {
		r, size := utf8.DecodeRuneInString(input[pos:])
		matched := false
		for _, id := range st.regularCandidates(r) {
			text := st.TextOf(id)
			if strings.HasPrefix(input[pos:], text) {
				toks = append(toks, token{known: true, id: id, text: text})
				pos += len(text)
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if !fallbackOK {
			return nil, &UntokenizableInputError{Position: pos}
		}
		toks = append(toks, token{text: input[pos : pos+size]})
		pos += size
	}
	return toks, nil
}

// outFrag is one entry of the output buffer under construction. Flag
// fragments carry their own envelope text (so PostProcess=false can
// show them verbatim, §4.4.5) but are tagged so PostProcess=true can
// skip them when joining.
type outFrag struct {
	text   string
	isFlag bool
}

// cfgKey identifies a search configuration for cycle protection
// (§4.4.3): a repeated key on the current path can only be reached
// through a chain of transitions that consumed no input, since pos is
// monotonically non-decreasing along a path and strictly increases on
// every consuming transition.
type cfgKey struct {
	state StateID
	pos   int
	flags uint64
}

// searcher holds the stack-local state of a single Lookup call (§5:
// "per-lookup state is stack-local; never shared").
type searcher struct {
	ctx         context.Context
	store       *TransducerStore
	symtab      *SymbolTable
	tokens      []token
	postProcess bool

	visited map[cfgKey]bool
	out     []outFrag
	results []Analysis

	steps int
}

// checkCancel polls ctx every 1024 steps rather than on every call, to
// avoid paying channel-receive cost on the hot recursive path (§5:
// callers enforce wall-clock bounds externally via a cancellable ctx).
func (s *searcher) checkCancel() error {
	s.steps++
	if s.ctx == nil || s.steps&1023 != 0 {
		return nil
	}
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return nil
	}
}

// run explores every configuration reachable from (state, pos, flags)
// without returning to one already on the current path, emitting a
// result whenever input is exhausted in a final state (§4.4.2).
func (s *searcher) run(state StateID, pos int, flags *flagMap, weight float64) error {
	if err := s.checkCancel(); err != nil {
		return err
	}

	key := cfgKey{state: state, pos: pos, flags: flags.fingerprint()}
	if s.visited[key] {
		return nil
	}
	s.visited[key] = true
	defer delete(s.visited, key)

	if pos == len(s.tokens) {
		if w, ok := s.store.FinalWeight(state); ok {
			s.results = append(s.results, Analysis{
				Output: s.buildOutput(),
				Weight: weight + w,
			})
		}
	}

	for _, tr := range s.store.TransitionsFrom(state) {
		switch s.symtab.Kind(tr.InputSymbol) {
		case KindEpsilon, KindFlag:
			if err := s.fire(tr, pos, flags, weight, false); err != nil {
				return err
			}
		case KindRegular:
			if pos < len(s.tokens) && s.tokens[pos].known && s.tokens[pos].id == tr.InputSymbol {
				if err := s.fire(tr, pos, flags, weight, true); err != nil {
					return err
				}
			}
		}
	}

	// Identity/Unknown only ever match an unmatched input character,
	// and are tried as two separate passes (unknown, then identity)
	// rather than interleaved with the scan above, pinning the
	// precedence spec §9 leaves open (SPEC_FULL.md §4.4).
	if pos < len(s.tokens) && !s.tokens[pos].known {
		for _, kind := range [2]SymbolKind{KindUnknown, KindIdentity} {
			for _, tr := range s.store.TransitionsFrom(state) {
				if s.symtab.Kind(tr.InputSymbol) == kind {
					if err := s.fire(tr, pos, flags, weight, true); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}

// fire evaluates one candidate transition: applies its flag
// precondition/effect if it is a flag diacritic, appends its output
// contribution to the buffer, recurses into the successor
// configuration, then undoes the buffer append on the way back out.
func (s *searcher) fire(tr Transition, pos int, flags *flagMap, weight float64, consumes bool) error {
	if debugMode {
		tracer().Debugf("kfst: -> %d in=%s out=%s pos=%d", tr.Target,
			s.symtab.TextOf(tr.InputSymbol), s.symtab.TextOf(tr.OutputSymbol), pos)
	}

	if s.symtab.Kind(tr.InputSymbol) == KindFlag {
		info, _ := s.symtab.Flag(tr.InputSymbol)
		var ok bool
		flags, ok = applyFlag(info, flags)
		if !ok {
			return nil // precondition failed: prune silently (§4.4.4, §4.4.7)
		}
	}

	frag := s.outputFragment(tr.OutputSymbol, pos, consumes)
	if frag.text != "" {
		s.out = append(s.out, frag)
	}

	nextPos := pos
	if consumes {
		nextPos++
	}
	err := s.run(tr.Target, nextPos, flags, weight+tr.Weight)

	if frag.text != "" {
		s.out = s.out[:len(s.out)-1]
	}
	return err
}

// outputFragment computes what a transition's output symbol
// contributes to the buffer (§4.4.2 "Transition output handling").
func (s *searcher) outputFragment(outSym SymbolID, pos int, consumes bool) outFrag {
	switch s.symtab.Kind(outSym) {
	case KindEpsilon:
		return outFrag{}
	case KindFlag:
		return outFrag{text: s.symtab.TextOf(outSym), isFlag: true}
	case KindIdentity:
		if consumes {
			return outFrag{text: s.tokens[pos].text}
		}
		return outFrag{}
	default: // KindRegular, KindUnknown
		return outFrag{text: s.symtab.TextOf(outSym)}
	}
}

// buildOutput joins the current output buffer, dropping flag-origin
// fragments when PostProcess is set (§4.4.5).
func (s *searcher) buildOutput() string {
	var b strings.Builder
	for _, frag := range s.out {
		if frag.isFlag && s.postProcess {
			continue
		}
		b.WriteString(frag.text)
	}
	return b.String()
}

// finalize sorts results ascending by weight (stable, so ties keep
// first-encountered order) and removes duplicate (output, weight)
// pairs, keeping the first occurrence (§4.4.6).
func finalize(results []Analysis) []Analysis {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Weight < results[j].Weight
	})

	type dedupKey struct {
		output string
		weight float64
	}
	seen := make(map[dedupKey]bool, len(results))
	out := results[:0]
	for _, a := range results {
		k := dedupKey{a.Output, a.Weight}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, a)
	}
	return out
}
