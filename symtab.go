package kfst

import (
	"sort"
	"strings"
)

// SymbolID is the dense integer identifier assigned to a symbol at load
// time. Epsilon is always id 0.
type SymbolID uint16

// SymbolKind classifies a symbol's role in transition matching (§3, §4.1).
type SymbolKind uint8

const (
	KindRegular SymbolKind = iota
	KindEpsilon
	KindFlag
	KindIdentity
	KindUnknown
)

func (k SymbolKind) String() string {
	switch k {
	case KindRegular:
		return "Regular"
	case KindEpsilon:
		return "Epsilon"
	case KindFlag:
		return "Flag"
	case KindIdentity:
		return "Identity"
	case KindUnknown:
		return "Unknown"
	default:
		return "?"
	}
}

// FlagInfo describes a flag-diacritic symbol's operator, feature key, and
// optional value (§3, §4.4.4).
type FlagInfo struct {
	Op       byte // one of 'P', 'N', 'R', 'D', 'C', 'U'
	Feature  string
	Value    string
	HasValue bool
}

type symbolEntry struct {
	text string
	kind SymbolKind
	flag FlagInfo
}

// SymbolTable is a bidirectional, insertion-ordered mapping between
// textual symbols and dense SymbolIDs, with the symbol's classification
// (§4.1) computed once at insertion time.
//
// A SymbolTable is not safe for concurrent writes; once a Transducer has
// finished loading, its table is never mutated again and is safe to read
// from multiple goroutines (§5).
type SymbolTable struct {
	byText  map[string]SymbolID
	entries []symbolEntry

	hasIdentity bool
	hasUnknown  bool

	regularByRune  map[rune][]SymbolID // first rune -> candidate regular symbols, longest first
	sortedComputed bool
}

// NewSymbolTable creates a table with only the epsilon symbol (id 0)
// registered, matching the convention that epsilon is always present and
// always first (§3 invariants).
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		byText: make(map[string]SymbolID),
	}
	st.byText["@0@"] = 0
	st.entries = append(st.entries, symbolEntry{text: "@0@", kind: KindEpsilon})
	return st
}

// Len returns the number of registered symbols, including epsilon.
func (st *SymbolTable) Len() int { return len(st.entries) }

// Symbols returns the registered symbol texts in the order they were
// first seen (required to round-trip the binary format, §4.1).
func (st *SymbolTable) Symbols() []string {
	out := make([]string, len(st.entries))
	for i, e := range st.entries {
		out[i] = e.text
	}
	return out
}

// IDOf returns the id previously assigned to text, if any.
func (st *SymbolTable) IDOf(text string) (SymbolID, bool) {
	if text == "@_EPSILON_SYMBOL_@" {
		text = "@0@"
	}
	id, ok := st.byText[text]
	return id, ok
}

// TextOf returns the canonical textual form of id. Panics if id is out of
// range, since that indicates an internal invariant violation rather than
// a recoverable user error (all ids handed out by Intern are valid by
// construction).
func (st *SymbolTable) TextOf(id SymbolID) string {
	assert(int(id) < len(st.entries), "kfst: symbol id out of range")
	return st.entries[id].text
}

// Kind returns the classification of id.
func (st *SymbolTable) Kind(id SymbolID) SymbolKind {
	assert(int(id) < len(st.entries), "kfst: symbol id out of range")
	return st.entries[id].kind
}

// Flag returns the parsed flag-diacritic info for id. ok is false if id is
// not classified as KindFlag.
func (st *SymbolTable) Flag(id SymbolID) (FlagInfo, bool) {
	assert(int(id) < len(st.entries), "kfst: symbol id out of range")
	e := st.entries[id]
	return e.flag, e.kind == KindFlag
}

// Intern returns the id for text, assigning a new dense id (in order of
// first appearance) if text has not been seen before. Returns
// *MalformedFlagDiacriticError if text looks like a flag-diacritic
// envelope but cannot be parsed.
func (st *SymbolTable) Intern(text string) (SymbolID, error) {
	canon := text
	if text == "@_EPSILON_SYMBOL_@" {
		canon = "@0@"
	}
	if id, ok := st.byText[canon]; ok {
		return id, nil
	}

	entry, err := classifySymbol(canon)
	if err != nil {
		return 0, err
	}

	id := SymbolID(len(st.entries))
	assert(int(id) == len(st.entries), "kfst: symbol table overflow")
	st.entries = append(st.entries, entry)
	st.byText[canon] = id

	switch entry.kind {
	case KindIdentity:
		st.hasIdentity = true
	case KindUnknown:
		st.hasUnknown = true
	}
	st.sortedComputed = false
	return id, nil
}

// newRawSymbolTable creates a table with no symbols registered at all,
// not even epsilon. Used by the binary codec (§4.3.2), whose explicit,
// index-addressed symbol section assigns every id (including epsilon's)
// by position rather than by first-appearance deduplication.
func newRawSymbolTable() *SymbolTable {
	return &SymbolTable{byText: make(map[string]SymbolID)}
}

// internRaw unconditionally appends text as a new symbol at the next
// available id, even if an identical text was already registered. The
// binary format addresses symbols by position, not by text, so two
// positions legitimately (if unusually) holding the same text must
// still decode to two distinct ids.
func (st *SymbolTable) internRaw(text string) (SymbolID, error) {
	canon := text
	if text == "@_EPSILON_SYMBOL_@" {
		canon = "@0@"
	}
	entry, err := classifySymbol(canon)
	if err != nil {
		return 0, err
	}

	id := SymbolID(len(st.entries))
	st.entries = append(st.entries, entry)
	if _, exists := st.byText[canon]; !exists {
		st.byText[canon] = id
	}
	switch entry.kind {
	case KindIdentity:
		st.hasIdentity = true
	case KindUnknown:
		st.hasUnknown = true
	}
	st.sortedComputed = false
	return id, nil
}

// HasIdentityOrUnknown reports whether the table contains an
// @_IDENTITY_SYMBOL_@ or @_UNKNOWN_SYMBOL_@ entry, used by the tokenizer
// to decide whether unmatched input characters may fall back to a single
// Unicode scalar (§4.4.1).
func (st *SymbolTable) HasIdentityOrUnknown() bool {
	return st.hasIdentity || st.hasUnknown
}

// regularCandidates returns, in longest-first order, the regular symbols
// whose text begins with r. Built lazily and cached; invalidated by the
// next Intern call.
func (st *SymbolTable) regularCandidates(r rune) []SymbolID {
	if !st.sortedComputed {
		st.buildRegularIndex()
	}
	return st.regularByRune[r]
}

func (st *SymbolTable) buildRegularIndex() {
	idx := make(map[rune][]SymbolID)
	for i, e := range st.entries {
		if e.kind != KindRegular || e.text == "" {
			continue
		}
		r := firstRune(e.text)
		idx[r] = append(idx[r], SymbolID(i))
	}
	for r, ids := range idx {
		sort.Slice(ids, func(a, b int) bool {
			return len(st.entries[ids[a]].text) > len(st.entries[ids[b]].text)
		})
		idx[r] = ids
	}
	st.regularByRune = idx
	st.sortedComputed = true
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// classifySymbol computes the SymbolKind and, for flags, the FlagInfo for
// a canonical textual symbol form (§3, §4.1), following
// kfst_py.symbols.from_symbol_string.
func classifySymbol(text string) (symbolEntry, error) {
	switch text {
	case "@0@":
		return symbolEntry{text: "@0@", kind: KindEpsilon}, nil
	case "@_IDENTITY_SYMBOL_@":
		return symbolEntry{text: text, kind: KindIdentity}, nil
	case "@_UNKNOWN_SYMBOL_@":
		return symbolEntry{text: text, kind: KindUnknown}, nil
	}

	if isEnvelopeShaped(text) {
		if strings.IndexByte("PNDRCU", text[1]) < 0 {
			return symbolEntry{}, &MalformedFlagDiacriticError{Text: text}
		}
		return symbolEntry{text: text, kind: KindFlag, flag: parseFlagEnvelope(text)}, nil
	}

	return symbolEntry{text: text, kind: KindRegular}, nil
}

// isEnvelopeShaped reports whether text has the shape @<char>.<...>@ —
// the structural envelope a flag diacritic must wear, independent of
// whether <char> is actually one of the PNRDCU operators. A shaped
// envelope with an unrecognized operator is a load-time error (§4.1);
// the reference parser (FlagDiacriticSymbol.is_flag_diacritic) folds
// that check into a single predicate and so never raises on it,
// silently treating such a symbol as regular instead.
func isEnvelopeShaped(text string) bool {
	return len(text) > 4 &&
		text[0] == '@' &&
		text[len(text)-1] == '@' &&
		text[2] == '.'
}

// parseFlagEnvelope parses @<op>.<feature>.<value>@ or @<op>.<feature>@,
// following FlagDiacriticSymbol.from_symbol_string's exact field-splitting
// rule (rightmost '.' separates feature from value only when it falls
// after the mandatory separator at index 2). text is already known to be
// envelope-shaped with a recognized operator, so feature is always
// non-empty and this cannot fail.
func parseFlagEnvelope(text string) FlagInfo {
	op := text[1]
	di := strings.LastIndexByte(text, '.')

	if di > 3 {
		return FlagInfo{Op: op, Feature: text[3:di], Value: text[di+1 : len(text)-1], HasValue: true}
	}
	return FlagInfo{Op: op, Feature: text[3 : len(text)-1], HasValue: false}
}
