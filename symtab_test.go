package kfst

import "testing"

func TestSymbolTableInternAssignsDenseIDsInOrder(t *testing.T) {
	st := NewSymbolTable()
	a, err := st.Intern("a")
	if err != nil {
		t.Fatalf("Intern(a): %v", err)
	}
	b, err := st.Intern("b")
	if err != nil {
		t.Fatalf("Intern(b): %v", err)
	}
	if a != 1 || b != 2 {
		t.Fatalf("got a=%d b=%d, want a=1 b=2 (epsilon occupies 0)", a, b)
	}
	again, err := st.Intern("a")
	if err != nil {
		t.Fatalf("re-Intern(a): %v", err)
	}
	if again != a {
		t.Fatalf("re-interning %q returned %d, want %d", "a", again, a)
	}
	if st.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", st.Len())
	}
}

func TestSymbolTableEpsilonAlwaysZero(t *testing.T) {
	st := NewSymbolTable()
	id, ok := st.IDOf("@0@")
	if !ok || id != 0 {
		t.Fatalf("IDOf(@0@) = (%d, %v), want (0, true)", id, ok)
	}
	if st.Kind(0) != KindEpsilon {
		t.Fatalf("Kind(0) = %v, want Epsilon", st.Kind(0))
	}
	id2, err := st.Intern("@_EPSILON_SYMBOL_@")
	if err != nil {
		t.Fatalf("Intern(@_EPSILON_SYMBOL_@): %v", err)
	}
	if id2 != 0 {
		t.Fatalf("Intern(@_EPSILON_SYMBOL_@) = %d, want 0 (alias of @0@)", id2)
	}
}

func TestSymbolTableClassifiesIdentityAndUnknown(t *testing.T) {
	st := NewSymbolTable()
	id, err := st.Intern("@_IDENTITY_SYMBOL_@")
	if err != nil {
		t.Fatalf("Intern(identity): %v", err)
	}
	if st.Kind(id) != KindIdentity {
		t.Fatalf("Kind(identity) = %v, want Identity", st.Kind(id))
	}
	if !st.HasIdentityOrUnknown() {
		t.Fatalf("HasIdentityOrUnknown() = false after interning identity symbol")
	}

	st2 := NewSymbolTable()
	id2, err := st2.Intern("@_UNKNOWN_SYMBOL_@")
	if err != nil {
		t.Fatalf("Intern(unknown): %v", err)
	}
	if st2.Kind(id2) != KindUnknown {
		t.Fatalf("Kind(unknown) = %v, want Unknown", st2.Kind(id2))
	}
	if !st2.HasIdentityOrUnknown() {
		t.Fatalf("HasIdentityOrUnknown() = false after interning unknown symbol")
	}
}

func TestSymbolTableClassifiesFlagDiacritics(t *testing.T) {
	tests := []struct {
		text    string
		op      byte
		feature string
		value   string
		hasVal  bool
	}{
		{"@P.CASE.NOM@", 'P', "CASE", "NOM", true},
		{"@N.CASE.NOM@", 'N', "CASE", "NOM", true},
		{"@R.CASE@", 'R', "CASE", "", false},
		{"@R.CASE.NOM@", 'R', "CASE", "NOM", true},
		{"@D.CASE@", 'D', "CASE", "", false},
		{"@C.CASE@", 'C', "CASE", "", false},
		{"@U.CASE.NOM@", 'U', "CASE", "NOM", true},
	}
	for _, tc := range tests {
		st := NewSymbolTable()
		id, err := st.Intern(tc.text)
		if err != nil {
			t.Fatalf("Intern(%q): %v", tc.text, err)
		}
		if st.Kind(id) != KindFlag {
			t.Fatalf("Kind(%q) = %v, want Flag", tc.text, st.Kind(id))
		}
		info, ok := st.Flag(id)
		if !ok {
			t.Fatalf("Flag(%q) ok = false", tc.text)
		}
		if info.Op != tc.op || info.Feature != tc.feature || info.Value != tc.value || info.HasValue != tc.hasVal {
			t.Fatalf("Flag(%q) = %+v, want {%c %s %s %v}", tc.text, info, tc.op, tc.feature, tc.value, tc.hasVal)
		}
	}
}

func TestSymbolTableRegularSymbolIsDefaultKind(t *testing.T) {
	st := NewSymbolTable()
	id, err := st.Intern("+N")
	if err != nil {
		t.Fatalf("Intern(+N): %v", err)
	}
	if st.Kind(id) != KindRegular {
		t.Fatalf("Kind(+N) = %v, want Regular", st.Kind(id))
	}
}

func TestSymbolTableRejectsUnrecognizedFlagOperator(t *testing.T) {
	st := NewSymbolTable()
	if _, err := st.Intern("@X.CASE.NOM@"); err == nil {
		t.Fatalf("expected error interning an envelope-shaped symbol with operator 'X', got nil")
	}
}

func TestSymbolTableAcceptsDegenerateFeatureNameLikeReference(t *testing.T) {
	// "@P..@" parses to feature="." under the reference's exact
	// slicing rule (FlagDiacriticSymbol.from_symbol_string): the
	// rightmost '.' is at index 3, which is not > 3, so the whole
	// middle section (a single ".") becomes the feature name. This is
	// accepted, not malformed — kfst_py makes no attempt to reject it.
	st := NewSymbolTable()
	id, err := st.Intern("@P..@")
	if err != nil {
		t.Fatalf("Intern(@P..@): %v", err)
	}
	info, ok := st.Flag(id)
	if !ok || info.Feature != "." || info.HasValue {
		t.Fatalf("Flag(@P..@) = %+v, want {Op:'P' Feature:\".\" HasValue:false}", info)
	}
}

func TestSymbolTableRegularCandidatesLongestFirst(t *testing.T) {
	st := NewSymbolTable()
	if _, err := st.Intern("ab"); err != nil {
		t.Fatalf("Intern(ab): %v", err)
	}
	if _, err := st.Intern("a"); err != nil {
		t.Fatalf("Intern(a): %v", err)
	}
	cands := st.regularCandidates('a')
	if len(cands) != 2 {
		t.Fatalf("regularCandidates('a') = %v, want 2 entries", cands)
	}
	if st.TextOf(cands[0]) != "ab" {
		t.Fatalf("regularCandidates('a')[0] = %q, want the longer match %q first", st.TextOf(cands[0]), "ab")
	}
}

func TestRawSymbolTableAddressesByPositionNotText(t *testing.T) {
	st := newRawSymbolTable()
	first, err := st.internRaw("@0@")
	if err != nil {
		t.Fatalf("internRaw(@0@): %v", err)
	}
	second, err := st.internRaw("a")
	if err != nil {
		t.Fatalf("internRaw(a): %v", err)
	}
	third, err := st.internRaw("a") // duplicate text, distinct position
	if err != nil {
		t.Fatalf("internRaw(a) again: %v", err)
	}
	if first != 0 || second != 1 || third != 2 {
		t.Fatalf("got ids %d,%d,%d, want 0,1,2 (positional, no dedup)", first, second, third)
	}
	if st.TextOf(second) != st.TextOf(third) {
		t.Fatalf("expected both positions to carry the same text")
	}
}
