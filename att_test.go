package kfst

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestParseATTSimpleAcceptor(t *testing.T) {
	// Scenario #1 from the concrete scenarios table: a two-state acceptor.
	src := "0\t1\ta\ta\n1\n"
	tr, err := ParseATT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseATT: %v", err)
	}
	got, err := tr.Lookup(context.Background(), "a", DefaultLookupOptions())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 || got[0].Output != "a" || got[0].Weight != 0 {
		t.Fatalf("Lookup(a) = %+v, want [{a 0}]", got)
	}
}

func TestParseATTWeightedTransitionsAndFinals(t *testing.T) {
	src := "0\t1\ta\ta\t1.5\n1\t2.5\n"
	tr, err := ParseATT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseATT: %v", err)
	}
	got, err := tr.Lookup(context.Background(), "a", DefaultLookupOptions())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 || got[0].Weight != 4.0 {
		t.Fatalf("Lookup(a) = %+v, want weight 4.0 (1.5 transition + 2.5 final)", got)
	}
}

func TestParseATTOnlyLoadsFirstBlock(t *testing.T) {
	src := "0\t1\ta\ta\n1\n\n0\t1\tb\tb\n1\n"
	all, err := ParseATTAll(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseATTAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ParseATTAll returned %d transducers, want 2", len(all))
	}

	first, err := ParseATT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseATT: %v", err)
	}
	if _, ok := first.symtab.IDOf("b"); ok {
		t.Fatalf("ParseATT's result contains symbol from the second block")
	}
}

func TestParseATTMalformedRecord(t *testing.T) {
	src := "0\t1\ta\n" // 3 fields, not a valid final (1-2) or transition (4-5) record
	if _, err := ParseATT(strings.NewReader(src)); err == nil {
		t.Fatalf("expected a MalformedRecordError, got nil")
	}
}

func TestParseATTRecordsDeclaredWeightedEvenWhenAllZero(t *testing.T) {
	src := "0\t1\ta\ta\t0\n1\t0\n"
	tr, err := ParseATT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseATT: %v", err)
	}
	if !tr.Stats().Weighted {
		t.Fatalf("Stats().Weighted = false, want true: every record carried an explicit (zero) weight column")
	}

	var buf bytes.Buffer
	if err := tr.EncodeBinary(&buf); err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	if buf.Bytes()[16] != 1 {
		t.Fatalf("EncodeBinary's weighted byte = %d, want 1: the ATT source declared an explicit weight column", buf.Bytes()[16])
	}
}

func TestEncodeATTRoundTrips(t *testing.T) {
	src := "0\t1\ta\tb\t0.5\n0\t2\tc\td\n1\t0.25\n2\n"
	tr, err := ParseATT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseATT: %v", err)
	}

	var buf bytes.Buffer
	if err := tr.EncodeATT(&buf); err != nil {
		t.Fatalf("EncodeATT: %v", err)
	}

	tr2, err := ParseATT(&buf)
	if err != nil {
		t.Fatalf("re-parsing encoded ATT: %v", err)
	}

	for _, input := range []string{"a", "c", ""} {
		got1, err := tr.Lookup(context.Background(), input, DefaultLookupOptions())
		if err != nil {
			t.Fatalf("Lookup(%q) on original: %v", input, err)
		}
		got2, err := tr2.Lookup(context.Background(), input, DefaultLookupOptions())
		if err != nil {
			t.Fatalf("Lookup(%q) on round-tripped: %v", input, err)
		}
		if len(got1) != len(got2) {
			t.Fatalf("Lookup(%q): original has %d results, round-tripped has %d", input, len(got1), len(got2))
		}
		for i := range got1 {
			if got1[i] != got2[i] {
				t.Fatalf("Lookup(%q)[%d]: original=%+v round-tripped=%+v", input, i, got1[i], got2[i])
			}
		}
	}
}
