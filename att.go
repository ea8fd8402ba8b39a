package kfst

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ParseATT reads the AT&T tabular format (§4.3.1) from r and returns the
// first transducer in the stream. Subsequent blank-line-separated
// transducers are parsed (to surface any malformed record in them) but
// discarded, per spec: "only the first transducer is loaded".
func ParseATT(r io.Reader) (*Transducer, error) {
	all, err := ParseATTAll(r)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, &MalformedRecordError{Line: 0, Text: ""}
	}
	return all[0], nil
}

// ParseATTAll reads every blank-line-separated transducer in r and
// returns them all, in stream order.
func ParseATTAll(r io.Reader) ([]*Transducer, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var out []*Transducer
	cur := newAttBlock()
	lineNo := 0
	flush := func() error {
		if cur.empty() {
			return nil
		}
		t, err := cur.build()
		if err != nil {
			return err
		}
		out = append(out, t)
		cur = newAttBlock()
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		if err := cur.addLine(lineNo, line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	tracer().Infof("kfst: parsed %d transducer(s) from ATT input", len(out))
	return out, nil
}

// attBlock accumulates the records of a single transducer while
// streaming through an ATT-format block.
type attBlock struct {
	symtab   *SymbolTable
	builder  *storeBuilder
	sawAny   bool
	weighted bool
}

func newAttBlock() *attBlock {
	return &attBlock{
		symtab:  NewSymbolTable(),
		builder: newStoreBuilder(),
	}
}

func (b *attBlock) empty() bool { return !b.sawAny }

func (b *attBlock) addLine(lineNo int, line string) error {
	fields := strings.Split(line, "\t")
	b.sawAny = true

	switch len(fields) {
	case 1:
		id, err := parseStateID(fields[0], lineNo, line)
		if err != nil {
			return err
		}
		b.builder.SetFinal(id, 0.0)

	case 2:
		id, err := parseStateID(fields[0], lineNo, line)
		if err != nil {
			return err
		}
		w, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return &MalformedRecordError{Line: lineNo, Text: line}
		}
		b.weighted = true // an explicit weight column was present, even if its value is 0
		b.builder.SetFinal(id, w)

	case 4, 5:
		src, err := parseStateID(fields[0], lineNo, line)
		if err != nil {
			return err
		}
		dst, err := parseStateID(fields[1], lineNo, line)
		if err != nil {
			return err
		}
		inID, err := b.symtab.Intern(fields[2])
		if err != nil {
			return err
		}
		outID, err := b.symtab.Intern(fields[3])
		if err != nil {
			return err
		}
		weight := 0.0
		if len(fields) == 5 {
			weight, err = strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return &MalformedRecordError{Line: lineNo, Text: line}
			}
			b.weighted = true // an explicit weight column was present, even if its value is 0
		}
		b.builder.AddTransition(src, Transition{
			Target:       dst,
			InputSymbol:  inID,
			OutputSymbol: outID,
			Weight:       weight,
		})

	default:
		return &MalformedRecordError{Line: lineNo, Text: line}
	}
	return nil
}

func (b *attBlock) build() (*Transducer, error) {
	return &Transducer{
		symtab:              b.symtab,
		store:               b.builder.Build(),
		declaredWeighted:    b.weighted,
		hasDeclaredWeighted: true,
	}, nil
}

func parseStateID(field string, lineNo int, line string) (StateID, error) {
	n, err := strconv.ParseUint(field, 10, 32)
	if err != nil {
		return 0, &MalformedRecordError{Line: lineNo, Text: line}
	}
	return StateID(n), nil
}

// EncodeATT writes t in the AT&T tabular format, the inverse of
// ParseATT. Final-state records are emitted before transitions, final
// states and transitions are both emitted in ascending state-id order,
// matching the enumeration order of the teacher's streaming readers.
func (t *Transducer) EncodeATT(w io.Writer) error {
	bw := bufio.NewWriter(w)

	finals := make([]StateID, 0, len(t.store.finalWeights))
	for id := range t.store.finalWeights {
		finals = append(finals, id)
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i] < finals[j] })

	for _, id := range finals {
		weight := t.store.finalWeights[id]
		if weight == 0 {
			fmt.Fprintf(bw, "%d\n", id)
		} else {
			fmt.Fprintf(bw, "%d\t%s\n", id, formatWeight(weight))
		}
	}

	for src := 0; src < t.store.NumStates(); src++ {
		for _, tr := range t.store.TransitionsFrom(StateID(src)) {
			in := t.symtab.TextOf(tr.InputSymbol)
			out := t.symtab.TextOf(tr.OutputSymbol)
			if tr.Weight == 0 {
				fmt.Fprintf(bw, "%d\t%d\t%s\t%s\n", src, tr.Target, in, out)
			} else {
				fmt.Fprintf(bw, "%d\t%d\t%s\t%s\t%s\n", src, tr.Target, in, out, formatWeight(tr.Weight))
			}
		}
	}

	return bw.Flush()
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
