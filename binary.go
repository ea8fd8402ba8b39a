package kfst

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/ulikunitz/xz/lzma"
)

var kfstMagic = [4]byte{'K', 'F', 'S', 'T'}

const binaryVersion = uint16(0)

// ParseBinary reads the compact KFST binary format (§4.3.2): a fixed
// header, an explicit symbol section addressed by position, and an
// LZMA-compressed payload of transitions and final-state records.
func ParseBinary(r io.Reader) (*Transducer, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("kfst: reading magic: %w", errOrTruncated(err))
	}
	if magic != kfstMagic {
		return nil, ErrBadMagic
	}

	version, err := readU16(br)
	if err != nil {
		return nil, err
	}
	if version != binaryVersion {
		return nil, ErrUnsupportedVersion
	}

	numSymbols, err := readU16(br)
	if err != nil {
		return nil, err
	}
	numStates, err := readU32(br)
	if err != nil {
		return nil, err
	}
	numFinal, err := readU32(br)
	if err != nil {
		return nil, err
	}
	weightedByte, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("kfst: reading weighted flag: %w", ErrTruncated)
	}
	weighted := weightedByte != 0

	symtab := newRawSymbolTable()
	for i := 0; i < int(numSymbols); i++ {
		text, err := br.ReadString(0)
		if err != nil {
			return nil, fmt.Errorf("kfst: reading symbol %d: %w", i, ErrTruncated)
		}
		text = text[:len(text)-1] // drop the NUL terminator
		if _, err := symtab.internRaw(text); err != nil {
			return nil, err
		}
	}
	if symtab.Len() > 0 && symtab.TextOf(0) != "@0@" {
		return nil, &MalformedRecordError{Line: -1, Text: symtab.TextOf(0)}
	}

	tracer().Debugf("kfst: binary header: %d symbols, %d states, %d final states, weighted=%v",
		numSymbols, numStates, numFinal, weighted)

	lr, err := lzma.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("kfst: opening lzma payload: %w", err)
	}
	payload, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("kfst: decompressing payload: %w", err)
	}
	tracer().Debugf("kfst: decompressed payload: %d bytes", len(payload))

	transRecordSize := 12
	finalRecordSize := 4
	if weighted {
		transRecordSize += 8
		finalRecordSize += 8
	}

	finalBytes := int(numFinal) * finalRecordSize
	if finalBytes > len(payload) {
		return nil, ErrTruncated
	}
	transBytes := len(payload) - finalBytes
	if transBytes%transRecordSize != 0 {
		return nil, ErrTruncated
	}
	numTransitions := transBytes / transRecordSize

	builder := newStoreBuilder()
	builder.ForceStateCount(int(numStates))

	off := 0
	for i := 0; i < numTransitions; i++ {
		src := StateID(binary.LittleEndian.Uint32(payload[off:]))
		dst := StateID(binary.LittleEndian.Uint32(payload[off+4:]))
		in := SymbolID(binary.LittleEndian.Uint16(payload[off+8:]))
		out := SymbolID(binary.LittleEndian.Uint16(payload[off+10:]))
		off += 12
		weight := 0.0
		if weighted {
			weight = math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
			off += 8
		}
		if int(in) >= symtab.Len() {
			return nil, &UnknownSymbolError{ID: in}
		}
		if int(out) >= symtab.Len() {
			return nil, &UnknownSymbolError{ID: out}
		}
		builder.AddTransition(src, Transition{Target: dst, InputSymbol: in, OutputSymbol: out, Weight: weight})
	}

	for i := 0; i < int(numFinal); i++ {
		state := StateID(binary.LittleEndian.Uint32(payload[off:]))
		off += 4
		weight := 0.0
		if weighted {
			weight = math.Float64frombits(binary.LittleEndian.Uint64(payload[off:]))
			off += 8
		}
		builder.SetFinal(state, weight)
	}

	store := builder.Build()
	tracer().Infof("kfst: loaded binary transducer: %d states, %d transitions, %d final states",
		store.NumStates(), store.NumTransitions(), len(store.finalWeights))
	return &Transducer{
		symtab:              symtab,
		store:               store,
		declaredWeighted:    weighted,
		hasDeclaredWeighted: true,
	}, nil
}

// EncodeBinary writes t in the compact KFST binary format, the inverse
// of ParseBinary. Transitions and final states are emitted in
// ascending source/state order, each state's transitions in the
// store's preserved original order (§4.2).
func (t *Transducer) EncodeBinary(w io.Writer) error {
	symbols := t.symtab.Symbols()
	if len(symbols) > 0xFFFF {
		return fmt.Errorf("kfst: %d symbols exceeds the binary format's 16-bit symbol count field", len(symbols))
	}

	weighted := t.Stats().Weighted

	bw := bufio.NewWriter(w)
	bw.Write(kfstMagic[:])
	writeU16(bw, binaryVersion)
	writeU16(bw, uint16(len(symbols)))
	writeU32(bw, uint32(t.store.NumStates()))
	writeU32(bw, uint32(len(t.store.finalWeights)))
	if weighted {
		bw.WriteByte(1)
	} else {
		bw.WriteByte(0)
	}
	for _, s := range symbols {
		bw.WriteString(s)
		bw.WriteByte(0)
	}

	var payload []byte
	var rec [20]byte
	for src := 0; src < t.store.NumStates(); src++ {
		for _, tr := range t.store.TransitionsFrom(StateID(src)) {
			binary.LittleEndian.PutUint32(rec[0:], uint32(src))
			binary.LittleEndian.PutUint32(rec[4:], uint32(tr.Target))
			binary.LittleEndian.PutUint16(rec[8:], uint16(tr.InputSymbol))
			binary.LittleEndian.PutUint16(rec[10:], uint16(tr.OutputSymbol))
			n := 12
			if weighted {
				binary.LittleEndian.PutUint64(rec[12:], math.Float64bits(tr.Weight))
				n = 20
			}
			payload = append(payload, rec[:n]...)
		}
	}

	finals := make([]StateID, 0, len(t.store.finalWeights))
	for id := range t.store.finalWeights {
		finals = append(finals, id)
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i] < finals[j] })
	for _, id := range finals {
		binary.LittleEndian.PutUint32(rec[0:], uint32(id))
		n := 4
		if weighted {
			binary.LittleEndian.PutUint64(rec[4:], math.Float64bits(t.store.finalWeights[id]))
			n = 12
		}
		payload = append(payload, rec[:n]...)
	}

	lw, err := lzma.NewWriter(bw)
	if err != nil {
		return fmt.Errorf("kfst: opening lzma payload: %w", err)
	}
	if _, err := lw.Write(payload); err != nil {
		return err
	}
	if err := lw.Close(); err != nil {
		return err
	}

	return bw.Flush()
}

func errOrTruncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return err
}

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errOrTruncated(err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errOrTruncated(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeU16(w io.Writer, v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	w.Write(buf[:])
}

func writeU32(w io.Writer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}

