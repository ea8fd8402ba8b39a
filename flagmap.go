package kfst

// flagEntry is the value half of a flag-state binding: either a positive
// tag ("F is V", negative=false) or a negative tag ("F is anything but V",
// negative=true), per §3's "Flag State" and §4.4.4's P/N operators.
type flagEntry struct {
	negative bool
	value    string
	cleared  bool // tombstone written by the C operator
}

// flagMap is a persistent, copy-on-branch mapping from feature name to
// flagEntry (§3 Flag State, §5). Each write (set/clear) allocates one new
// node that points at its parent; branches that never touch a given key
// keep sharing the ancestor's node for it, which is the
// "persistent/immutable maps with structural sharing" shape §5
// recommends in place of copying the whole map at every branch point.
//
// A nil *flagMap is the empty map.
type flagMap struct {
	key    string
	entry  flagEntry
	parent *flagMap
}

// get walks the overlay chain for key, stopping at the first node that
// mentions it (a tombstone counts as "mentioned" and reports not-found).
func (m *flagMap) get(key string) (flagEntry, bool) {
	for n := m; n != nil; n = n.parent {
		if n.key == key {
			if n.entry.cleared {
				return flagEntry{}, false
			}
			return n.entry, true
		}
	}
	return flagEntry{}, false
}

// set returns a new map with key bound to entry, sharing the rest of the
// chain with m.
func (m *flagMap) set(key string, entry flagEntry) *flagMap {
	return &flagMap{key: key, entry: entry, parent: m}
}

// clear returns a new map with key removed (via tombstone), sharing the
// rest of the chain with m.
func (m *flagMap) clear(key string) *flagMap {
	return &flagMap{key: key, entry: flagEntry{cleared: true}, parent: m}
}

// testFlag implements the stored-vs-queried-value comparison used by the
// R and D operators (§4.4.4): a positive binding matches only the exact
// value; a negative binding matches any value other than the tagged one.
func testFlag(stored flagEntry, queried string) bool {
	if !stored.negative {
		return stored.value == queried
	}
	return stored.value != queried
}

// applyFlag evaluates a flag-diacritic transition against flags and
// returns the successor flag state, or ok=false if the flag's
// precondition failed and the transition must not fire (§4.4.4). Flags
// whose preconditions always hold (P, N, C) never return ok=false.
func applyFlag(info FlagInfo, flags *flagMap) (*flagMap, bool) {
	switch info.Op {
	case 'P':
		return flags.set(info.Feature, flagEntry{negative: false, value: info.Value}), true

	case 'N':
		return flags.set(info.Feature, flagEntry{negative: true, value: info.Value}), true

	case 'C':
		return flags.clear(info.Feature), true

	case 'R':
		stored, found := flags.get(info.Feature)
		if !found {
			return flags, false
		}
		if info.HasValue && !testFlag(stored, info.Value) {
			return flags, false
		}
		return flags, true

	case 'D':
		stored, found := flags.get(info.Feature)
		if !found {
			return flags, true
		}
		if info.HasValue && !testFlag(stored, info.Value) {
			return flags, true
		}
		return flags, false

	case 'U':
		stored, found := flags.get(info.Feature)
		if !found || testFlag(stored, info.Value) {
			return flags.set(info.Feature, flagEntry{negative: false, value: info.Value}), true
		}
		return flags, false
	}

	assert(false, "kfst: unknown flag operator")
	return flags, false
}

// fingerprint returns a value suitable for cycle-protection membership
// tests (§4.4.3): equal flag maps (by effective contents, ignoring
// shadowed/tombstoned writes and independent of the order keys happened
// to be written in) must produce equal fingerprints. Computing it walks
// the whole chain, which is acceptable since flag state is small in
// practice (§5).
func (m *flagMap) fingerprint() uint64 {
	seen := make(map[string]bool)
	var acc uint64
	for n := m; n != nil; n = n.parent {
		if seen[n.key] {
			continue
		}
		seen[n.key] = true
		if n.entry.cleared {
			continue
		}
		tag := byte('P')
		if n.entry.negative {
			tag = 'N'
		}
		// XOR-combine per-entry hashes so the result does not depend on
		// the order in which the chain happens to list its keys.
		acc ^= fnv64a(n.key, tag, n.entry.value)
	}
	return acc
}

func fnv64a(key string, tag byte, value string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	mix := func(s string) {
		for i := 0; i < len(s); i++ {
			h ^= uint64(s[i])
			h *= prime64
		}
	}
	mix(key)
	h ^= uint64(tag)
	h *= prime64
	mix(value)
	return h
}
