package sidecar

type (
	// Pair is one key/value property.
	Pair struct {
		Key   string
		Value string
	}
	// Malformed describes a line that could not be read as a property.
	Malformed struct {
		Line int
		Text string
	}
	// Record is one sidecar file: its properties in file order and the index of
	// the tree entry it was read from.
	Record struct {
		Entry     int
		Path      string
		Kind      Kind
		Encoding  Encoding
		Malformed []Malformed

		pairs []Pair
		index map[string]int
	}
)

// NewRecord returns an empty record bound to the tree entry at index entry.
func NewRecord(entry int, path string, kind Kind) *Record {
	return &Record{
		Entry: entry,
		Path:  path,
		Kind:  kind,
		index: make(map[string]int),
	}
}

// Set stores value under key. A new key is appended; an existing key keeps its
// position and only its value changes.
func (r *Record) Set(key, value string) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[key]; ok {
		r.pairs[i].Value = value
		return
	}
	r.index[key] = len(r.pairs)
	r.pairs = append(r.pairs, Pair{Key: key, Value: value})
}

func (r *Record) Len() int {
	return len(r.pairs)
}

// All iterates the properties in insertion order.
func (r *Record) All(yield func(key, value string) bool) {
	for _, p := range r.pairs {
		if !yield(p.Key, p.Value) {
			return
		}
	}
}

// Pairs returns a copy of the properties in insertion order.
func (r *Record) Pairs() []Pair {
	out := make([]Pair, len(r.pairs))
	copy(out, r.pairs)
	return out
}
