package record

// Record is an insertion-ordered map from string keys to Values.
//
// Setting an existing key replaces its value in place; the key keeps the
// position of its first insertion.
type Record struct {
	keys []string
	vals map[string]Value
}

// NewRecord returns an empty Record with room for n keys.
func NewRecord(n int) *Record {
	return &Record{
		keys: make([]string, 0, n),
		vals: make(map[string]Value, n),
	}
}

// FromPairs builds a Record from alternating key/value arguments. It is a
// convenience for literals in tests and fixed diagnostic payloads.
func FromPairs(kv ...any) *Record {
	r := NewRecord(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, _ := kv[i].(string)
		r.Set(k, From(kv[i+1]))
	}
	return r
}

// Set stores v under k.
func (r *Record) Set(k string, v Value) {
	if _, ok := r.vals[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.vals[k] = v
}

// Get returns the value stored under k.
func (r *Record) Get(k string) (Value, bool) {
	if r == nil {
		return Value{}, false
	}
	v, ok := r.vals[k]
	return v, ok
}

// Has reports whether k is present.
func (r *Record) Has(k string) bool {
	_, ok := r.Get(k)
	return ok
}

// Len returns the number of keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Each calls fn for every entry in insertion order until fn returns false.
func (r *Record) Each(fn func(k string, v Value) bool) {
	if r == nil {
		return
	}
	for _, k := range r.keys {
		if !fn(k, r.vals[k]) {
			return
		}
	}
}

// Equal reports whether r and o hold the same keys, in the same order, with
// deeply equal values.
func (r *Record) Equal(o *Record) bool {
	if r.Len() != o.Len() {
		return false
	}
	if r.Len() == 0 {
		return true
	}
	for i, k := range r.keys {
		if o.keys[i] != k {
			return false
		}
		if !Equal(r.vals[k], o.vals[k]) {
			return false
		}
	}
	return true
}

// From converts plain Go values into a Value. It understands nil, bool,
// string, the integer and float types, Value, *Record, []Value, []any and
// Dataset. Unknown types become null.
func From(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case *Record:
		return Object(t)
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case []Value:
		return Array(t...)
	case Dataset:
		return Array(t...)
	case []any:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			out = append(out, From(e))
		}
		return Array(out...)
	default:
		return Null()
	}
}
