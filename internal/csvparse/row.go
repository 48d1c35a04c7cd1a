package csvparse

import (
	"bytes"
	"encoding/json"
)

// Row is one parsed data line: an ordered mapping from column name to Field.
//
// Keys follow header order, with extra_<k> keys appended for surplus fields.
// A Row is not modified after the parser returns it.
type Row struct {
	keys   []string
	fields []Field
	index  map[string]int
}

func newRow(capacity int) Row {
	return Row{
		keys:   make([]string, 0, capacity),
		fields: make([]Field, 0, capacity),
		index:  make(map[string]int, capacity),
	}
}

func (r *Row) set(key string, f Field) {
	r.index[key] = len(r.keys)
	r.keys = append(r.keys, key)
	r.fields = append(r.fields, f)
}

func (r *Row) has(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Len returns the number of keys in the row.
func (r Row) Len() int {
	return len(r.keys)
}

// Keys returns the column names in order.
func (r Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Fields returns the fields in key order.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the field stored under key.
func (r Row) Get(key string) (Field, bool) {
	i, ok := r.index[key]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// Value returns the text under key. The boolean is false when the key is
// unknown or the field is absent.
func (r Row) Value(key string) (string, bool) {
	f, ok := r.Get(key)
	if !ok {
		return "", false
	}
	return f.Value()
}

// Map returns the row as a plain map. Absent fields map to nil.
func (r Row) Map() map[string]*string {
	out := make(map[string]*string, len(r.keys))
	for i, k := range r.keys {
		if r.fields[i].IsAbsent() {
			out[k] = nil
			continue
		}
		text := r.fields[i].Text
		out[k] = &text
	}
	return out
}

// Equal reports whether two rows have the same keys, order and fields.
func (r Row) Equal(other Row) bool {
	if len(r.keys) != len(other.keys) {
		return false
	}
	for i := range r.keys {
		if r.keys[i] != other.keys[i] || r.fields[i] != other.fields[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the row as a JSON object in key order, with null for
// absent fields.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if r.fields[i].IsAbsent() {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(r.fields[i].Text)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Table is the ordered sequence of rows parsed from one input.
type Table struct {
	// Header holds the column names, trimmed, in source order.
	Header []string `json:"header"`
	Rows   []Row    `json:"rows"`
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}
