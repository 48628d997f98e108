package csvloader

import (
	"bytes"
	"encoding/json"
)

// Field is a single named value of a Record.
type Field struct {
	Name  string
	Value string
}

// Record represents one data row of the input file as an ordered list of
// fields. Values are kept as raw text.
type Record struct {
	fields []Field
}

// Set assigns value to name. An existing field keeps its position.
func (r *Record) Set(name, value string) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the value stored under name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Len returns the number of fields in the record.
func (r Record) Len() int { return len(r.fields) }

// Fields returns a copy of the record's fields in header order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// MarshalJSON encodes the record as a JSON object whose keys follow header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
