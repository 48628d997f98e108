package csvloader

import (
	"encoding/json"
	"fmt"
	"io"
)

// Action is the bulk operation descriptor preceding each document.
type Action struct {
	Index ActionMeta `json:"index"`
}

// ActionMeta names the target of a bulk index operation. Type is omitted
// when empty since Elasticsearch 8 rejects mapping types.
type ActionMeta struct {
	Index string `json:"_index"`
	Type  string `json:"_type,omitempty"`
}

// Payload is the body of a bulk request: Action and Record values strictly
// alternating, one pair per document.
type Payload []interface{}

// BuildPayload pairs every record with an index action for indexName.
func BuildPayload(records []Record, indexName, docType string) Payload {
	p := make(Payload, 0, 2*len(records))
	for _, rec := range records {
		p = append(p, Action{Index: ActionMeta{Index: indexName, Type: docType}}, rec)
	}
	return p
}

// Len returns the number of documents in the payload.
func (p Payload) Len() int { return len(p) / 2 }

// Encode writes the payload as newline-delimited JSON, one entry per line.
func (p Payload) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, entry := range p {
		if err := enc.Encode(entry); err != nil {
			return fmt.Errorf("encoding bulk line %d: %w", i+1, err)
		}
	}
	return nil
}
