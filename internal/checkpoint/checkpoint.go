package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

// LastQueryExecutionIDKey is the only field of the checkpoint document the
// exporter interprets. Every other field is carried through untouched.
const LastQueryExecutionIDKey = "last_query_execution_id"

// Checkpoint is the persisted progress marker. The zero value is an empty
// checkpoint.
type Checkpoint struct {
	doc map[string]any
}

// New returns an empty checkpoint.
func New() *Checkpoint {
	return &Checkpoint{}
}

// LastQueryExecutionID returns the newest exported execution ID, or "" when
// none has been recorded.
func (c *Checkpoint) LastQueryExecutionID() string {
	if c == nil {
		return ""
	}
	id, _ := c.doc[LastQueryExecutionIDKey].(string)
	return id
}

// WithLastQueryExecutionID returns a copy of c with the execution ID merged in.
func (c *Checkpoint) WithLastQueryExecutionID(id string) *Checkpoint {
	doc := make(map[string]any, len(c.fields())+1)
	maps.Copy(doc, c.fields())
	doc[LastQueryExecutionIDKey] = id
	return &Checkpoint{doc: doc}
}

// Field returns an arbitrary field of the document.
func (c *Checkpoint) Field(name string) (any, bool) {
	v, ok := c.fields()[name]
	return v, ok
}

func (c *Checkpoint) fields() map[string]any {
	if c == nil {
		return nil
	}
	return c.doc
}

// MarshalJSON implements json.Marshaler.
func (c *Checkpoint) MarshalJSON() ([]byte, error) {
	doc := c.fields()
	if doc == nil {
		doc = map[string]any{LastQueryExecutionIDKey: nil}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are kept as json.Number
// so that they are written back exactly as read.
func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid checkpoint document: %w", err)
	}
	if v, ok := doc[LastQueryExecutionIDKey]; ok && v != nil {
		if _, isString := v.(string); !isString {
			return fmt.Errorf("invalid checkpoint document: %s must be a string, got %T", LastQueryExecutionIDKey, v)
		}
	}
	c.doc = doc
	return nil
}
