package dictionary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/portalcore/pkg/dag"
	"github.com/matzehuels/portalcore/pkg/errors"
)

// Link is a declared relationship of an entry. A link either points at a
// target type or groups further links under Subgroup; it may do both.
type Link struct {
	Name         string `json:"name,omitempty"`
	Label        string `json:"label,omitempty"`
	TargetType   string `json:"target_type,omitempty"`
	Backref      string `json:"backref,omitempty"`
	Multiplicity string `json:"multiplicity,omitempty"`
	Required     *bool  `json:"required,omitempty"`
	Exclusive    *bool  `json:"exclusive,omitempty"`
	Subgroup     []Link `json:"subgroup,omitempty"`
}

// Entry is one type of the dictionary.
type Entry struct {
	ID          string         `json:"id"`
	Title       string         `json:"title,omitempty"`
	Type        string         `json:"type,omitempty"`
	Category    string         `json:"category,omitempty"`
	Description string         `json:"description,omitempty"`
	Required    []string       `json:"required,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Links       []Link         `json:"links,omitempty"`
}

// Dictionary is the ordered set of entries keyed by type ID. Key order
// is the order entries appear in the source document and drives the
// order of graph nodes.
type Dictionary struct {
	keys    []string
	entries map[string]Entry
}

// New returns a dictionary holding entries in the given order. Entries
// without an ID are skipped.
func New(entries ...Entry) *Dictionary {
	d := &Dictionary{}
	for _, e := range entries {
		if e.ID != "" {
			d.Set(e.ID, e)
		}
	}
	return d
}

// Len returns the number of entries.
func (d *Dictionary) Len() int { return len(d.keys) }

// Keys returns the entry keys in order.
func (d *Dictionary) Keys() []string { return append([]string(nil), d.keys...) }

// Get returns the entry stored under key.
func (d *Dictionary) Get(key string) (Entry, bool) {
	e, ok := d.entries[key]
	return e, ok
}

// Set stores e under key, keeping the position of an existing key.
func (d *Dictionary) Set(key string, e Entry) {
	if d.entries == nil {
		d.entries = make(map[string]Entry)
	}
	if _, ok := d.entries[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.entries[key] = e
}

// UnmarshalJSON reads a dictionary document. Keys beginning with "_"
// (definitions, settings, terms) and values that are not objects are
// skipped. An entry without an id takes its key.
func (d *Dictionary) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New(errors.ErrCodeInvalidDictionary, "dictionary must be a JSON object")
	}
	out := Dictionary{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("entry %q: %w", key, err)
		}
		if strings.HasPrefix(key, "_") || !isObject(raw) {
			continue
		}
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDictionary, err, "entry %q", key)
		}
		if e.ID == "" {
			e.ID = key
		}
		out.Set(key, e)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = out
	return nil
}

// MarshalJSON writes the entries in key order.
func (d Dictionary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(d.entries[key])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Read decodes a dictionary document from r.
func Read(r io.Reader) (*Dictionary, error) {
	var d Dictionary
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	return &d, nil
}

// ReadFile decodes the dictionary stored at path.
func ReadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Counts maps "_<type>_count" keys to observed record counts.
type Counts map[string]int

// CountKey returns the Counts key for a type.
func CountKey(id string) string { return "_" + id + "_count" }

// Count returns the observed count for a type, zero when unknown.
func (c Counts) Count(id string) int { return c[CountKey(id)] }

// Links maps "<source>_<link>_to_<target>_link" keys to the number of
// observed records realizing that link.
type Links map[string]int

// LinkKey returns the Links key for an edge.
func LinkKey(source, name, target string) string {
	return source + "_" + name + "_to_" + target + "_link"
}

// Exists reports whether data populates the link. Nil means the link
// was not observed at all.
func (l Links) Exists(source, name, target string) *bool {
	n, ok := l[LinkKey(source, name, target)]
	if !ok {
		return nil
	}
	exists := n != 0
	return &exists
}

// Flatten expands subgroups into leaf links. A leaf inherits the name,
// label and required flag of its enclosing link when it sets none of its
// own. A link with both a target and a subgroup yields itself and its
// leaves.
func Flatten(links []Link) []dag.Link {
	var out []dag.Link
	for _, l := range links {
		out = appendLeaves(out, l)
	}
	return out
}

func appendLeaves(out []dag.Link, l Link) []dag.Link {
	if l.TargetType != "" {
		out = append(out, dag.Link{
			Name:     l.Name,
			Label:    l.Label,
			Target:   l.TargetType,
			Required: l.Required != nil && *l.Required,
		})
	}
	for _, sub := range l.Subgroup {
		if sub.Name == "" {
			sub.Name = l.Name
		}
		if sub.Label == "" {
			sub.Label = l.Label
		}
		if sub.Required == nil {
			sub.Required = l.Required
		}
		out = appendLeaves(out, sub)
	}
	return out
}
