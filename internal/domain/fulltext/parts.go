package fulltext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Text maps a fulltext bucket (e.g. "h1", "text") to its text.
type Text map[string]string

// Parts is the ordered set of fulltext contributions held by a fulltext root,
// keyed by contributing node identifier. Order is insertion order; replacing
// an existing key keeps its position.
type Parts struct {
	ids  []string
	byID map[string]Text
}

// Len returns the number of parts.
func (p Parts) Len() int { return len(p.ids) }

// IDs returns contributor identifiers in insertion order.
func (p Parts) IDs() []string { return append([]string(nil), p.ids...) }

// Get returns the part of one contributor.
func (p Parts) Get(id string) (Text, bool) {
	t, ok := p.byID[id]
	return t, ok
}

// With returns a copy with id set to t.
func (p Parts) With(id string, t Text) Parts {
	out := p.clone()
	if _, ok := out.byID[id]; !ok {
		out.ids = append(out.ids, id)
	}
	out.byID[id] = t
	return out
}

// Without returns a copy with id removed.
func (p Parts) Without(id string) Parts {
	out := p.clone()
	if _, ok := out.byID[id]; !ok {
		return out
	}
	delete(out.byID, id)
	for i, v := range out.ids {
		if v == id {
			out.ids = append(out.ids[:i], out.ids[i+1:]...)
			break
		}
	}
	return out
}

func (p Parts) clone() Parts {
	out := Parts{
		ids:  append([]string(nil), p.ids...),
		byID: make(map[string]Text, len(p.byID)),
	}
	for k, v := range p.byID {
		out.byID[k] = v
	}
	return out
}

// MarshalJSON writes parts as a JSON object in insertion order.
func (p Parts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range p.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.byID[id])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order.
func (p *Parts) UnmarshalJSON(data []byte) error {
	*p = Parts{}
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fulltext parts: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fulltext parts: expected key, got %v", tok)
		}
		var t Text
		if err := dec.Decode(&t); err != nil {
			return fmt.Errorf("fulltext parts: part %q: %w", id, err)
		}
		*p = p.With(id, t)
	}
	_, err = dec.Token()
	return err
}

// PartsFrom converts a decoded document value into Parts. Plain maps carry no
// order, so their keys are taken in sorted order.
func PartsFrom(v any) (Parts, error) {
	switch x := v.(type) {
	case nil:
		return Parts{}, nil
	case Parts:
		return x, nil
	case *Parts:
		if x == nil {
			return Parts{}, nil
		}
		return *x, nil
	case map[string]Text:
		out := Parts{}
		for _, id := range sortedKeys(x) {
			out = out.With(id, x[id])
		}
		return out, nil
	case map[string]any:
		out := Parts{}
		for _, id := range sortedKeys(x) {
			t, err := TextFrom(x[id])
			if err != nil {
				return Parts{}, fmt.Errorf("part %q: %w", id, err)
			}
			out = out.With(id, t)
		}
		return out, nil
	default:
		return Parts{}, fmt.Errorf("unsupported fulltext parts value %T", v)
	}
}

// TextFrom converts a decoded document value into Text.
func TextFrom(v any) (Text, error) {
	switch x := v.(type) {
	case nil:
		return Text{}, nil
	case Text:
		return x, nil
	case map[string]string:
		return Text(x), nil
	case map[string]any:
		out := make(Text, len(x))
		for k, val := range x {
			switch s := val.(type) {
			case string:
				out[k] = s
			case nil:
				out[k] = ""
			default:
				out[k] = fmt.Sprint(s)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported fulltext value %T", v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Update is a single contributor's change to a root's parts.
type Update struct {
	Identifier string
	Fulltext   Text
	Remove     bool
}

// NewUpdate builds the update for a contributing node. Removed, hidden and
// empty contributions remove the contributor's part.
func NewUpdate(identifier string, fulltext Text, removed, hidden bool) Update {
	return Update{
		Identifier: identifier,
		Fulltext:   fulltext,
		Remove:     removed || hidden || len(fulltext) == 0,
	}
}

// Apply returns the parts after the update.
func (p Parts) Apply(u Update) Parts {
	if u.Remove {
		return p.Without(u.Identifier)
	}
	return p.With(u.Identifier, u.Fulltext)
}

// Aggregate recomputes the aggregated fulltext from scratch: per bucket, the
// trimmed values of all parts joined by a single space in part order.
func Aggregate(p Parts) Text {
	out := Text{}
	for _, id := range p.ids {
		part := p.byID[id]
		for _, bucket := range sortedKeys(part) {
			value := strings.TrimSpace(part[bucket])
			if acc, ok := out[bucket]; ok {
				out[bucket] = acc + " " + value
			} else {
				out[bucket] = value
			}
		}
	}
	return out
}
