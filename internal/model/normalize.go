package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// now stamps notes that arrive without a timestamp.
var now = func() time.Time { return time.Now().UTC() }

// Tags is a set of labels kept in first-seen order. Duplicates are detected
// case-insensitively.
type Tags []string

// Note is a free-text note with the time it was written.
type Note struct {
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Notes is an ordered sequence of notes.
type Notes []Note

// Texts returns the note bodies in order.
func (n Notes) Texts() []string {
	out := make([]string, len(n))
	for i, note := range n {
		out[i] = note.Text
	}
	return out
}

// NormalizeTags trims entries, drops blanks, and removes case-insensitive
// duplicates while keeping the first spelling.
func NormalizeTags(in []string) Tags {
	out := make(Tags, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	folder := cases.Fold()
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := folder.String(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ParseTags splits a comma-separated tag string.
func ParseTags(s string) Tags {
	return NormalizeTags(strings.Split(s, ","))
}

// ParseNotes splits newline-separated text into timestamped notes.
func ParseNotes(s string) Notes {
	var out Notes
	ts := now()
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, Note{Text: line, Timestamp: ts})
	}
	return out
}

// UnmarshalJSON accepts either a comma-separated string or an array of strings.
func (t *Tags) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = Tags{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode tags string")
		}
		*t = ParseTags(s)
	default:
		var ss []string
		if err := json.Unmarshal(data, &ss); err != nil {
			return eris.Wrap(err, "model: decode tags array")
		}
		*t = NormalizeTags(ss)
	}
	return nil
}

// UnmarshalYAML accepts either a comma-separated scalar or a sequence.
func (t *Tags) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*t = ParseTags(value.Value)
	case yaml.SequenceNode:
		var ss []string
		if err := value.Decode(&ss); err != nil {
			return eris.Wrap(err, "model: decode tags sequence")
		}
		*t = NormalizeTags(ss)
	default:
		return eris.Errorf("model: unsupported tags node kind %d", value.Kind)
	}
	return nil
}

// UnmarshalJSON accepts a newline-separated string, an array of strings, an
// array of {text, timestamp} objects, or a mix of the two element shapes.
func (n *Notes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Notes{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode notes string")
		}
		*n = ParseNotes(s)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return eris.Wrap(err, "model: decode notes array")
	}
	out := make(Notes, 0, len(items))
	for _, raw := range items {
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '"' {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return eris.Wrap(err, "model: decode note string")
			}
			out = append(out, ParseNotes(s)...)
			continue
		}
		var note Note
		if err := json.Unmarshal(raw, &note); err != nil {
			return eris.Wrap(err, "model: decode note object")
		}
		note.appendTo(&out)
	}
	*n = out
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML seed files.
func (n *Notes) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*n = ParseNotes(value.Value)
		return nil
	case yaml.SequenceNode:
	default:
		return eris.Errorf("model: unsupported notes node kind %d", value.Kind)
	}

	out := make(Notes, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind == yaml.ScalarNode {
			out = append(out, ParseNotes(item.Value)...)
			continue
		}
		var note Note
		if err := item.Decode(&note); err != nil {
			return eris.Wrap(err, "model: decode note mapping")
		}
		note.appendTo(&out)
	}
	*n = out
	return nil
}

// appendTo adds the note when it has text, stamping a missing timestamp.
func (note Note) appendTo(out *Notes) {
	note.Text = strings.TrimSpace(note.Text)
	if note.Text == "" {
		return
	}
	if note.Timestamp.IsZero() {
		note.Timestamp = now()
	}
	*out = append(*out, note)
}
