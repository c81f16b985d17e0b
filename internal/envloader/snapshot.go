package envloader

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"slices"
)

// Snapshot maps each recognized key to its resolved value. A Snapshot
// returned by Loader.EnvironmentVariables always holds all of Keys.
type Snapshot map[string]string

func (s Snapshot) URL() string          { return s[KeyURL] }
func (s Snapshot) ValidEmail() string   { return s[KeyValidEmail] }
func (s Snapshot) InvalidEmail() string { return s[KeyInvalidEmail] }
func (s Snapshot) Password() string     { return s[KeyPassword] }

const redacted = "********"

// Redacted returns a copy with the password masked, safe for logs.
func (s Snapshot) Redacted() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	if _, ok := out[KeyPassword]; ok {
		out[KeyPassword] = redacted
	}
	return out
}

// LogValue lists the keys in declaration order with the password masked.
func (s Snapshot) LogValue() slog.Value {
	r := s.Redacted()
	attrs := make([]slog.Attr, 0, len(Keys))
	for _, k := range Keys {
		if v, ok := r[k]; ok {
			attrs = append(attrs, slog.String(k, v))
		}
	}
	return slog.GroupValue(attrs...)
}

// MarshalJSON writes Keys in declaration order, followed by any other
// keys sorted by name.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	order := make([]string, 0, len(s))
	for _, k := range Keys {
		if _, ok := s[k]; ok {
			order = append(order, k)
		}
	}
	var extra []string
	for k := range s {
		if !slices.Contains(Keys, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
