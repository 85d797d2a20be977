package graph

import (
	"strings"
	"time"
)

// timestampLayouts are tried in order. The graph service may omit the zone,
// in which case the value is taken as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a server-assigned instant that tolerates zone-less encodings.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// MarshalJSON encodes the instant as RFC 3339 in UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(time.RFC3339Nano) + `"`), nil
}

// UnmarshalJSON accepts RFC 3339 and zone-less ISO 8601 strings. null
// leaves the zero value.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}
