package ingest

import "time"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a client-supplied event time. An empty or
// unparseable value falls back to the receipt time, never an error.
func ParseTimestamp(ts string, receivedAt time.Time) time.Time {
	if ts == "" {
		return receivedAt
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}

	return receivedAt
}
