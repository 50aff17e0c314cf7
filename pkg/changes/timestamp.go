package changes

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

// ParseTimestamp parses an ISO-8601 like commit timestamp.
//
// Timestamps without a zone are taken to be UTC so the result always carries a location.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "unrecognised timestamp format")
	}
	return t, nil
}
