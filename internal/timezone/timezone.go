// Package timezone converts caller-supplied local datetimes to UTC instants
// and back. All persisted times are UTC; the display timezone is a per-request
// IANA identifier such as "Asia/Kolkata".
package timezone

import (
	"strings"
	"time"
	_ "time/tzdata"

	"classbook/internal/apperr"
)

// Accepted input layouts. Offset-carrying values are converted; bare values
// are interpreted as local time in the requested zone.
var (
	offsetLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
)

// Load resolves an IANA identifier against the embedded catalog.
func Load(tzID string) (*time.Location, error) {
	if strings.TrimSpace(tzID) == "" {
		return nil, apperr.Newf(apperr.KindInvalidTimezone, "timezone must not be empty")
	}
	loc, err := time.LoadLocation(tzID)
	if err != nil {
		return nil, apperr.Newf(apperr.KindInvalidTimezone, "invalid timezone: %s", tzID).With("timezone", tzID)
	}
	return loc, nil
}

// Validate reports whether tzID is a recognized IANA identifier.
func Validate(tzID string) error {
	_, err := Load(tzID)
	return err
}

// NormalizeToUTC parses value and returns the equivalent UTC instant. If the
// value carries an offset it is converted; otherwise it is interpreted as
// local time in tzID.
func NormalizeToUTC(value string, tzID string) (time.Time, error) {
	loc, err := Load(tzID)
	if err != nil {
		return time.Time{}, err
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperr.New(apperr.KindInvalidDatetime, "datetime must not be empty")
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, apperr.Newf(apperr.KindInvalidDatetime, "invalid datetime format: %s", value).With("value", value)
}

// Localize converts a stored UTC instant to the requested display timezone.
func Localize(t time.Time, tzID string) (time.Time, error) {
	loc, err := Load(tzID)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}
