package encoders

import (
	"strings"
	"time"

	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/pkg/errors"
)

// DefaultTimeZone is the zone trip timestamps are converted into before temporal features are extracted.
const DefaultTimeZone = "America/New_York"

// timestampLayouts are tried in order when a timestamp column holds strings.
var timestampLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05.999999999 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses a trip timestamp. Timestamps without zone information are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		t, err = time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(err, "unrecognised timestamp %q", s)
}

// TimeFeatures extracts the day of week (Monday is 0), hour, month and year of a timestamp column.
type TimeFeatures struct {
	Column   string
	TimeZone string
}

// NewTimeFeatures creates a time feature encoder for a column, converting to the default time zone.
func NewTimeFeatures(column string) *TimeFeatures {
	return &TimeFeatures{Column: column, TimeZone: DefaultTimeZone}
}

func (e *TimeFeatures) Fit(X *frame.Frame, y []float64) (Stage, error) {
	return e, nil
}

func (e *TimeFeatures) Transform(X *frame.Frame) (*frame.Frame, error) {
	zone := e.TimeZone
	if len(zone) == 0 {
		zone = DefaultTimeZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, faults.New(faults.Configuration, "time_features", "time_zone", err)
	}

	c, ok := X.Column(e.Column)
	if !ok {
		return nil, faults.Newf(faults.DataFormat, "time_features", e.Column, "missing column %q", e.Column)
	}

	var stamps []time.Time
	switch c.Kind {
	case frame.Time:
		stamps = c.Times
	case frame.String:
		stamps = make([]time.Time, len(c.Strings))
		for i, s := range c.Strings {
			stamps[i], err = ParseTimestamp(s)
			if err != nil {
				return nil, faults.New(faults.TypeConversion, "time_features", e.Column, errors.Wrapf(err, "row %d", i))
			}
		}
	default:
		return nil, faults.Newf(faults.TypeConversion, "time_features", e.Column, "column %q of kind %s cannot be read as timestamps", e.Column, c.Kind)
	}

	n := len(stamps)
	dow, hour, month, year := make([]int64, n), make([]int64, n), make([]int64, n), make([]int64, n)
	for i, t := range stamps {
		t = t.In(loc)
		dow[i] = int64((t.Weekday() + 6) % 7)
		hour[i] = int64(t.Hour())
		month[i] = int64(t.Month())
		year[i] = int64(t.Year())
	}
	return frame.New(
		frame.IntColumn("dow", dow),
		frame.IntColumn("hour", hour),
		frame.IntColumn("month", month),
		frame.IntColumn("year", year),
	)
}
