package codec

import (
	"fmt"
	"time"
)

// Ext is the extension-type carrier: an application-defined tag in
// [-128, 127] plus an opaque byte payload. On encode it is written using
// the smallest fixext/ext variant; on decode ext values are only ever
// surfaced through the caller's ext hook.
type Ext struct {
	Data []byte
	Tag  int8
}

// NewExt creates an Ext, validating the tag range.
func NewExt(tag int, data []byte) (Ext, error) {
	if tag < -128 || tag > 127 {
		return Ext{}, fmt.Errorf("ext tag %d out of range [-128, 127]", tag)
	}

	return Ext{Tag: int8(tag), Data: data}, nil
}

// Tuple is an immutable-by-convention sequence. It encodes as a
// MessagePack array like []any does, but OptPassthroughTuple routes it to
// the default hook. Named types derived from Tuple are not told apart from
// other named []any types: they take the named-type path (encoded as
// arrays, or routed to the default hook under OptPassthroughSubclass), and
// OptPassthroughTuple does not apply to them.
type Tuple []any

// Naive is a date-time without a timezone. It encodes with no offset
// suffix; OptNaiveUTC stamps it as UTC instead. A plain time.Time is
// always treated as timezone-aware.
type Naive time.Time

// Date is a calendar date. It encodes as "YYYY-MM-DD".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// TimeOfDay is a wall-clock time. It encodes as "HH:MM:SS[.ffffff]".
// Loc must be nil: a time-of-day with a timezone is rejected.
type TimeOfDay struct {
	Loc         *time.Location
	Hour        int
	Minute      int
	Second      int
	Microsecond int
}

// Enum marks a value that encodes as its underlying value. The returned
// value re-enters the encoder, so any encodable type works, including as
// a map key under OptNonStrKeys.
type Enum interface {
	EnumValue() any
}

// MapDumper is the model-record surface: a validating-model type that can
// dump itself to a plain mapping. Only consulted when OptSerializePydantic
// is set.
type MapDumper interface {
	DumpMap() map[string]any
}

// LegacyMapDumper is the prior-generation model-record surface. MapDumper
// wins when a type implements both.
type LegacyMapDumper interface {
	ToMap() map[string]any
}
