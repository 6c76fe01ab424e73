package codec

import (
	"time"

	"github.com/arloliu/mpack/errs"
	"github.com/arloliu/mpack/ndarray"
)

// Date-time values cross the wire as ISO-8601 extended text. The
// formatter builds into a stack scratch buffer; the longest possible form
// ("9999-12-31T23:59:59.999999+00:00") is 32 bytes.

// writeDatetime emits a date-time. Aware values (naive == false) carry
// the offset of their location; naive values carry no offset unless
// OptNaiveUTC stamps them as UTC.
func (e *encoder) writeDatetime(t time.Time, naive bool) error {
	year := t.Year()
	if year < 1 || year > 9999 {
		return encErrf(errs.ErrUnsupportedType, "datetime year %d out of range [1, 9999]", year)
	}

	var scratch [40]byte
	b := scratch[:0]
	b = appendPadded(b, year, 4)
	b = append(b, '-')
	b = appendPadded(b, int(t.Month()), 2)
	b = append(b, '-')
	b = appendPadded(b, t.Day(), 2)
	b = append(b, 'T')
	b = appendPadded(b, t.Hour(), 2)
	b = append(b, ':')
	b = appendPadded(b, t.Minute(), 2)
	b = append(b, ':')
	b = appendPadded(b, t.Second(), 2)
	b = e.appendMicros(b, t.Nanosecond()/1000)

	if naive {
		if e.opt&OptNaiveUTC != 0 {
			b = e.appendOffset(b, 0)
		}
	} else {
		_, off := t.Zone()
		b = e.appendOffset(b, off)
	}

	e.writeStrHeader(len(b))
	e.buf.B = append(e.buf.B, b...)

	return nil
}

// writeDate emits "YYYY-MM-DD".
func (e *encoder) writeDate(d Date) error {
	if d.Year < 1 || d.Year > 9999 {
		return encErrf(errs.ErrUnsupportedType, "date year %d out of range [1, 9999]", d.Year)
	}
	if d.Month < time.January || d.Month > time.December || d.Day < 1 || d.Day > 31 {
		return encErrf(errs.ErrUnsupportedType, "invalid date %04d-%02d-%02d", d.Year, int(d.Month), d.Day)
	}

	var scratch [10]byte
	b := scratch[:0]
	b = appendPadded(b, d.Year, 4)
	b = append(b, '-')
	b = appendPadded(b, int(d.Month), 2)
	b = append(b, '-')
	b = appendPadded(b, d.Day, 2)

	e.writeStrHeader(len(b))
	e.buf.B = append(e.buf.B, b...)

	return nil
}

// writeTimeOfDay emits "HH:MM:SS[.ffffff]". A time with a timezone is
// rejected: the wire form has nowhere to carry the offset.
func (e *encoder) writeTimeOfDay(t TimeOfDay) error {
	if t.Loc != nil {
		return encErr(errs.ErrAwareTime)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 ||
		t.Second < 0 || t.Second > 59 || t.Microsecond < 0 || t.Microsecond > 999999 {
		return encErrf(errs.ErrUnsupportedType, "invalid time %02d:%02d:%02d.%06d",
			t.Hour, t.Minute, t.Second, t.Microsecond)
	}

	var scratch [15]byte
	b := scratch[:0]
	b = appendPadded(b, t.Hour, 2)
	b = append(b, ':')
	b = appendPadded(b, t.Minute, 2)
	b = append(b, ':')
	b = appendPadded(b, t.Second, 2)
	b = e.appendMicros(b, t.Microsecond)

	e.writeStrHeader(len(b))
	e.buf.B = append(e.buf.B, b...)

	return nil
}

// writeDatetime64 emits one Datetime64 array element as naive ISO-8601
// text. Sub-microsecond precision is truncated.
func (e *encoder) writeDatetime64(epoch int64, unit ndarray.TimeUnit) error {
	if epoch == ndarray.NaT {
		return encErrf(errs.ErrUnsupportedType, "NaT is not supported")
	}

	var sec, nsec int64
	switch unit {
	case ndarray.Seconds:
		sec = epoch
	case ndarray.Milliseconds:
		sec, nsec = floorDiv(epoch, 1_000)
		nsec *= 1_000_000
	case ndarray.Microseconds:
		sec, nsec = floorDiv(epoch, 1_000_000)
		nsec *= 1_000
	case ndarray.Nanoseconds:
		sec, nsec = floorDiv(epoch, 1_000_000_000)
		nsec = nsec / 1_000 * 1_000
	default:
		return encErr(errs.ErrDatetimeUnit)
	}

	return e.writeDatetime(time.Unix(sec, nsec).UTC(), true)
}

// appendMicros appends ".ffffff" unless the value is zero or
// OptOmitMicroseconds suppresses it.
func (e *encoder) appendMicros(b []byte, micros int) []byte {
	if micros == 0 || e.opt&OptOmitMicroseconds != 0 {
		return b
	}
	b = append(b, '.')

	return appendPadded(b, micros, 6)
}

// appendOffset appends the UTC offset suffix, rounding the offset to the
// nearest minute per RFC 3339 for historical sub-minute zones. A zero
// offset becomes "Z" under OptUTCZ, "+00:00" otherwise.
func (e *encoder) appendOffset(b []byte, offSeconds int) []byte {
	var minutes int
	if offSeconds >= 0 {
		minutes = (offSeconds + 30) / 60
	} else {
		minutes = (offSeconds - 30) / 60
	}

	if minutes == 0 && e.opt&OptUTCZ != 0 {
		return append(b, 'Z')
	}

	sign := byte('+')
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	b = append(b, sign)
	b = appendPadded(b, minutes/60, 2)
	b = append(b, ':')

	return appendPadded(b, minutes%60, 2)
}

// appendPadded appends v zero-padded to the given width.
func appendPadded(b []byte, v, width int) []byte {
	var digits [8]byte
	for i := width - 1; i >= 0; i-- {
		digits[i] = byte('0' + v%10)
		v /= 10
	}

	return append(b, digits[:width]...)
}

// floorDiv divides rounding toward negative infinity, returning the
// quotient and a non-negative remainder.
func floorDiv(v, div int64) (quot, rem int64) {
	quot = v / div
	rem = v % div
	if rem < 0 {
		quot--
		rem += div
	}

	return quot, rem
}
