package value

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date as the server sees it. The zero Date is the
// server's "0000-00-00".
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time is a TIME value, which is an interval rather than a time of day:
// Hour may exceed 23 and the whole value may be negative.
type Time struct {
	Negative bool
	Hour     int
	Minute   int
	Second   int
}

// DateTime combines a Date and a Time of day.
type DateTime struct {
	Date
	Time
}

func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func TimeOf(d time.Duration) Time {
	neg := d < 0
	if neg {
		d = -d
	}
	secs := int(d / time.Second)
	return Time{Negative: neg && secs > 0, Hour: secs / 3600, Minute: secs / 60 % 60, Second: secs % 60}
}

func DateTimeOf(t time.Time) DateTime {
	return DateTime{
		Date: DateOf(t),
		Time: Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()},
	}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// ToTime converts to midnight UTC. Zero dates map to time.Time{}.
func (d Date) ToTime() time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Value() (driver.Value, error) { return d.String(), nil }

func (t Time) String() string {
	sign := ""
	if t.Negative {
		sign = "-"
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, t.Hour, t.Minute, t.Second)
}

func (t Time) Duration() time.Duration {
	d := time.Duration(t.Hour)*time.Hour + time.Duration(t.Minute)*time.Minute + time.Duration(t.Second)*time.Second
	if t.Negative {
		return -d
	}
	return d
}

func (t Time) Value() (driver.Value, error) { return t.String(), nil }

func (dt DateTime) String() string {
	return dt.Date.String() + " " + dt.Time.String()
}

func (dt DateTime) IsZero() bool { return dt == DateTime{} }

func (dt DateTime) ToTime() time.Time {
	if dt.IsZero() {
		return time.Time{}
	}
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, time.UTC)
}

func (dt DateTime) Value() (driver.Value, error) { return dt.String(), nil }

// ParseDate accepts "YYYY-MM-DD", optionally followed by a time part which is
// ignored. Empty input yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if i := strings.IndexAny(s, " T"); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("malformed date %q", s)
	}
	var d Date
	var ok1, ok2, ok3 bool
	d.Year, ok1 = atoiDigits(parts[0])
	d.Month, ok2 = atoiDigits(parts[1])
	d.Day, ok3 = atoiDigits(parts[2])
	if !ok1 || !ok2 || !ok3 || d.Month > 12 || d.Day > 31 {
		return Date{}, fmt.Errorf("malformed date %q", s)
	}
	return d, nil
}

// ParseTime accepts "[-]H+:MM[:SS[.fraction]]". Fractions are dropped.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, nil
	}
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	if i := strings.IndexByte(body, '.'); i >= 0 {
		if _, ok := atoiDigits(body[i+1:]); !ok {
			return Time{}, fmt.Errorf("malformed time %q", s)
		}
		body = body[:i]
	}
	parts := strings.Split(body, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Time{}, fmt.Errorf("malformed time %q", s)
	}
	var t Time
	var ok bool
	if t.Hour, ok = atoiDigits(parts[0]); !ok {
		return Time{}, fmt.Errorf("malformed time %q", s)
	}
	if t.Minute, ok = atoiDigits(parts[1]); !ok || t.Minute > 59 {
		return Time{}, fmt.Errorf("malformed time %q", s)
	}
	if len(parts) == 3 {
		if t.Second, ok = atoiDigits(parts[2]); !ok || t.Second > 59 {
			return Time{}, fmt.Errorf("malformed time %q", s)
		}
	}
	t.Negative = neg
	return t, nil
}

// ParseDateTime accepts "YYYY-MM-DD HH:MM:SS", the ISO "T" separator, or a
// bare date.
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DateTime{}, nil
	}
	datePart, timePart := s, ""
	if i := strings.IndexAny(s, " T"); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	}
	d, err := ParseDate(datePart)
	if err != nil {
		return DateTime{}, err
	}
	// Trailing zone designators from ISO input are not representable.
	timePart = strings.TrimSuffix(timePart, "Z")
	t, err := ParseTime(timePart)
	if err != nil {
		return DateTime{}, err
	}
	if t.Negative || t.Hour > 23 {
		return DateTime{}, fmt.Errorf("malformed datetime %q", s)
	}
	return DateTime{Date: d, Time: t}, nil
}

func atoiDigits(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
