package module

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jpfielding/dicomsr.go/pkg/dcm/tag"
)

// Date represents a DICOM Date (DA VR)
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether the date is unset
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func NewDate(t time.Time) Date {
	return Date{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}
}

// ParseDate parses a YYYYMMDD value, returning the zero Date when malformed
func ParseDate(s string) Date {
	t, err := time.Parse("20060102", strings.TrimSpace(s))
	if err != nil {
		return Date{}
	}
	return NewDate(t)
}

// Time represents a DICOM Time (TM VR)
type Time struct {
	Hour   int
	Minute int
	Second int
	Nano   int
}

func (t Time) String() string {
	if t.IsZero() {
		return ""
	}
	// Format as HHMMSS.FFFFFF
	return fmt.Sprintf("%02d%02d%02d.%06d", t.Hour, t.Minute, t.Second, t.Nano/1000)
}

// IsZero reports whether the time is unset, which is indistinguishable from midnight
func (t Time) IsZero() bool {
	return t == Time{}
}

func NewTime(t time.Time) Time {
	return Time{
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		Nano:   t.Nanosecond(),
	}
}

// ParseTime parses an HH[MM[SS[.FFFFFF]]] value, ignoring components it cannot read
func ParseTime(s string) Time {
	s = strings.TrimSpace(s)
	var t Time
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s, frac = s[:i], s[i+1:]
	}
	parts := []*int{&t.Hour, &t.Minute, &t.Second}
	for i, p := range parts {
		if len(s) < (i+1)*2 {
			break
		}
		n, err := strconv.Atoi(s[i*2 : i*2+2])
		if err != nil {
			return Time{}
		}
		*p = n
	}
	if frac != "" {
		frac = (frac + "000000")[:6]
		if us, err := strconv.Atoi(frac); err == nil {
			t.Nano = us * 1000
		}
	}
	return t
}

// PersonName represents a DICOM Person Name (PN VR)
type PersonName struct {
	FamilyName string
	GivenName  string
	MiddleName string
	Prefix     string
	Suffix     string
}

func (p PersonName) String() string {
	// DICOM format: Family^Given^Middle^Prefix^Suffix with empty trailing components dropped
	s := strings.Join([]string{p.FamilyName, p.GivenName, p.MiddleName, p.Prefix, p.Suffix}, "^")
	return strings.TrimRight(s, "^")
}

// ParsePersonName splits a PN value into its components
func ParsePersonName(s string) PersonName {
	parts := strings.SplitN(strings.TrimSpace(s), "^", 5)
	for len(parts) < 5 {
		parts = append(parts, "")
	}
	return PersonName{
		FamilyName: parts[0],
		GivenName:  parts[1],
		MiddleName: parts[2],
		Prefix:     parts[3],
		Suffix:     parts[4],
	}
}

// IODModule is a group of attributes that can render itself as elements
type IODModule interface {
	ToTags() []IODElement
}

// TextSource is anything that can return the string value of a tag.
// A dcm.Dataset satisfies it.
type TextSource interface {
	Text(t tag.Tag) string
}

type IODElement struct {
	Tag   tag.Tag
	Value interface{}
}
