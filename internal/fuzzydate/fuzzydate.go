// Package fuzzydate converts between AniList fuzzy dates (independently nullable
// year, month and day) and concrete calendar days.
//
// A zero component is treated exactly like a missing one, so year 0 cannot be
// represented.
package fuzzydate

import (
	"time"

	"github.com/rl404/verniy"
)

// Blank is the fuzzy date with every component missing.
var Blank = verniy.FuzzyDate{}

// Of builds a fuzzy date, mapping zero components to nil.
func Of(year, month, day int) verniy.FuzzyDate {
	return verniy.FuzzyDate{Year: ptr(year), Month: ptr(month), Day: ptr(day)}
}

func ptr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func get(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// IsNonFuzzy reports whether year, month and day are all present.
func IsNonFuzzy(d verniy.FuzzyDate) bool {
	return get(d.Year) != 0 && get(d.Month) != 0 && get(d.Day) != 0
}

// IsFuzzy is the negation of IsNonFuzzy.
func IsFuzzy(d verniy.FuzzyDate) bool {
	return !IsNonFuzzy(d)
}

// IsBlank reports whether all three components are missing.
func IsBlank(d verniy.FuzzyDate) bool {
	return get(d.Year) == 0 && get(d.Month) == 0 && get(d.Day) == 0
}

// EndOfDay returns the last instant of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// ToDate returns the end of the day represented by d in the local time zone.
// ok is false when d is fuzzy.
func ToDate(d verniy.FuzzyDate) (t time.Time, ok bool) {
	if !IsNonFuzzy(d) {
		return time.Time{}, false
	}
	return EndOfDay(time.Date(*d.Year, time.Month(*d.Month), *d.Day, 0, 0, 0, 0, time.Local)), true
}

// FromDate returns the non-fuzzy date of t's calendar day.
func FromDate(t time.Time) verniy.FuzzyDate {
	y, m, d := t.Date()
	return Of(y, int(m), d)
}

// FromPtr dereferences an optional fuzzy date, treating nil as Blank.
func FromPtr(d *verniy.FuzzyDate) verniy.FuzzyDate {
	if d == nil {
		return Blank
	}
	return *d
}

// EqualsFuzzy compares an optional concrete day with a fuzzy date. A concrete
// day only equals a non-fuzzy date of the same calendar day; a nil day equals
// any fuzzy date.
func EqualsFuzzy(t *time.Time, d verniy.FuzzyDate) bool {
	if t != nil && IsNonFuzzy(d) {
		other, _ := ToDate(d)
		return sameDay(*t, other)
	}
	return (t == nil) == IsFuzzy(d)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Compare orders fuzzy dates by year, month, then day, with missing components
// counting as zero.
func Compare(a, b verniy.FuzzyDate) int {
	if c := get(a.Year) - get(b.Year); c != 0 {
		return sign(c)
	}
	if c := get(a.Month) - get(b.Month); c != 0 {
		return sign(c)
	}
	return sign(get(a.Day) - get(b.Day))
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}

// String renders d as YYYY-MM-DD, or ∅ when it is fuzzy.
func String(d verniy.FuzzyDate) string {
	t, ok := ToDate(d)
	if !ok {
		return "∅"
	}
	return t.Format(time.DateOnly)
}
