package fuzzydate

import (
	"time"

	"github.com/rl404/verniy"
)

// Value is a drafted date field: either a concrete calendar day or an explicit
// clear. Drafts hold a *Value so that nil keeps meaning "untouched".
type Value struct {
	t   time.Time
	set bool
}

// Day drafts the calendar day of t, normalized to the end of that day.
func Day(t time.Time) Value {
	return Value{t: EndOfDay(t), set: true}
}

// Cleared drafts removal of the date.
func Cleared() Value {
	return Value{}
}

// Time returns the drafted day, ok is false for a cleared value.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.set
}

// IsCleared reports whether v removes the date.
func (v Value) IsCleared() bool {
	return !v.set
}

// Equals reports whether applying v to d would leave it unchanged. A cleared
// value only equals a blank date.
func (v Value) Equals(d verniy.FuzzyDate) bool {
	if !v.set {
		return IsBlank(d)
	}
	return EqualsFuzzy(&v.t, d)
}

// Fuzzy returns the wire form of v: a full date, or Blank when cleared.
func (v Value) Fuzzy() verniy.FuzzyDate {
	if !v.set {
		return Blank
	}
	return FromDate(v.t)
}

func (v Value) String() string {
	return String(v.Fuzzy())
}
