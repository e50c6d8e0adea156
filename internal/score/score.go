// Package score converts between AniList's raw 0-100 score and the display
// value of each of the user's score formats.
package score

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rl404/verniy"
)

const (
	RawMin = 0
	RawMax = 100
)

// ErrInvalidScore is returned by ToRaw when the display value is not a number.
var ErrInvalidScore = errors.New("invalid score")

// Kind describes how a format is presented.
type Kind string

const (
	KindInt     Kind = "int"
	KindDecimal Kind = "decimal"
	KindStars   Kind = "stars"
	KindSmiley  Kind = "smiley"
)

// Raw values a 5-star and a 3-smiley score snap to.
var (
	Point5Values = []int{10, 30, 50, 70, 90}
	Point3Values = []int{35, 60, 85}
)

// System is a bidirectional codec between raw scores and display strings.
type System interface {
	Format() verniy.ScoreFormat
	Kind() Kind
	// FromRaw renders a raw score, clamping it to [0,100] first.
	FromRaw(raw int) string
	// ToRaw parses a display value back into a raw score in [0,100].
	ToRaw(display string) (int, error)
	// Step moves one unit up (dir > 0) or down (dir < 0), clamped.
	Step(display string, dir int) string
	// Label renders a raw score for humans (stars, smileys, numbers).
	Label(raw int) string
}

// LargeStepper is implemented by formats that support a five-unit step.
type LargeStepper interface {
	StepLarge(display string, dir int) string
}

// For returns the system of a score format.
func For(format verniy.ScoreFormat) (System, error) {
	switch format {
	case verniy.ScoreFormatPoint100:
		return point100{}, nil
	case verniy.ScoreFormatPoint100Decimal: // "POINT_10_DECIMAL"
		return point10Decimal{}, nil
	case verniy.ScoreFormatPoint10:
		return point10{}, nil
	case verniy.ScoreFormatPoint5:
		return point5{}, nil
	case verniy.ScoreFormatPoint3:
		return point3{}, nil
	default:
		return nil, fmt.Errorf("unknown score format: %q", format)
	}
}

// Formats lists every supported format in the order AniList presents them.
func Formats() []verniy.ScoreFormat {
	return []verniy.ScoreFormat{
		verniy.ScoreFormatPoint100,
		verniy.ScoreFormatPoint100Decimal,
		verniy.ScoreFormatPoint10,
		verniy.ScoreFormatPoint5,
		verniy.ScoreFormatPoint3,
	}
}

// Name returns the human name of a format.
func Name(format verniy.ScoreFormat) string {
	switch format {
	case verniy.ScoreFormatPoint100:
		return "100 Point"
	case verniy.ScoreFormatPoint100Decimal:
		return "10 Point Decimal"
	case verniy.ScoreFormatPoint10:
		return "10 Point"
	case verniy.ScoreFormatPoint5:
		return "5 Star"
	case verniy.ScoreFormatPoint3:
		return "3 Point Smiley"
	default:
		return string(format)
	}
}

// parse reads a display value the way a form field would: blank is zero.
func parse(display string) (float64, error) {
	s := strings.TrimSpace(display)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, display)
	}
	return v, nil
}

// parseOrZero is used by Step, which has no error path: garbage steps from zero.
func parseOrZero(display string) float64 {
	v, err := parse(display)
	if err != nil {
		return 0
	}
	return v
}

func clamp[T int | float64](x, lo, hi T) T {
	return min(hi, max(lo, x))
}

// roundHalfUp rounds .5 away from zero for positive values, matching how
// scores are rounded everywhere else in the UI.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clampRaw(x int) int {
	return clamp(x, RawMin, RawMax)
}

// nearest picks the value closest to x; ties go to the earlier value and
// anything at or below zero means "no score".
func nearest(x float64, values []int) int {
	if x <= 0 {
		return 0
	}
	r := values[0]
	for _, y := range values[1:] {
		if math.Abs(float64(y)-x) < math.Abs(float64(r)-x) {
			r = y
		}
	}
	return r
}
