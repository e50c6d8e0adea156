package score

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rl404/verniy"
)

type point100 struct{}

func (point100) Format() verniy.ScoreFormat { return verniy.ScoreFormatPoint100 }
func (point100) Kind() Kind                 { return KindInt }

func (point100) FromRaw(raw int) string {
	return strconv.Itoa(clampRaw(raw))
}

func (point100) ToRaw(display string) (int, error) {
	v, err := parse(display)
	if err != nil {
		return 0, err
	}
	return clampRaw(roundHalfUp(v)), nil
}

func (s point100) Step(display string, dir int) string {
	return s.step(display, sign(dir))
}

func (s point100) StepLarge(display string, dir int) string {
	return s.step(display, sign(dir)*5)
}

func (point100) step(display string, delta int) string {
	return strconv.Itoa(clamp(roundHalfUp(parseOrZero(display))+delta, RawMin, RawMax))
}

func (s point100) Label(raw int) string { return s.FromRaw(raw) }

type point10Decimal struct{}

func (point10Decimal) Format() verniy.ScoreFormat { return verniy.ScoreFormatPoint100Decimal }
func (point10Decimal) Kind() Kind                 { return KindDecimal }

func (point10Decimal) FromRaw(raw int) string {
	return formatDecimal(float64(clampRaw(raw)) / 10)
}

func (point10Decimal) ToRaw(display string) (int, error) {
	v, err := parse(display)
	if err != nil {
		return 0, err
	}
	return clampRaw(roundHalfUp(v * 10)), nil
}

func (s point10Decimal) Step(display string, dir int) string {
	return s.step(display, float64(sign(dir))/10)
}

func (s point10Decimal) StepLarge(display string, dir int) string {
	return s.step(display, float64(sign(dir)*5)/10)
}

func (point10Decimal) step(display string, delta float64) string {
	return formatDecimal(clamp(parseOrZero(display)+delta, 0, 10))
}

func (s point10Decimal) Label(raw int) string { return s.FromRaw(raw) }

// formatDecimal prints one decimal place and drops a trailing ".0".
func formatDecimal(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 1, 64), ".0", "", 1)
}

type point10 struct{}

func (point10) Format() verniy.ScoreFormat { return verniy.ScoreFormatPoint10 }
func (point10) Kind() Kind                 { return KindInt }

func (point10) FromRaw(raw int) string {
	return strconv.Itoa(roundHalfUp(float64(clampRaw(raw)) / 10))
}

func (point10) ToRaw(display string) (int, error) {
	v, err := parse(display)
	if err != nil {
		return 0, err
	}
	return clampRaw(roundHalfUp(v * 10)), nil
}

func (point10) Step(display string, dir int) string {
	return strconv.Itoa(clamp(roundHalfUp(parseOrZero(display))+sign(dir), 0, 10))
}

func (s point10) Label(raw int) string { return s.FromRaw(raw) }

// point5 displays the raw bucket value; the UI draws it as stars.
type point5 struct{}

func (point5) Format() verniy.ScoreFormat { return verniy.ScoreFormatPoint5 }
func (point5) Kind() Kind                 { return KindStars }

func (point5) FromRaw(raw int) string {
	return strconv.Itoa(nearest(float64(clampRaw(raw)), Point5Values))
}

// ToRaw accepts a raw value, a star count such as "3*", or a star string
// such as "★★★☆☆". Raw values snap to the nearest bucket.
func (point5) ToRaw(display string) (int, error) {
	if raw, ok, err := parseStars(display); ok {
		return raw, err
	}
	v, err := parse(display)
	if err != nil {
		return 0, err
	}
	return nearest(v, Point5Values), nil
}

func parseStars(display string) (int, bool, error) {
	s := strings.TrimSpace(display)

	var stars int
	switch {
	case strings.HasSuffix(s, "*"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "*")))
		if err != nil {
			return 0, true, fmt.Errorf("%w: %q", ErrInvalidScore, display)
		}
		stars = n
	case s != "" && strings.Trim(s, "★☆") == "":
		if strings.Contains(strings.TrimLeft(s, "★"), "★") {
			return 0, true, fmt.Errorf("%w: %q", ErrInvalidScore, display)
		}
		stars = strings.Count(s, "★")
	default:
		return 0, false, nil
	}

	if stars < 0 || stars > len(Point5Values) {
		return 0, true, fmt.Errorf("%w: %q", ErrInvalidScore, display)
	}
	if stars == 0 {
		return 0, true, nil
	}
	return Point5Values[stars-1], true, nil
}

func (point5) Step(display string, dir int) string {
	return strconv.Itoa(nearest(parseOrZero(display)+float64(sign(dir)*20), Point5Values))
}

func (point5) Label(raw int) string {
	stars := slices.Index(Point5Values, nearest(float64(clampRaw(raw)), Point5Values)) + 1
	return strings.Repeat("★", stars) + strings.Repeat("☆", len(Point5Values)-stars)
}

// point3 displays the raw bucket value; the UI draws it as a smiley.
type point3 struct{}

func (point3) Format() verniy.ScoreFormat { return verniy.ScoreFormatPoint3 }
func (point3) Kind() Kind                 { return KindSmiley }

var (
	point3Down = map[int]int{0: 0, 35: 0, 60: 35, 85: 60}
	point3Up   = map[int]int{0: 35, 35: 60, 60: 85, 85: 85}
)

func (point3) FromRaw(raw int) string {
	return strconv.Itoa(nearest(float64(clampRaw(raw)), Point3Values))
}

var smileys = map[string]int{"-": 0, ":(": 35, ":|": 60, ":)": 85}

// ToRaw accepts a raw value or one of the smileys. Raw values snap to the
// nearest bucket.
func (point3) ToRaw(display string) (int, error) {
	if raw, ok := smileys[strings.TrimSpace(display)]; ok {
		return raw, nil
	}
	v, err := parse(display)
	if err != nil {
		return 0, err
	}
	return nearest(v, Point3Values), nil
}

func (point3) Step(display string, dir int) string {
	from := nearest(parseOrZero(display), Point3Values)
	table := point3Up
	if dir < 0 {
		table = point3Down
	}
	if dir == 0 {
		return strconv.Itoa(from)
	}
	return strconv.Itoa(table[from])
}

func (point3) Label(raw int) string {
	switch nearest(float64(clampRaw(raw)), Point3Values) {
	case 35:
		return ":("
	case 60:
		return ":|"
	case 85:
		return ":)"
	default:
		return "-"
	}
}

func sign(dir int) int {
	switch {
	case dir > 0:
		return 1
	case dir < 0:
		return -1
	default:
		return 0
	}
}
