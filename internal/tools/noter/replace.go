package noter

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/expr"
	"github.com/bigspawn/alter/internal/fuzzydate"
)

// ScriptError replaces a match whose replacement expression fails.
const ScriptError = "!!ERROR!!"

// DefaultFlags are applied when no flags are given.
const DefaultFlags = "gm"

// ErrInvalidPattern is returned for a missing or uncompilable find pattern.
var ErrInvalidPattern = errors.New("regular expression missing or invalid")

// Settings describe one find/replace.
type Settings struct {
	Find    string
	Flags   string
	Replace string
	// Script evaluates Replace as an expression per match instead of a
	// substitution template.
	Script bool
}

// Replacer applies compiled Settings to notes.
type Replacer struct {
	re      *regexp.Regexp
	global  bool
	tmpl    string
	script  bool
	program *expr.Program
	progErr error
}

// NewReplacer compiles s. Flags g (all matches), i, m and s are supported;
// u and v are accepted and ignored.
func NewReplacer(s Settings) (*Replacer, error) {
	if s.Find == "" {
		return nil, ErrInvalidPattern
	}

	r := &Replacer{tmpl: s.Replace, script: s.Script}

	var inline strings.Builder
	for _, f := range s.Flags {
		switch f {
		case 'g':
			r.global = true
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline.String(), f) {
				inline.WriteRune(f)
			}
		case 'u', 'v':
		default:
			return nil, fmt.Errorf("%w: unsupported flag %q", ErrInvalidPattern, f)
		}
	}

	pattern := s.Find
	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	r.re = re

	if s.Script {
		// A broken expression still compiles the replacer; every match
		// then renders as ScriptError.
		r.program, r.progErr = expr.Compile(s.Replace)
	}

	return r, nil
}

// Replace rewrites s for entry.
func (r *Replacer) Replace(entry anilist.Entry, s string) string {
	n := 1
	if r.global {
		n = -1
	}

	matches := r.re.FindAllStringSubmatchIndex(s, n)
	if len(matches) == 0 {
		return s
	}

	var base expr.Scope
	if r.script {
		base = entryScope(entry)
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		if r.script {
			sb.WriteString(r.evaluate(base, s, m))
		} else {
			sb.WriteString(r.expand(s, m))
		}
		last = m[1]
	}
	sb.WriteString(s[last:])

	return sb.String()
}

func (r *Replacer) evaluate(base expr.Scope, s string, m []int) string {
	if r.progErr != nil {
		return ScriptError
	}

	scope := make(expr.Scope, len(base)+len(m)/2+1)
	for k, v := range base {
		scope[k] = v
	}
	scope["match"] = expr.String(s[m[0]:m[1]])
	for i, name := range r.re.SubexpNames() {
		if i == 0 {
			continue
		}
		v := expr.String(group(s, m, i))
		scope["$"+strconv.Itoa(i)] = v
		if name != "" {
			scope["$"+name] = v
		}
	}

	v, err := r.program.Eval(scope)
	if err != nil {
		return ScriptError
	}
	return v.String()
}

// expand renders the substitution template for one match. $$, $&, $n, $nn
// and $<name> are expanded; $` and $' are kept literally.
func (r *Replacer) expand(s string, m []int) string {
	tmpl := r.tmpl
	groups := r.re.NumSubexp()

	var sb strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' || i+1 >= len(tmpl) {
			sb.WriteByte(c)
			continue
		}

		next := tmpl[i+1]
		switch {
		case next == '$':
			sb.WriteByte('$')
			i++

		case next == '&':
			sb.WriteString(s[m[0]:m[1]])
			i++

		case next >= '0' && next <= '9':
			idx, width := groupRef(tmpl[i+1:], groups)
			if idx == 0 {
				sb.WriteByte(c)
				continue
			}
			sb.WriteString(group(s, m, idx))
			i += width

		case next == '<' && hasNamed(r.re):
			end := strings.IndexByte(tmpl[i+2:], '>')
			if end < 0 {
				sb.WriteByte(c)
				continue
			}
			name := tmpl[i+2 : i+2+end]
			if idx := r.re.SubexpIndex(name); idx > 0 {
				sb.WriteString(group(s, m, idx))
			}
			i += end + 2

		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// groupRef reads a one or two digit group reference, preferring two digits
// when that names an existing group. It returns 0 when neither does.
func groupRef(s string, groups int) (idx, width int) {
	if len(s) >= 2 && s[1] >= '0' && s[1] <= '9' {
		if n, _ := strconv.Atoi(s[:2]); n >= 1 && n <= groups {
			return n, 2
		}
	}
	if n := int(s[0] - '0'); n >= 1 && n <= groups {
		return n, 1
	}
	return 0, 0
}

func hasNamed(re *regexp.Regexp) bool {
	for _, name := range re.SubexpNames() {
		if name != "" {
			return true
		}
	}
	return false
}

func group(s string, m []int, i int) string {
	if 2*i+1 >= len(m) || m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}

func entryScope(e anilist.Entry) expr.Scope {
	num := func(v int) expr.Value { return expr.Number(float64(v)) }
	opt := func(v *int) expr.Value {
		if v == nil {
			return expr.String("")
		}
		return num(*v)
	}

	return expr.Scope{
		"entry.id":                        num(e.ID),
		"entry.score":                     num(e.Score),
		"entry.status":                    expr.String(string(e.Status)),
		"entry.progress":                  num(e.Progress),
		"entry.progressVolumes":           num(e.ProgressVolumes),
		"entry.repeat":                    num(e.Repeat),
		"entry.notes":                     expr.String(e.Notes),
		"entry.startedAt":                 expr.String(fuzzydate.String(e.StartedAt)),
		"entry.completedAt":               expr.String(fuzzydate.String(e.CompletedAt)),
		"entry.media.id":                  num(e.Media.ID),
		"entry.media.title":               expr.String(e.Media.Title.Preferred("")),
		"entry.media.title.romaji":        expr.String(e.Media.Title.Romaji),
		"entry.media.title.english":       expr.String(e.Media.Title.English),
		"entry.media.title.native":        expr.String(e.Media.Title.Native),
		"entry.media.title.userPreferred": expr.String(e.Media.Title.UserPreferred),
		"entry.media.format":              expr.String(e.Media.Format),
		"entry.media.status":              expr.String(string(e.Media.Status)),
		"entry.media.episodes":            opt(e.Media.Episodes),
		"entry.media.chapters":            opt(e.Media.Chapters),
		"entry.media.volumes":             opt(e.Media.Volumes),
		"entry.media.siteUrl":             expr.String(e.Media.SiteURL),
	}
}
