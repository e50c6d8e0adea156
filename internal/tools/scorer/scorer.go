// Package scorer edits list scores in the viewer's score format.
package scorer

import (
	"fmt"
	"slices"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/draft"
	"github.com/bigspawn/alter/internal/score"
)

// Entry is a drafted score. Score is nil when the display does not parse.
type Entry struct {
	Score        *int
	ScoreDisplay *string
}

// Action is a scorer draft action.
type Action interface {
	isAction()
}

// UpdateScore sets an entry's score from a display value.
type UpdateScore struct {
	ID      int
	Display string
}

// Step moves an entry's score one unit (or one large unit) up or down.
type Step struct {
	ID    int
	Dir   int
	Large bool
}

// UpdateScoreDisplays re-renders every drafted display in another format.
type UpdateScoreDisplays struct {
	System score.System
}

// Reset drops every drafted score.
type Reset struct{}

func (UpdateScore) isAction()         {}
func (Step) isAction()                {}
func (UpdateScoreDisplays) isAction() {}
func (Reset) isAction()               {}

// Tool holds the scorer settings.
type Tool struct {
	System score.System
}

// ListOptions returns the snapshot the scorer works on.
func ListOptions(userID int, mediaType anilist.MediaType) anilist.ListOptions {
	return anilist.ListOptions{
		UserID:   userID,
		Type:     mediaType,
		StatusIn: slices.Clone(anilist.ListStatuses),
		Sort:     []string{anilist.SortScoreDesc},
	}
}

// Reduce applies an action and returns the new draft. d is not modified.
func (t Tool) Reduce(list *anilist.List, d draft.Draft[Entry], a Action) (draft.Draft[Entry], error) {
	next := d.Clone()

	switch a := a.(type) {
	case UpdateScore:
		next.Set(a.ID, t.entry(a.Display))

	case Step:
		display, err := t.display(list, d, a.ID)
		if err != nil {
			return d, err
		}
		if large, ok := t.System.(score.LargeStepper); ok && a.Large {
			display = large.StepLarge(display, a.Dir)
		} else {
			display = t.System.Step(display, a.Dir)
		}
		next.Set(a.ID, t.entry(display))

	case UpdateScoreDisplays:
		for id, e := range d.All() {
			if e.Score == nil {
				continue
			}
			display := a.System.FromRaw(*e.Score)
			e.ScoreDisplay = &display
			next.Set(id, e)
		}

	case Reset:
		return draft.New[Entry](), nil

	default:
		return d, fmt.Errorf("unknown scorer action %T", a)
	}

	return next, nil
}

func (t Tool) entry(display string) Entry {
	e := Entry{ScoreDisplay: &display}
	if raw, err := t.System.ToRaw(display); err == nil {
		e.Score = &raw
	}
	return e
}

// display returns the current display value of an entry, drafted or not.
func (t Tool) display(list *anilist.List, d draft.Draft[Entry], id int) (string, error) {
	if e, ok := d.Get(id); ok && e.ScoreDisplay != nil {
		return *e.ScoreDisplay, nil
	}
	if list == nil {
		return "", draft.ErrMissingList
	}
	entry, ok := list.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: entry %d", draft.ErrDesynced, id)
	}
	return t.System.FromRaw(entry.Score), nil
}

type differ struct{}

func (differ) Pending(e Entry) bool {
	return e.Score != nil
}

func (differ) Changes(e Entry, entry anilist.Entry) anilist.Changes {
	if e.Score == nil || *e.Score == entry.Score {
		return anilist.Changes{}
	}
	return anilist.Changes{Score: e.Score}
}

// Counts are the two unsaved-change counters.
type Counts struct {
	// Actual counts entries whose raw score differs from the snapshot.
	Actual int
	// Perceived counts every entry with a parsed score, changed or not.
	// It is shown instead of Actual when scores are hidden.
	Perceived int
}

// Count returns the unsaved-change counters. ok is false on desync.
func Count(list *anilist.List, d draft.Draft[Entry]) (Counts, bool) {
	var c Counts
	for id, e := range d.All() {
		if e.Score == nil {
			continue
		}
		entry, found := list.Get(id)
		if !found {
			return Counts{}, false
		}
		c.Perceived++
		if *e.Score != entry.Score {
			c.Actual++
		}
	}
	return c, true
}

// Changes returns the entries to save.
func Changes(list *anilist.List, d draft.Draft[Entry]) ([]anilist.EntryChanges, error) {
	return draft.Collect(list, d, differ{})
}
