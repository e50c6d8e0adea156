// Package noter edits list entry notes by hand or with find and replace.
package noter

import (
	"fmt"
	"slices"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/draft"
)

// Entry is a drafted note. Nil keeps the stored note.
type Entry struct {
	Notes *string
}

// Action is a noter draft action.
type Action interface {
	isAction()
}

// Update sets or, with nil Notes, reverts one note.
type Update struct {
	ID    int
	Notes *string
}

// Replace runs the replacer over one entry's current note.
type Replace struct {
	ID int
}

// ReplaceAll runs the replacer over every note and drafts those that change.
type ReplaceAll struct{}

// Reset drops every drafted note.
type Reset struct{}

func (Update) isAction()     {}
func (Replace) isAction()    {}
func (ReplaceAll) isAction() {}
func (Reset) isAction()      {}

// Tool holds the noter settings. Replacer is nil when the find pattern is
// missing or invalid.
type Tool struct {
	Replacer *Replacer
}

// ListOptions returns the snapshot the noter works on.
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
	case Update:
		next.Set(a.ID, Entry{Notes: a.Notes})

	case Replace:
		if list == nil {
			return d, draft.ErrMissingList
		}
		if t.Replacer == nil {
			return d, ErrInvalidPattern
		}
		entry, ok := list.Get(a.ID)
		if !ok {
			return d, fmt.Errorf("%w: entry %d", draft.ErrDesynced, a.ID)
		}
		notes := t.Replacer.Replace(entry, current(d, entry))
		next.Set(a.ID, Entry{Notes: &notes})

	case ReplaceAll:
		if list == nil {
			return d, draft.ErrMissingList
		}
		if t.Replacer == nil {
			return d, ErrInvalidPattern
		}
		for entry := range list.All() {
			old := current(d, entry)
			notes := t.Replacer.Replace(entry, old)
			if notes != old {
				next.Set(entry.ID, Entry{Notes: &notes})
			}
		}

	case Reset:
		return draft.New[Entry](), nil

	default:
		return d, fmt.Errorf("unknown noter action %T", a)
	}

	return next, nil
}

// current returns the drafted note of entry, or the stored one.
func current(d draft.Draft[Entry], entry anilist.Entry) string {
	if e, ok := d.Get(entry.ID); ok && e.Notes != nil {
		return *e.Notes
	}
	return entry.Notes
}

type differ struct{}

func (differ) Pending(e Entry) bool {
	return e.Notes != nil
}

func (differ) Changes(e Entry, entry anilist.Entry) anilist.Changes {
	if e.Notes == nil || *e.Notes == entry.Notes {
		return anilist.Changes{}
	}
	return anilist.Changes{Notes: e.Notes}
}

// Count returns the number of entries whose note changes. ok is false on desync.
func Count(list *anilist.List, d draft.Draft[Entry]) (int, bool) {
	return draft.Count(list, d, differ{})
}

// Changes returns the entries to save.
func Changes(list *anilist.List, d draft.Draft[Entry]) ([]anilist.EntryChanges, error) {
	return draft.Collect(list, d, differ{})
}
