// Package dropper drops entries that have not been updated for a while.
package dropper

import (
	"fmt"
	"slices"
	"time"

	"github.com/rl404/verniy"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/draft"
	"github.com/bigspawn/alter/internal/fuzzydate"
)

// Entry is a drafted status. Nil means the entry keeps its status.
type Entry struct {
	Status *verniy.MediaListStatus
}

// Action is a dropper draft action.
type Action interface {
	isAction()
}

// UpdateStatus sets or, with a nil Status, reverts one entry.
type UpdateStatus struct {
	ID     int
	Status *verniy.MediaListStatus
}

// UpdateOlderThan drafts Status for every entry in one of DropStatuses whose
// last update falls on or before Date, and reverts every other entry.
type UpdateOlderThan struct {
	Date         time.Time
	DropStatuses []verniy.MediaListStatus
	Status       verniy.MediaListStatus
}

// Reset drops every drafted status.
type Reset struct{}

func (UpdateStatus) isAction()    {}
func (UpdateOlderThan) isAction() {}
func (Reset) isAction()           {}

// DefaultDropStatuses are the statuses the dropper considers.
var DefaultDropStatuses = []verniy.MediaListStatus{
	verniy.MediaListStatusCurrent,
	verniy.MediaListStatusPaused,
}

// ListOptions returns the snapshot the dropper works on, oldest update first.
func ListOptions(userID int, mediaType anilist.MediaType) anilist.ListOptions {
	return anilist.ListOptions{
		UserID:   userID,
		Type:     mediaType,
		StatusIn: slices.Clone(DefaultDropStatuses),
		Sort:     []string{anilist.SortUpdatedTime},
	}
}

// Reduce applies an action and returns the new draft. d is not modified.
func Reduce(list *anilist.List, d draft.Draft[Entry], a Action) (draft.Draft[Entry], error) {
	next := d.Clone()

	switch a := a.(type) {
	case UpdateStatus:
		next.Set(a.ID, Entry{Status: a.Status})

	case UpdateOlderThan:
		if list == nil {
			return d, draft.ErrMissingList
		}
		status := a.Status
		if status == "" {
			status = verniy.MediaListStatusDropped
		}
		for entry := range list.All() {
			var e Entry
			if slices.Contains(a.DropStatuses, entry.Status) && !LastUpdated(entry).After(a.Date) {
				e.Status = &status
			}
			next.Set(entry.ID, e)
		}

	case Reset:
		return draft.New[Entry](), nil

	default:
		return d, fmt.Errorf("unknown dropper action %T", a)
	}

	return next, nil
}

// LastUpdated returns the end of the day the entry was last updated on.
func LastUpdated(entry anilist.Entry) time.Time {
	return fuzzydate.EndOfDay(time.Unix(entry.UpdatedAt, 0))
}

type differ struct{}

func (differ) Pending(e Entry) bool {
	return e.Status != nil
}

func (differ) Changes(e Entry, entry anilist.Entry) anilist.Changes {
	if e.Status == nil || *e.Status == entry.Status {
		return anilist.Changes{}
	}
	return anilist.Changes{Status: e.Status}
}

// Count returns the number of entries whose status changes. ok is false on desync.
func Count(list *anilist.List, d draft.Draft[Entry]) (int, bool) {
	return draft.Count(list, d, differ{})
}

// Changes returns the entries to save.
func Changes(list *anilist.List, d draft.Draft[Entry]) ([]anilist.EntryChanges, error) {
	return draft.Collect(list, d, differ{})
}
