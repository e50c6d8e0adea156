// Package fixer finds list entries whose status, progress or dates contradict
// the media they track, and drafts the recommended corrections.
package fixer

import (
	"fmt"
	"slices"

	"github.com/rl404/verniy"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/draft"
	"github.com/bigspawn/alter/internal/fuzzydate"
)

// Entry is a drafted fix. The *Bad flags record which fields a
// recommendation touched; Exclude keeps the entry out of the save.
type Entry struct {
	Status          *verniy.MediaListStatus
	StartedAt       *fuzzydate.Value
	CompletedAt     *fuzzydate.Value
	Progress        *int
	ProgressVolumes *int

	Exclude            bool
	StatusBad          bool
	StartedAtBad       bool
	CompletedAtBad     bool
	ProgressBad        bool
	ProgressVolumesBad bool
}

// Bad reports whether any recommendation applied to the entry.
func (e Entry) Bad() bool {
	return e.StatusBad || e.StartedAtBad || e.CompletedAtBad || e.ProgressBad || e.ProgressVolumesBad
}

// Fixes toggles each recommendation.
type Fixes struct {
	InvalidStatus    bool
	InvalidProgress  bool
	InvalidStartDate bool
	InvalidEndDate   bool
	MissingStartDate bool
	MissingEndDate   bool
}

// AllFixes enables every recommendation.
func AllFixes() Fixes {
	return Fixes{
		InvalidStatus:    true,
		InvalidProgress:  true,
		InvalidStartDate: true,
		InvalidEndDate:   true,
		MissingStartDate: true,
		MissingEndDate:   true,
	}
}

// DateField names one of the two editable dates.
type DateField int

const (
	StartedAt DateField = iota
	CompletedAt
)

// Action is a fixer draft action.
type Action interface {
	isAction()
}

// Update sets one date. A nil Value reverts the date to the stored one.
type Update struct {
	ID    int
	Field DateField
	Value *fuzzydate.Value
}

// Exclude sets the exclusion flag, or toggles it when Exclude is nil.
type Exclude struct {
	ID      int
	Exclude *bool
}

// UpdateRecommended recomputes the fixes of one entry.
type UpdateRecommended struct {
	ID int
}

// UpdateRecommendedAll recomputes the fixes of every entry.
type UpdateRecommendedAll struct{}

// Reset drops every drafted fix.
type Reset struct{}

func (Update) isAction()               {}
func (Exclude) isAction()              {}
func (UpdateRecommended) isAction()    {}
func (UpdateRecommendedAll) isAction() {}
func (Reset) isAction()                {}

// Tool holds the fixer settings.
type Tool struct {
	Fixes Fixes
}

// ListOptions returns the snapshot the fixer works on.
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
		next.Update(a.ID, func(e Entry) Entry {
			switch a.Field {
			case StartedAt:
				e.StartedAt = a.Value
			case CompletedAt:
				e.CompletedAt = a.Value
			}
			return e
		})

	case Exclude:
		next.Update(a.ID, func(e Entry) Entry {
			if a.Exclude != nil {
				e.Exclude = *a.Exclude
			} else {
				e.Exclude = !e.Exclude
			}
			return e
		})

	case UpdateRecommended:
		if list == nil {
			return d, draft.ErrMissingList
		}
		entry, ok := list.Get(a.ID)
		if !ok {
			return d, fmt.Errorf("%w: entry %d", draft.ErrDesynced, a.ID)
		}
		t.store(&next, entry)

	case UpdateRecommendedAll:
		if list == nil {
			return d, draft.ErrMissingList
		}
		for entry := range list.All() {
			t.store(&next, entry)
		}

	case Reset:
		return draft.New[Entry](), nil

	default:
		return d, fmt.Errorf("unknown fixer action %T", a)
	}

	return next, nil
}

// store keeps the recommendation for entry only if it found something.
func (t Tool) store(d *draft.Draft[Entry], entry anilist.Entry) {
	if e := t.Recommend(entry); e.Bad() {
		d.Set(entry.ID, e)
		return
	}
	d.Delete(entry.ID)
}

// replacementStatus maps the release status of a media that is not over to
// the list status a completed entry should have instead.
var replacementStatus = map[anilist.MediaStatus]verniy.MediaListStatus{
	anilist.MediaStatusReleasing:      verniy.MediaListStatusCurrent,
	anilist.MediaStatusHiatus:         verniy.MediaListStatusPaused,
	anilist.MediaStatusNotYetReleased: verniy.MediaListStatusPlanning,
}

// Recommend computes the fixes for one entry with the enabled rules.
func (t Tool) Recommend(entry anilist.Entry) Entry {
	var e Entry
	media := entry.Media
	f := t.Fixes

	if f.InvalidStatus {
		switch {
		case entry.Status == verniy.MediaListStatusCompleted && !media.Status.Ended():
			if status, ok := replacementStatus[media.Status]; ok {
				e.Status = &status
				e.StatusBad = true
			}
		case media.Status == anilist.MediaStatusNotYetReleased && slices.Contains([]verniy.MediaListStatus{
			verniy.MediaListStatusCurrent,
			verniy.MediaListStatusRepeating,
			verniy.MediaListStatusDropped,
			verniy.MediaListStatusPaused,
		}, entry.Status):
			status := verniy.MediaListStatusPlanning
			e.Status = &status
			e.StatusBad = true
		}
	}

	if f.InvalidProgress && entry.Status == verniy.MediaListStatusCompleted {
		if length := media.Length(); length != nil && entry.Progress != *length {
			v := *length
			e.Progress = &v
			e.ProgressBad = true
		}
		if media.Volumes != nil && entry.ProgressVolumes != *media.Volumes {
			v := *media.Volumes
			e.ProgressVolumes = &v
			e.ProgressVolumesBad = true
		}
	}

	if (f.MissingStartDate || f.InvalidStartDate) &&
		entry.Status != verniy.MediaListStatusPlanning &&
		media.Status != anilist.MediaStatusNotYetReleased {
		if mediaStart, ok := fuzzydate.ToDate(media.StartDate); ok {
			if startedAt, ok := fuzzydate.ToDate(entry.StartedAt); ok {
				if f.InvalidStartDate && startedAt.Before(mediaStart) {
					e.StartedAt = ptr(fuzzydate.Day(mediaStart))
					e.StartedAtBad = true
				}
			} else if f.MissingStartDate {
				if completedAt, ok := fuzzydate.ToDate(entry.CompletedAt); ok {
					e.StartedAt = ptr(fuzzydate.Day(completedAt))
				} else {
					e.StartedAt = ptr(fuzzydate.Day(mediaStart))
				}
				e.StartedAtBad = true
			}
		}
	}

	planning := effectiveStatus(e, entry) == verniy.MediaListStatusPlanning

	if f.InvalidStartDate && planning && !fuzzydate.IsBlank(entry.StartedAt) {
		e.StartedAt = ptr(fuzzydate.Cleared())
		e.StartedAtBad = true
	}

	if (f.MissingEndDate || f.InvalidEndDate) &&
		(entry.Status == verniy.MediaListStatusCompleted || entry.Status == verniy.MediaListStatusRepeating) &&
		media.Status == anilist.MediaStatusFinished {
		if mediaEnd, ok := fuzzydate.ToDate(media.EndDate); ok {
			if completedAt, ok := fuzzydate.ToDate(entry.CompletedAt); ok {
				if f.InvalidEndDate && completedAt.Before(mediaEnd) {
					e.CompletedAt = ptr(fuzzydate.Day(mediaEnd))
					e.CompletedAtBad = true
				}
			} else if f.MissingEndDate {
				if startedAt, ok := fuzzydate.ToDate(entry.StartedAt); ok {
					e.CompletedAt = ptr(fuzzydate.Day(startedAt))
				} else {
					e.CompletedAt = ptr(fuzzydate.Day(mediaEnd))
				}
				e.CompletedAtBad = true
			}
		}
	}

	if f.InvalidEndDate && planning && !fuzzydate.IsBlank(entry.CompletedAt) {
		e.CompletedAt = ptr(fuzzydate.Cleared())
		e.CompletedAtBad = true
	}

	return e
}

func effectiveStatus(e Entry, entry anilist.Entry) verniy.MediaListStatus {
	if e.Status != nil {
		return *e.Status
	}
	return entry.Status
}

func ptr[T any](v T) *T { return &v }

type differ struct{}

func (differ) Pending(e Entry) bool {
	return !e.Exclude
}

func (differ) Changes(e Entry, entry anilist.Entry) anilist.Changes {
	var c anilist.Changes
	if e.Status != nil && *e.Status != entry.Status {
		c.Status = e.Status
	}
	if e.StartedAt != nil && !e.StartedAt.Equals(entry.StartedAt) {
		c.StartedAt = ptr(e.StartedAt.Fuzzy())
	}
	if e.CompletedAt != nil && !e.CompletedAt.Equals(entry.CompletedAt) {
		c.CompletedAt = ptr(e.CompletedAt.Fuzzy())
	}
	if e.Progress != nil && *e.Progress != entry.Progress {
		c.Progress = e.Progress
	}
	if e.ProgressVolumes != nil && *e.ProgressVolumes != entry.ProgressVolumes {
		c.ProgressVolumes = e.ProgressVolumes
	}
	return c
}

// Count returns the number of non-excluded entries with a real change.
// ok is false on desync.
func Count(list *anilist.List, d draft.Draft[Entry]) (int, bool) {
	return draft.Count(list, d, differ{})
}

// Changes returns the entries to save. Excluded entries are skipped.
func Changes(list *anilist.List, d draft.Draft[Entry]) ([]anilist.EntryChanges, error) {
	return draft.Collect(list, d, differ{})
}
