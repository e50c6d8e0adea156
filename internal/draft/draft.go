// Package draft holds pending edits to a list snapshot and diffs them
// against it.
package draft

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/bigspawn/alter/internal/anilist"
)

// ErrDesynced is returned when a draft names an entry the snapshot no
// longer contains. The caller should refetch the list.
var ErrDesynced = errors.New("draft is out of sync with the list")

// ErrMissingList is returned by actions that need the snapshot when none is loaded.
var ErrMissingList = errors.New("list data is missing, refresh and try again")

// Draft maps entry ids to per-tool edit records. It keeps insertion order.
//
// Set and Delete mutate in place; reducers call Clone first so that a
// previously returned draft never changes.
type Draft[E any] struct {
	ids     []int
	entries map[int]E
}

// New returns an empty draft.
func New[E any]() Draft[E] {
	return Draft[E]{entries: map[int]E{}}
}

// Clone returns an independent copy.
func (d Draft[E]) Clone() Draft[E] {
	out := Draft[E]{
		ids:     slices.Clone(d.ids),
		entries: make(map[int]E, len(d.entries)),
	}
	for id, e := range d.entries {
		out.entries[id] = e
	}
	return out
}

// Get returns the record for id.
func (d Draft[E]) Get(id int) (E, bool) {
	e, ok := d.entries[id]
	return e, ok
}

// Set stores the record for id.
func (d *Draft[E]) Set(id int, e E) {
	if d.entries == nil {
		d.entries = map[int]E{}
	}
	if _, ok := d.entries[id]; !ok {
		d.ids = append(d.ids, id)
	}
	d.entries[id] = e
}

// Update applies fn to the record for id, starting from the zero value.
func (d *Draft[E]) Update(id int, fn func(E) E) {
	e, _ := d.Get(id)
	d.Set(id, fn(e))
}

// Delete removes the record for id.
func (d *Draft[E]) Delete(id int) {
	if _, ok := d.entries[id]; !ok {
		return
	}
	delete(d.entries, id)
	d.ids = slices.DeleteFunc(d.ids, func(v int) bool { return v == id })
}

func (d Draft[E]) Len() int {
	return len(d.ids)
}

// All iterates records in insertion order.
func (d Draft[E]) All() iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for _, id := range d.ids {
			if !yield(id, d.entries[id]) {
				return
			}
		}
	}
}

// Differ compares draft records against snapshot entries.
type Differ[E any] interface {
	// Pending reports whether a record holds anything to compare. Records
	// that do not are skipped before the snapshot lookup.
	Pending(e E) bool
	// Changes returns only the fields whose value differs from the entry.
	Changes(e E, entry anilist.Entry) anilist.Changes
}

// Count returns how many pending records change their entry. ok is false
// when a pending record has no snapshot entry.
func Count[E any](list *anilist.List, d Draft[E], differ Differ[E]) (n int, ok bool) {
	for id, e := range d.All() {
		if !differ.Pending(e) {
			continue
		}
		entry, found := list.Get(id)
		if !found {
			return 0, false
		}
		if !differ.Changes(e, entry).IsEmpty() {
			n++
		}
	}
	return n, true
}

// Collect returns the effective changes of every record, dropping records
// whose values already match the snapshot.
func Collect[E any](list *anilist.List, d Draft[E], differ Differ[E]) ([]anilist.EntryChanges, error) {
	var out []anilist.EntryChanges
	for id, e := range d.All() {
		if !differ.Pending(e) {
			continue
		}
		entry, found := list.Get(id)
		if !found {
			return nil, fmt.Errorf("%w: entry %d", ErrDesynced, id)
		}
		changes := differ.Changes(e, entry)
		if changes.IsEmpty() {
			continue
		}
		out = append(out, anilist.EntryChanges{ID: id, Changes: changes})
	}
	return out, nil
}
