// Package session ties a snapshot, a draft and the saver together for one tool.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/cache"
	"github.com/bigspawn/alter/internal/draft"
	"github.com/bigspawn/alter/internal/logger"
)

// Tool is the per-tool behaviour a Session drives.
type Tool[E, A any] struct {
	Reduce  func(list *anilist.List, d draft.Draft[E], a A) (draft.Draft[E], error)
	Count   func(list *anilist.List, d draft.Draft[E]) (int, bool)
	Changes func(list *anilist.List, d draft.Draft[E]) ([]anilist.EntryChanges, error)
}

// Session holds the state of one tool run.
type Session[E, A any] struct {
	r     anilist.Requester
	cache cache.Store[*anilist.List]
	saver *anilist.Saver
	opts  anilist.ListOptions
	tool  Tool[E, A]

	list  *anilist.List
	draft draft.Draft[E]
}

// New creates a session. cache may be nil.
func New[E, A any](
	r anilist.Requester,
	c cache.Store[*anilist.List],
	saver *anilist.Saver,
	opts anilist.ListOptions,
	tool Tool[E, A],
) *Session[E, A] {
	return &Session[E, A]{
		r:     r,
		cache: c,
		saver: saver,
		opts:  opts,
		tool:  tool,
		draft: draft.New[E](),
	}
}

func (s *Session[E, A]) key() cache.Key {
	return cache.NewKey(string(s.opts.Type), s.opts.StatusIn, s.opts.Sort)
}

// Load fetches the snapshot, from the cache unless refresh is set.
func (s *Session[E, A]) Load(ctx context.Context, refresh bool) (*anilist.List, error) {
	key := s.key()
	if !refresh && s.cache != nil {
		if list, ok := s.cache.Get(key); ok {
			logger.Debug(ctx, "Using cached snapshot %s", key)
			s.list = list
			return list, nil
		}
	}

	list, err := anilist.GetList(ctx, s.r, s.opts)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "Fetched %d entries for %s", list.Len(), key)

	if s.cache != nil {
		s.cache.Set(key, list)
	}
	s.list = list
	return list, nil
}

// List returns the loaded snapshot, or nil.
func (s *Session[E, A]) List() *anilist.List {
	return s.list
}

// Draft returns the current draft.
func (s *Session[E, A]) Draft() draft.Draft[E] {
	return s.draft
}

// Dispatch applies actions in order. The draft is unchanged if any fails.
func (s *Session[E, A]) Dispatch(actions ...A) error {
	next := s.draft
	for _, a := range actions {
		d, err := s.tool.Reduce(s.list, next, a)
		if err != nil {
			return err
		}
		next = d
	}
	s.draft = next
	return nil
}

// Count returns how many entries a save would change.
func (s *Session[E, A]) Count() (int, error) {
	n, ok := s.tool.Count(s.list, s.draft)
	if !ok {
		return 0, fmt.Errorf("%w, refresh and try again", draft.ErrDesynced)
	}
	return n, nil
}

// Changes returns the changes a save would submit.
func (s *Session[E, A]) Changes() ([]anilist.EntryChanges, error) {
	if s.list == nil {
		return nil, draft.ErrMissingList
	}
	return s.tool.Changes(s.list, s.draft)
}

// Save submits the draft and resets it on success. After any attempt that
// reached the server the cached snapshots of the list type are dropped.
func (s *Session[E, A]) Save(ctx context.Context) (anilist.SaveReport, error) {
	changes, err := s.Changes()
	if err != nil {
		return anilist.SaveReport{}, err
	}

	report, err := s.saver.Save(ctx, changes)
	var saveErr *anilist.SaveError
	switch {
	case err == nil && report.Chunks == 0:
		// Nothing was sent, so the snapshot still holds.
		s.draft = draft.New[E]()
		return report, nil
	case err != nil && report.Applied == 0 && !errors.As(err, &saveErr):
		return report, err
	}

	if s.cache != nil {
		s.cache.Invalidate(string(s.opts.Type))
	}
	s.draft = draft.New[E]()
	s.list = nil

	return report, err
}
