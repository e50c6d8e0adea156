package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/cache"
	"github.com/bigspawn/alter/internal/draft"
	"github.com/bigspawn/alter/internal/score"
	"github.com/bigspawn/alter/internal/tools/scorer"
)

const listBody = `{"MediaListCollection":{"lists":[{"entries":[
  {"id":1,"score":70,"status":"COMPLETED","media":{"id":101}},
  {"id":2,"score":0,"status":"CURRENT","media":{"id":102}}
]}]}}`

type fakeAPI struct {
	mu       sync.Mutex
	lists    int
	saves    int
	failSave bool
}

func (f *fakeAPI) Request(_ context.Context, query string, _ map[string]any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.Contains(query, "MediaListCollection") {
		f.lists++
		return json.RawMessage(listBody), nil
	}
	f.saves++
	if f.failSave {
		return nil, &anilist.APIError{Status: 500, Text: "down"}
	}
	return json.RawMessage(`{}`), nil
}

func newScorerSession(t *testing.T, api *fakeAPI, c cache.Store[*anilist.List]) *Session[scorer.Entry, scorer.Action] {
	t.Helper()

	system, err := score.For("POINT_100")
	require.NoError(t, err)
	tool := scorer.Tool{System: system}

	return New(api, c, anilist.NewSaver(api),
		scorer.ListOptions(7, anilist.MediaTypeAnime),
		Tool[scorer.Entry, scorer.Action]{
			Reduce: tool.Reduce,
			Count: func(l *anilist.List, d draft.Draft[scorer.Entry]) (int, bool) {
				c, ok := scorer.Count(l, d)
				return c.Actual, ok
			},
			Changes: scorer.Changes,
		})
}

func TestSession_LoadUsesCache(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := cache.NewMemory[*anilist.List](0)

	s := newScorerSession(t, api, c)
	list, err := s.Load(t.Context(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Len())

	other := newScorerSession(t, api, c)
	_, err = other.Load(t.Context(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, api.lists, "second load is served from the cache")

	_, err = other.Load(t.Context(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, api.lists)
}

func TestSession_DispatchCountSave(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := cache.NewMemory[*anilist.List](0)
	s := newScorerSession(t, api, c)

	_, err := s.Load(t.Context(), false)
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(
		scorer.UpdateScore{ID: 1, Display: "70"},
		scorer.UpdateScore{ID: 2, Display: "55"},
	))
	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "unchanged score is not counted")

	report, err := s.Save(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Entries)
	assert.Equal(t, 1, report.Chunks)
	assert.False(t, report.ActivitySuppressed)
	assert.NotEmpty(t, report.OperationID)
	assert.Equal(t, 1, api.saves)

	assert.Equal(t, 0, s.Draft().Len(), "draft is reset after save")
	assert.Nil(t, s.List())
	assert.Equal(t, 0, c.Size(), "snapshot is invalidated after save")
}

func TestSession_SaveNothing(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	c := cache.NewMemory[*anilist.List](0)
	s := newScorerSession(t, api, c)
	_, err := s.Load(t.Context(), false)
	require.NoError(t, err)

	require.NoError(t, s.Dispatch(scorer.UpdateScore{ID: 1, Display: "70"}))

	report, err := s.Save(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Chunks)
	assert.Equal(t, 0, api.saves)
	assert.Equal(t, 1, c.Size(), "no-op save keeps the snapshot")
	assert.Equal(t, 0, s.Draft().Len(), "draft is reset after a successful save")

	n, err := s.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSession_SaveFailureResets(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{failSave: true}
	c := cache.NewMemory[*anilist.List](0)
	s := newScorerSession(t, api, c)
	_, err := s.Load(t.Context(), false)
	require.NoError(t, err)
	require.NoError(t, s.Dispatch(scorer.UpdateScore{ID: 2, Display: "40"}))

	_, err = s.Save(t.Context())
	var saveErr *anilist.SaveError
	require.True(t, errors.As(err, &saveErr))
	assert.Equal(t, 0, saveErr.Applied)
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, 0, s.Draft().Len())
}

func TestSession_DispatchIsAtomic(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	s := newScorerSession(t, api, nil)
	_, err := s.Load(t.Context(), false)
	require.NoError(t, err)

	err = s.Dispatch(
		scorer.UpdateScore{ID: 1, Display: "90"},
		scorer.Step{ID: 99, Dir: 1},
	)
	require.Error(t, err)
	assert.Equal(t, 0, s.Draft().Len())
}

func TestSession_WithoutList(t *testing.T) {
	t.Parallel()

	s := newScorerSession(t, &fakeAPI{}, nil)

	_, err := s.Save(t.Context())
	assert.ErrorIs(t, err, draft.ErrMissingList)
}
