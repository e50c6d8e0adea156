package fixer

import (
	"testing"
	"time"

	"github.com/rl404/verniy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigspawn/alter/internal/anilist"
	"github.com/bigspawn/alter/internal/draft"
	"github.com/bigspawn/alter/internal/fuzzydate"
)

func intPtr(v int) *int { return &v }

func finishedMedia() anilist.Media {
	return anilist.Media{
		ID:        1,
		Status:    anilist.MediaStatusFinished,
		Episodes:  intPtr(12),
		StartDate: fuzzydate.Of(2020, 4, 1),
		EndDate:   fuzzydate.Of(2020, 6, 24),
	}
}

func TestRecommend(t *testing.T) {
	t.Parallel()

	all := Tool{Fixes: AllFixes()}

	tests := []struct {
		name  string
		entry anilist.Entry
		check func(t *testing.T, e Entry)
	}{
		{
			name: "completed while airing becomes current",
			entry: anilist.Entry{
				Status: verniy.MediaListStatusCompleted,
				Media:  anilist.Media{Status: anilist.MediaStatusReleasing},
			},
			check: func(t *testing.T, e Entry) {
				require.NotNil(t, e.Status)
				assert.Equal(t, verniy.MediaListStatusCurrent, *e.Status)
				assert.True(t, e.StatusBad)
			},
		},
		{
			name: "completed while on hiatus becomes paused",
			entry: anilist.Entry{
				Status: verniy.MediaListStatusCompleted,
				Media:  anilist.Media{Status: anilist.MediaStatusHiatus},
			},
			check: func(t *testing.T, e Entry) {
				assert.Equal(t, verniy.MediaListStatusPaused, *e.Status)
			},
		},
		{
			name: "watching unreleased media becomes planning and loses dates",
			entry: anilist.Entry{
				Status:    verniy.MediaListStatusCurrent,
				StartedAt: fuzzydate.Of(2021, 1, 0),
				Media:     anilist.Media{Status: anilist.MediaStatusNotYetReleased},
			},
			check: func(t *testing.T, e Entry) {
				assert.Equal(t, verniy.MediaListStatusPlanning, *e.Status)
				require.NotNil(t, e.StartedAt)
				assert.True(t, e.StartedAt.IsCleared())
				assert.True(t, e.StartedAtBad)
				assert.Nil(t, e.CompletedAt)
			},
		},
		{
			name: "completed progress matches episodes",
			entry: anilist.Entry{
				Status:      verniy.MediaListStatusCompleted,
				Progress:    10,
				StartedAt:   fuzzydate.Of(2020, 4, 2),
				CompletedAt: fuzzydate.Of(2020, 7, 1),
				Media:       finishedMedia(),
			},
			check: func(t *testing.T, e Entry) {
				assert.Equal(t, 12, *e.Progress)
				assert.True(t, e.ProgressBad)
				assert.False(t, e.StartedAtBad)
				assert.False(t, e.CompletedAtBad)
				assert.Nil(t, e.Status)
			},
		},
		{
			name: "manga volumes",
			entry: anilist.Entry{
				Status:          verniy.MediaListStatusCompleted,
				Progress:        100,
				ProgressVolumes: 3,
				Media:           anilist.Media{Status: anilist.MediaStatusCancelled, Chapters: intPtr(100), Volumes: intPtr(10)},
			},
			check: func(t *testing.T, e Entry) {
				assert.Nil(t, e.Progress)
				assert.Equal(t, 10, *e.ProgressVolumes)
				assert.True(t, e.ProgressVolumesBad)
			},
		},
		{
			name: "start before release moves to release",
			entry: anilist.Entry{
				Status:      verniy.MediaListStatusCompleted,
				Progress:    12,
				StartedAt:   fuzzydate.Of(2019, 1, 1),
				CompletedAt: fuzzydate.Of(2020, 7, 1),
				Media:       finishedMedia(),
			},
			check: func(t *testing.T, e Entry) {
				require.NotNil(t, e.StartedAt)
				assert.Equal(t, "2020-04-01", e.StartedAt.String())
				assert.True(t, e.StartedAtBad)
			},
		},
		{
			name: "unknown media status still gets start date fixes",
			entry: anilist.Entry{
				Status:    verniy.MediaListStatusCurrent,
				StartedAt: fuzzydate.Of(2019, 1, 1),
				Media:     anilist.Media{StartDate: fuzzydate.Of(2020, 4, 1)},
			},
			check: func(t *testing.T, e Entry) {
				require.NotNil(t, e.StartedAt)
				assert.Equal(t, "2020-04-01", e.StartedAt.String())
				assert.True(t, e.StartedAtBad)
				assert.Nil(t, e.Status)
			},
		},
		{
			name: "missing dates are filled from each other",
			entry: anilist.Entry{
				Status:      verniy.MediaListStatusCompleted,
				Progress:    12,
				CompletedAt: fuzzydate.Of(2020, 8, 3),
				Media:       finishedMedia(),
			},
			check: func(t *testing.T, e Entry) {
				assert.Equal(t, "2020-08-03", e.StartedAt.String())
				assert.Nil(t, e.CompletedAt)
			},
		},
		{
			name: "missing end date falls back to media end",
			entry: anilist.Entry{
				Status:   verniy.MediaListStatusRepeating,
				Progress: 3,
				Media:    finishedMedia(),
			},
			check: func(t *testing.T, e Entry) {
				assert.Equal(t, "2020-04-01", e.StartedAt.String())
				assert.Equal(t, "2020-06-24", e.CompletedAt.String())
				assert.True(t, e.CompletedAtBad)
			},
		},
		{
			name: "end before media end moves to media end",
			entry: anilist.Entry{
				Status:      verniy.MediaListStatusCompleted,
				Progress:    12,
				StartedAt:   fuzzydate.Of(2020, 4, 1),
				CompletedAt: fuzzydate.Of(2020, 5, 1),
				Media:       finishedMedia(),
			},
			check: func(t *testing.T, e Entry) {
				assert.Equal(t, "2020-06-24", e.CompletedAt.String())
				assert.Nil(t, e.StartedAt)
			},
		},
		{
			name: "planning with dates is cleared",
			entry: anilist.Entry{
				Status:      verniy.MediaListStatusPlanning,
				StartedAt:   fuzzydate.Of(2020, 1, 1),
				CompletedAt: fuzzydate.Of(2020, 0, 0),
				Media:       finishedMedia(),
			},
			check: func(t *testing.T, e Entry) {
				assert.True(t, e.StartedAt.IsCleared())
				assert.True(t, e.CompletedAt.IsCleared())
			},
		},
		{
			name: "consistent entry is not bad",
			entry: anilist.Entry{
				Status:      verniy.MediaListStatusCompleted,
				Progress:    12,
				StartedAt:   fuzzydate.Of(2020, 4, 1),
				CompletedAt: fuzzydate.Of(2020, 6, 24),
				Media:       finishedMedia(),
			},
			check: func(t *testing.T, e Entry) {
				assert.False(t, e.Bad())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.check(t, all.Recommend(tt.entry))
		})
	}
}

func TestRecommend_FixesToggle(t *testing.T) {
	t.Parallel()

	entry := anilist.Entry{
		Status:   verniy.MediaListStatusCompleted,
		Progress: 1,
		Media:    finishedMedia(),
	}

	e := Tool{Fixes: Fixes{InvalidProgress: true}}.Recommend(entry)
	assert.True(t, e.ProgressBad)
	assert.Nil(t, e.StartedAt)
	assert.Nil(t, e.CompletedAt)

	e = Tool{}.Recommend(entry)
	assert.False(t, e.Bad())
}

func testList() *anilist.List {
	return anilist.NewList(
		anilist.Entry{ID: 1, Status: verniy.MediaListStatusCompleted, Progress: 5, Media: finishedMedia(),
			StartedAt: fuzzydate.Of(2020, 4, 1), CompletedAt: fuzzydate.Of(2020, 6, 24)},
		anilist.Entry{ID: 2, Status: verniy.MediaListStatusCompleted, Progress: 12, Media: finishedMedia(),
			StartedAt: fuzzydate.Of(2020, 4, 1), CompletedAt: fuzzydate.Of(2020, 6, 24)},
		anilist.Entry{ID: 3, Status: verniy.MediaListStatusPlanning, Media: finishedMedia(),
			StartedAt: fuzzydate.Of(2021, 0, 0)},
	)
}

func TestReduce_UpdateRecommendedAll(t *testing.T) {
	t.Parallel()

	tool := Tool{Fixes: AllFixes()}
	list := testList()

	d, err := tool.Reduce(list, draft.New[Entry](), UpdateRecommendedAll{})
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	_, ok := d.Get(2)
	assert.False(t, ok, "consistent entries are not drafted")

	n, ok := Count(list, d)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	changes, err := Changes(list, d)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, 12, *changes[0].Changes.Progress)
	assert.Equal(t, fuzzydate.Blank, *changes[1].Changes.StartedAt)

	batch, err := anilist.BuildBatch(changes, 100)
	require.NoError(t, err)
	assert.True(t, batch.Activity, "progress change engages the activity guard")
}

func TestReduce_Exclude(t *testing.T) {
	t.Parallel()

	tool := Tool{Fixes: AllFixes()}
	list := testList()

	d, err := tool.Reduce(list, draft.New[Entry](), UpdateRecommendedAll{})
	require.NoError(t, err)

	d, err = tool.Reduce(list, d, Exclude{ID: 1})
	require.NoError(t, err)

	n, ok := Count(list, d)
	require.True(t, ok)
	assert.Equal(t, 1, n)

	d, err = tool.Reduce(list, d, Exclude{ID: 1})
	require.NoError(t, err)
	n, _ = Count(list, d)
	assert.Equal(t, 2, n, "second exclude toggles back")

	no := false
	d, err = tool.Reduce(list, d, Exclude{ID: 1, Exclude: &no})
	require.NoError(t, err)
	e, _ := d.Get(1)
	assert.False(t, e.Exclude)
}

func TestReduce_UpdateDates(t *testing.T) {
	t.Parallel()

	tool := Tool{}
	list := testList()

	same := fuzzydate.Day(mustDate(t, fuzzydate.Of(2020, 4, 1)))
	d, err := tool.Reduce(list, draft.New[Entry](), Update{ID: 2, Field: StartedAt, Value: &same})
	require.NoError(t, err)

	n, ok := Count(list, d)
	require.True(t, ok)
	assert.Equal(t, 0, n, "setting the stored date is not a change")

	cleared := fuzzydate.Cleared()
	d, err = tool.Reduce(list, d, Update{ID: 2, Field: CompletedAt, Value: &cleared})
	require.NoError(t, err)
	n, _ = Count(list, d)
	assert.Equal(t, 1, n)

	changes, err := Changes(list, d)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Nil(t, changes[0].Changes.StartedAt)
	assert.Equal(t, fuzzydate.Blank, *changes[0].Changes.CompletedAt)

	d, err = tool.Reduce(list, d, Update{ID: 2, Field: CompletedAt})
	require.NoError(t, err)
	n, _ = Count(list, d)
	assert.Equal(t, 0, n, "nil value reverts")
}

func TestReduce_UpdateRecommendedSingle(t *testing.T) {
	t.Parallel()

	tool := Tool{Fixes: AllFixes()}
	list := testList()

	d, err := tool.Reduce(list, draft.New[Entry](), UpdateRecommended{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	_, err = tool.Reduce(list, d, UpdateRecommended{ID: 9})
	assert.ErrorIs(t, err, draft.ErrDesynced)

	_, err = tool.Reduce(nil, d, UpdateRecommendedAll{})
	assert.ErrorIs(t, err, draft.ErrMissingList)

	d, err = tool.Reduce(list, d, Reset{})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
}

func mustDate(t *testing.T, d verniy.FuzzyDate) time.Time {
	t.Helper()
	v, ok := fuzzydate.ToDate(d)
	require.True(t, ok)
	return v
}
