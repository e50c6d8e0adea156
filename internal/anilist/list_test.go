package anilist

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rl404/verniy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const listFixture = `{
  "MediaListCollection": {
    "lists": [
      {"entries": [
        {"id": 1, "score": 85, "status": "COMPLETED", "progress": 12, "notes": "great",
         "startedAt": {"year": 2020, "month": 1, "day": 2}, "completedAt": {"year": null, "month": null, "day": null},
         "updatedAt": 1700000000,
         "media": {"id": 100, "title": {"romaji": "Foo", "english": "Foo EN"}, "status": "FINISHED", "episodes": 12,
                   "startDate": {"year": 2019, "month": 10, "day": 1}}},
        {"id": 2, "score": 72.5, "status": "current", "progress": null, "media": null}
      ]},
      {"entries": [
        {"id": 1, "score": 10, "status": "DROPPED"},
        {"id": 3, "score": 0, "status": "PLANNING"}
      ]}
    ]
  }
}`

func TestGetList(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	r := NewMockRequester(ctrl)

	r.EXPECT().
		Request(gomock.Any(), listQuery, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, vars map[string]any) (json.RawMessage, error) {
			assert.Equal(t, 5, vars["userId"])
			assert.Equal(t, MediaTypeAnime, vars["type"])
			assert.Equal(t, []string{SortScoreDesc}, vars["sort"])
			assert.NotContains(t, vars, "statusIn")
			return json.RawMessage(listFixture), nil
		})

	list, err := GetList(t.Context(), r, ListOptions{UserID: 5, Type: MediaTypeAnime, Sort: []string{SortScoreDesc}})
	require.NoError(t, err)

	require.Equal(t, 3, list.Len())

	first, ok := list.Get(1)
	require.True(t, ok)
	assert.Equal(t, 85, first.Score, "first occurrence wins")
	assert.Equal(t, verniy.MediaListStatusCompleted, first.Status)
	assert.Equal(t, "great", first.Notes)
	assert.Equal(t, 2020, *first.StartedAt.Year)
	assert.Nil(t, first.CompletedAt.Year)
	assert.Equal(t, MediaStatusFinished, first.Media.Status)
	assert.Equal(t, 12, *first.Media.Length())
	assert.Equal(t, "Foo EN", first.Media.Title.Preferred("ENGLISH"))
	assert.Equal(t, "Foo", first.Media.Title.Preferred("NATIVE"))

	second, ok := list.Get(2)
	require.True(t, ok)
	assert.Equal(t, 73, second.Score)
	assert.Equal(t, verniy.MediaListStatusCurrent, second.Status)
	assert.Equal(t, 0, second.Progress)

	var ids []int
	for e := range list.All() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestGetList_Error(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	r := NewMockRequester(ctrl)
	r.EXPECT().Request(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, &APIError{Status: 500, Text: "boom"})

	_, err := GetList(t.Context(), r, ListOptions{Type: MediaTypeManga})

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindServer, kind)
	assert.Contains(t, err.Error(), "manga list")
}

func TestList_Nil(t *testing.T) {
	t.Parallel()

	var l *List
	assert.Equal(t, 0, l.Len())
	_, ok := l.Get(1)
	assert.False(t, ok)
	for range l.All() {
		t.Fatal("nil list yields nothing")
	}
}

func TestParseMediaType(t *testing.T) {
	t.Parallel()

	mt, err := ParseMediaType(" Anime ")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeAnime, mt)

	mt, err = ParseMediaType("manga")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeManga, mt)

	_, err = ParseMediaType("novel")
	assert.Error(t, err)
}

func TestMediaStatus(t *testing.T) {
	t.Parallel()

	assert.True(t, MediaStatusCancelled.Ended())
	assert.False(t, MediaStatusHiatus.Ended())
}
