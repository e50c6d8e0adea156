package anilist

import (
	"context"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/rl404/verniy"

	"github.com/bigspawn/alter/internal/fuzzydate"
)

// MediaType selects the anime or the manga list.
type MediaType string

const (
	MediaTypeAnime MediaType = "ANIME"
	MediaTypeManga MediaType = "MANGA"
)

// ParseMediaType accepts "anime" or "manga" in any case.
func ParseMediaType(s string) (MediaType, error) {
	switch t := MediaType(strings.ToUpper(strings.TrimSpace(s))); t {
	case MediaTypeAnime, MediaTypeManga:
		return t, nil
	default:
		return "", fmt.Errorf("unknown list type %q: expected anime or manga", s)
	}
}

// MediaStatus is the release status of a media.
type MediaStatus string

const (
	MediaStatusFinished       MediaStatus = "FINISHED"
	MediaStatusReleasing      MediaStatus = "RELEASING"
	MediaStatusNotYetReleased MediaStatus = "NOT_YET_RELEASED"
	MediaStatusCancelled      MediaStatus = "CANCELLED"
	MediaStatusHiatus         MediaStatus = "HIATUS"
)

// Ended reports whether the media will not release further.
func (s MediaStatus) Ended() bool {
	return s == MediaStatusFinished || s == MediaStatusCancelled
}

// ListStatuses is every list status, in the order AniList shows them.
var ListStatuses = []verniy.MediaListStatus{
	verniy.MediaListStatusCurrent,
	verniy.MediaListStatusPlanning,
	verniy.MediaListStatusCompleted,
	verniy.MediaListStatusDropped,
	verniy.MediaListStatusPaused,
	verniy.MediaListStatusRepeating,
}

// Sort orders accepted by MediaListCollection.
const (
	SortScoreDesc   = "SCORE_DESC"
	SortUpdatedTime = "UPDATED_TIME"
)

// Title holds the media titles AniList returns.
type Title struct {
	Romaji        string
	English       string
	Native        string
	UserPreferred string
}

// Preferred returns the title for a viewer title language, falling back to
// the user-preferred and romaji titles.
func (t Title) Preferred(lang string) string {
	var s string
	switch strings.ToUpper(lang) {
	case "ENGLISH":
		s = t.English
	case "NATIVE":
		s = t.Native
	case "ROMAJI":
		s = t.Romaji
	}
	for _, v := range []string{s, t.UserPreferred, t.Romaji, t.English, t.Native} {
		if v != "" {
			return v
		}
	}
	return ""
}

// Media is the subset of media fields the tools read.
type Media struct {
	ID        int
	Title     Title
	Cover     string
	SiteURL   string
	Format    string
	Status    MediaStatus
	Episodes  *int
	Chapters  *int
	Volumes   *int
	StartDate verniy.FuzzyDate
	EndDate   verniy.FuzzyDate
}

// Entry is one list entry as last fetched.
type Entry struct {
	ID              int
	Score           int
	Status          verniy.MediaListStatus
	Progress        int
	ProgressVolumes int
	Repeat          int
	Notes           string
	StartedAt       verniy.FuzzyDate
	CompletedAt     verniy.FuzzyDate
	CreatedAt       int64
	UpdatedAt       int64
	Media           Media
}

// Length returns episodes for anime or chapters for manga, whichever is known.
func (m Media) Length() *int {
	if m.Episodes != nil {
		return m.Episodes
	}
	return m.Chapters
}

// List is an immutable snapshot of entries keyed by entry id. Iteration
// follows the order in which the API returned them.
type List struct {
	ids     []int
	entries map[int]Entry
}

// NewList builds a snapshot. When an id repeats, the first occurrence wins.
func NewList(entries ...Entry) *List {
	l := &List{
		ids:     make([]int, 0, len(entries)),
		entries: make(map[int]Entry, len(entries)),
	}
	for _, e := range entries {
		if _, ok := l.entries[e.ID]; ok {
			continue
		}
		l.ids = append(l.ids, e.ID)
		l.entries[e.ID] = e
	}
	return l
}

// Get returns the entry with the given id.
func (l *List) Get(id int) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	e, ok := l.entries[id]
	return e, ok
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.ids)
}

// All iterates entries in snapshot order.
func (l *List) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if l == nil {
			return
		}
		for _, id := range l.ids {
			if !yield(l.entries[id]) {
				return
			}
		}
	}
}

// ListOptions selects which part of a user's list a snapshot covers.
type ListOptions struct {
	UserID   int
	Type     MediaType
	StatusIn []verniy.MediaListStatus
	Sort     []string
}

const listQuery = `query ($userId: Int, $type: MediaType, $statusIn: [MediaListStatus], $sort: [MediaListSort]) {
  MediaListCollection(userId: $userId, type: $type, status_in: $statusIn, sort: $sort, forceSingleCompletedList: true) {
    lists {
      entries {
        id
        score(format: POINT_100)
        status
        progress
        progressVolumes
        repeat
        notes
        startedAt { year month day }
        completedAt { year month day }
        createdAt
        updatedAt
        media {
          id
          title { romaji english native userPreferred }
          coverImage { medium }
          siteUrl
          format
          status(version: 2)
          episodes
          chapters
          volumes
          startDate { year month day }
          endDate { year month day }
        }
      }
    }
  }
}`

type listResponse struct {
	MediaListCollection struct {
		Lists []struct {
			Entries []entryJSON `json:"entries"`
		} `json:"lists"`
	} `json:"MediaListCollection"`
}

type entryJSON struct {
	ID              int               `json:"id"`
	Score           *float64          `json:"score"`
	Status          string            `json:"status"`
	Progress        *int              `json:"progress"`
	ProgressVolumes *int              `json:"progressVolumes"`
	Repeat          *int              `json:"repeat"`
	Notes           *string           `json:"notes"`
	StartedAt       *verniy.FuzzyDate `json:"startedAt"`
	CompletedAt     *verniy.FuzzyDate `json:"completedAt"`
	CreatedAt       int64             `json:"createdAt"`
	UpdatedAt       int64             `json:"updatedAt"`
	Media           *mediaJSON        `json:"media"`
}

type mediaJSON struct {
	ID    int `json:"id"`
	Title *struct {
		Romaji        *string `json:"romaji"`
		English       *string `json:"english"`
		Native        *string `json:"native"`
		UserPreferred *string `json:"userPreferred"`
	} `json:"title"`
	CoverImage *struct {
		Medium *string `json:"medium"`
	} `json:"coverImage"`
	SiteURL   *string           `json:"siteUrl"`
	Format    *string           `json:"format"`
	Status    *string           `json:"status"`
	Episodes  *int              `json:"episodes"`
	Chapters  *int              `json:"chapters"`
	Volumes   *int              `json:"volumes"`
	StartDate *verniy.FuzzyDate `json:"startDate"`
	EndDate   *verniy.FuzzyDate `json:"endDate"`
}

// GetList fetches a fresh snapshot of the user's list.
func GetList(ctx context.Context, r Requester, opts ListOptions) (*List, error) {
	vars := map[string]any{
		"userId": opts.UserID,
		"type":   opts.Type,
	}
	if len(opts.StatusIn) > 0 {
		vars["statusIn"] = opts.StatusIn
	}
	if len(opts.Sort) > 0 {
		vars["sort"] = opts.Sort
	}

	resp, err := do[listResponse](ctx, r, listQuery, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s list: %w", strings.ToLower(string(opts.Type)), err)
	}

	var entries []Entry
	for _, group := range resp.MediaListCollection.Lists {
		for _, e := range group.Entries {
			entries = append(entries, e.toEntry())
		}
	}

	return NewList(entries...), nil
}

func (e entryJSON) toEntry() Entry {
	entry := Entry{
		ID:              e.ID,
		Status:          verniy.MediaListStatus(strings.ToUpper(e.Status)),
		Progress:        deref(e.Progress),
		ProgressVolumes: deref(e.ProgressVolumes),
		Repeat:          deref(e.Repeat),
		Notes:           deref(e.Notes),
		StartedAt:       fuzzydate.FromPtr(e.StartedAt),
		CompletedAt:     fuzzydate.FromPtr(e.CompletedAt),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Score != nil {
		entry.Score = int(math.Round(*e.Score))
	}
	if e.Media != nil {
		entry.Media = e.Media.toMedia()
	}
	return entry
}

func (m mediaJSON) toMedia() Media {
	media := Media{
		ID:        m.ID,
		SiteURL:   deref(m.SiteURL),
		Format:    deref(m.Format),
		Status:    MediaStatus(deref(m.Status)),
		Episodes:  m.Episodes,
		Chapters:  m.Chapters,
		Volumes:   m.Volumes,
		StartDate: fuzzydate.FromPtr(m.StartDate),
		EndDate:   fuzzydate.FromPtr(m.EndDate),
	}
	if m.Title != nil {
		media.Title = Title{
			Romaji:        deref(m.Title.Romaji),
			English:       deref(m.Title.English),
			Native:        deref(m.Title.Native),
			UserPreferred: deref(m.Title.UserPreferred),
		}
	}
	if m.CoverImage != nil {
		media.Cover = deref(m.CoverImage.Medium)
	}
	return media
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
