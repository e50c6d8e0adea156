package anilist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rl404/verniy"

	"github.com/bigspawn/alter/internal/logger"
)

// Viewer is the authenticated user.
type Viewer struct {
	ID            int
	Name          string
	SiteURL       string
	Avatar        string
	TitleLanguage string
	ScoreFormat   verniy.ScoreFormat
}

const viewerQuery = `query {
  Viewer {
    id
    name
    siteUrl
    avatar { medium }
    options { titleLanguage }
    mediaListOptions { scoreFormat }
  }
}`

type viewerResponse struct {
	Viewer struct {
		ID      int     `json:"id"`
		Name    string  `json:"name"`
		SiteURL *string `json:"siteUrl"`
		Avatar  *struct {
			Medium *string `json:"medium"`
		} `json:"avatar"`
		Options *struct {
			TitleLanguage *string `json:"titleLanguage"`
		} `json:"options"`
		MediaListOptions *struct {
			ScoreFormat *string `json:"scoreFormat"`
		} `json:"mediaListOptions"`
	} `json:"Viewer"`
}

// GetViewer fetches the authenticated user and their list settings.
func GetViewer(ctx context.Context, r Requester) (*Viewer, error) {
	resp, err := do[viewerResponse](ctx, r, viewerQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer: %w", err)
	}

	v := resp.Viewer
	viewer := &Viewer{
		ID:            v.ID,
		Name:          v.Name,
		SiteURL:       deref(v.SiteURL),
		TitleLanguage: "ROMAJI",
		ScoreFormat:   verniy.ScoreFormatPoint100,
	}
	if v.Avatar != nil {
		viewer.Avatar = deref(v.Avatar.Medium)
	}
	if v.Options != nil && v.Options.TitleLanguage != nil {
		// ROMAJI_STYLISED and friends share the base language.
		viewer.TitleLanguage, _, _ = strings.Cut(*v.Options.TitleLanguage, "_")
	}
	if v.MediaListOptions != nil && v.MediaListOptions.ScoreFormat != nil {
		viewer.ScoreFormat = verniy.ScoreFormat(*v.MediaListOptions.ScoreFormat)
	}

	return viewer, nil
}

// ListActivityOption is the per-status activity suppression setting.
type ListActivityOption struct {
	Disabled bool                   `json:"disabled"`
	Type     verniy.MediaListStatus `json:"type"`
}

const disabledListActivityQuery = `query {
  Viewer {
    options {
      disabledListActivity { disabled type }
    }
  }
}`

const updateDisabledListActivityMutation = `mutation ($disabledListActivity: [ListActivityOptionInput]) {
  UpdateUser(disabledListActivity: $disabledListActivity) {
    id
  }
}`

type disabledListActivityResponse struct {
	Viewer struct {
		Options struct {
			DisabledListActivity []ListActivityOption `json:"disabledListActivity"`
		} `json:"options"`
	} `json:"Viewer"`
}

// GetDisabledListActivity reads the viewer's activity suppression settings.
func GetDisabledListActivity(ctx context.Context, r Requester) ([]ListActivityOption, error) {
	resp, err := do[disabledListActivityResponse](ctx, r, disabledListActivityQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get list activity settings: %w", err)
	}
	return resp.Viewer.Options.DisabledListActivity, nil
}

// SetDisabledListActivity overwrites the viewer's activity suppression settings.
func SetDisabledListActivity(ctx context.Context, r Requester, opts []ListActivityOption) error {
	vars := map[string]any{"disabledListActivity": opts}
	if _, err := r.Request(ctx, updateDisabledListActivityMutation, vars); err != nil {
		return fmt.Errorf("failed to update list activity settings: %w", err)
	}
	return nil
}

// WithListActivityDisabled suppresses activity generation for every list
// status while run executes, then restores the previous settings. The
// restore runs exactly once if suppression succeeded, whatever run returns,
// and is not affected by ctx cancellation.
func WithListActivityDisabled(ctx context.Context, r Requester, run func() error) (err error) {
	prev, err := GetDisabledListActivity(ctx, r)
	if err != nil {
		return err
	}

	all := make([]ListActivityOption, 0, len(ListStatuses))
	for _, status := range ListStatuses {
		all = append(all, ListActivityOption{Disabled: true, Type: status})
	}
	if err := SetDisabledListActivity(ctx, r, all); err != nil {
		return err
	}
	logger.Debug(ctx, "List activity disabled for %d statuses", len(all))

	defer func() {
		if restoreErr := SetDisabledListActivity(context.WithoutCancel(ctx), r, prev); restoreErr != nil {
			logger.Warn(ctx, "Failed to restore list activity settings: %v", restoreErr)
			err = errors.Join(err, restoreErr)
			return
		}
		logger.Debug(ctx, "List activity settings restored")
	}()

	return run()
}
