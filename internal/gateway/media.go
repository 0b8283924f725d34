package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aegisrent/aegis-console/internal/casing"
	"github.com/aegisrent/aegis-console/internal/poll"
)

// ImageSearchPollInterval is the default cadence of WaitImageSearch.
const ImageSearchPollInterval = 2 * time.Second

// Image search states.
const (
	SearchPending   = "pending"
	SearchRunning   = "running"
	SearchCompleted = "completed"
	SearchFailed    = "failed"
)

// FoundImage is one image candidate returned by a search.
type FoundImage struct {
	URL    string `json:"url"`
	Source string `json:"source,omitempty"`
}

// ImageSearch is a backend-run search for vehicle model images.
type ImageSearch struct {
	ID     string       `json:"id"`
	Status string       `json:"status"`
	Images []FoundImage `json:"images"`
	Error  string       `json:"error,omitempty"`
}

// Terminal reports whether the search has finished either way.
func (s ImageSearch) Terminal() bool {
	return s.Status == SearchCompleted || s.Status == SearchFailed
}

func imageSearchFromFields(f casing.Fields) ImageSearch {
	s := ImageSearch{
		ID:     f.String("id"),
		Status: f.String("status"),
		Error:  f.String("error"),
		Images: []FoundImage{},
	}
	if s.ID == "" {
		s.ID = f.String("searchId")
	}
	if raw, ok := f.Raw("images"); ok {
		images, err := decodeList(raw, func(img casing.Fields) FoundImage {
			return FoundImage{URL: img.String("url"), Source: img.String("source")}
		})
		if err == nil {
			s.Images = images
		}
	}
	return s
}

// StartImageSearch asks the backend to look for images of a make and model.
func (c *Client) StartImageSearch(ctx context.Context, vehicleMake, model string) (ImageSearch, error) {
	var raw json.RawMessage
	payload := map[string]string{"make": vehicleMake, "model": model}
	if err := c.post(ctx, "/media/image-search", payload, &raw); err != nil {
		return ImageSearch{}, fmt.Errorf("start image search: %w", err)
	}
	s, err := decodeOne(raw, imageSearchFromFields)
	if err != nil {
		return ImageSearch{}, fmt.Errorf("start image search: %w", err)
	}
	if s.ID == "" {
		return ImageSearch{}, errors.New("start image search: backend returned no search id")
	}
	return s, nil
}

// ImageSearch fetches the current state of a search.
func (c *Client) ImageSearch(ctx context.Context, id string) (ImageSearch, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/media/image-search/"+url.PathEscape(id), nil, &raw); err != nil {
		return ImageSearch{}, fmt.Errorf("get image search %s: %w", id, err)
	}
	s, err := decodeOne(raw, imageSearchFromFields)
	if err != nil {
		return ImageSearch{}, fmt.Errorf("get image search %s: %w", id, err)
	}
	if s.ID == "" {
		s.ID = id
	}
	return s, nil
}

// WaitImageSearch polls a search until it reaches a terminal state, ctx is
// done, or the search can no longer be read. every sets the cadence; nil
// means ImageSearchPollInterval. Transient fetch errors are logged and
// retried.
func (c *Client) WaitImageSearch(ctx context.Context, id string, every cron.Schedule) (ImageSearch, error) {
	if every == nil {
		every = poll.Every(ImageSearchPollInterval)
	}

	var (
		last    ImageSearch
		lastErr error
	)
	task := poll.New("image_search", poll.Immediately, func(ctx context.Context) cron.Schedule {
		s, err := c.ImageSearch(ctx, id)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNoSession) {
				return nil
			}
			c.logger.Warn().Err(err).Str("search_id", id).Msg("image search poll failed")
			return every
		}
		last, lastErr = s, nil
		if s.Terminal() {
			return nil
		}
		return every
	}, c.logger)

	task.Start(ctx)
	<-task.Done()

	switch {
	case lastErr != nil && !last.Terminal():
		if ctx.Err() != nil {
			return last, ctx.Err()
		}
		return last, lastErr
	case !last.Terminal():
		return last, ctx.Err()
	case last.Status == SearchFailed:
		return last, fmt.Errorf("image search %s failed: %s", id, last.Error)
	}
	return last, nil
}
