package gateway

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quick fires after a millisecond, bypassing cron's whole-second rounding.
type quick struct{}

func (quick) Next(t time.Time) time.Time { return t.Add(time.Millisecond) }

func TestWaitImageSearch_Completes(t *testing.T) {
	var polls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeJSON(w, http.StatusOK, `{"searchId":"s1","status":"pending"}`)
		default:
			if polls.Add(1) < 3 {
				writeJSON(w, http.StatusOK, `{"id":"s1","status":"running"}`)
				return
			}
			writeJSON(w, http.StatusOK, `{"id":"s1","status":"completed","images":[{"url":"https://img/1.png","source":"wiki"}]}`)
		}
	}, "tok")

	ctx := context.Background()
	started, err := c.StartImageSearch(ctx, "Toyota", "Corolla")
	require.NoError(t, err)
	assert.Equal(t, "s1", started.ID)

	got, err := c.WaitImageSearch(ctx, started.ID, quick{})
	require.NoError(t, err)
	assert.Equal(t, SearchCompleted, got.Status)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "https://img/1.png", got.Images[0].URL)
	assert.Equal(t, int32(3), polls.Load())
}

func TestWaitImageSearch_Failed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"s1","status":"failed","error":"no results"}`)
	}, "tok")

	got, err := c.WaitImageSearch(context.Background(), "s1", quick{})
	assert.ErrorContains(t, err, "no results")
	assert.Equal(t, SearchFailed, got.Status)
}

func TestWaitImageSearch_TransientErrorsRetried(t *testing.T) {
	var polls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"completed"}`)
	}, "tok")

	got, err := c.WaitImageSearch(context.Background(), "s1", quick{})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Empty(t, got.Images)
}

func TestWaitImageSearch_NotFoundStops(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{}`)
	}, "tok")

	_, err := c.WaitImageSearch(context.Background(), "gone", quick{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWaitImageSearch_Cancel(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"running"}`)
	}, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	got, err := c.WaitImageSearch(ctx, "s1", quick{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, SearchRunning, got.Status)
}
