package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorderNotifier captures notifications and fails on demand
type recorderNotifier struct {
	name string
	fail bool
	sent []Notification
}

func (r *recorderNotifier) Name() string { return r.name }

func (r *recorderNotifier) Send(_ context.Context, n Notification) error {
	if r.fail {
		return errors.New("channel down")
	}
	r.sent = append(r.sent, n)
	return nil
}

func TestDispatchStopsAtFirstSuccess(t *testing.T) {
	first := &recorderNotifier{name: "first"}
	second := &recorderNotifier{name: "second"}
	d := NewDispatcher(first, second)

	err := d.Dispatch(context.Background(), Notification{Title: "hello"})
	require.NoError(t, err)
	assert.Len(t, first.sent, 1)
	assert.Empty(t, second.sent)
}

func TestDispatchFallsBackOnFailure(t *testing.T) {
	first := &recorderNotifier{name: "first", fail: true}
	second := &recorderNotifier{name: "second"}
	d := NewDispatcher(first, second)

	err := d.Dispatch(context.Background(), Notification{Title: "hello"})
	require.NoError(t, err)
	require.Len(t, second.sent, 1)
	assert.Equal(t, "hello", second.sent[0].Title)
}

func TestDispatchReportsTotalFailure(t *testing.T) {
	first := &recorderNotifier{name: "first", fail: true}
	second := &recorderNotifier{name: "second", fail: true}
	d := NewDispatcher(first, second)

	err := d.Dispatch(context.Background(), Notification{Title: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all notification channels failed")
}

func TestDispatchWithoutChannels(t *testing.T) {
	d := NewDispatcher()
	err := d.Dispatch(context.Background(), Notification{Title: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no notification channels configured")
}

func TestWebhookNotifierPostsJSON(t *testing.T) {
	var received Notification
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "secret-token")
	err := n.Send(context.Background(), Notification{
		Title: "Upcoming Prayer: Fajr",
		Body:  "Fajr is in 7 minutes.",
		Tag:   "prayer-Fajr",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, "Upcoming Prayer: Fajr", received.Title)
	assert.Equal(t, "prayer-Fajr", received.Tag)
}

func TestWebhookNotifierWithoutToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "")
	require.NoError(t, n.Send(context.Background(), Notification{Title: "t"}))
	assert.Empty(t, auth)
}

func TestWebhookNotifierRejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "")
	err := n.Send(context.Background(), Notification{Title: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestLogNotifierAlwaysSucceeds(t *testing.T) {
	n := NewLogNotifier()
	assert.NoError(t, n.Send(context.Background(), Notification{Title: "t"}))
}
