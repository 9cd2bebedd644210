package video

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zoomTestServers(t *testing.T, exchanges *atomic.Int32, meetingStatus int) (oauthURL, apiURL string) {
	t.Helper()

	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges.Add(1)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok, "token exchange must use basic auth")
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "account_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "account-id", r.FormValue("account_id"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(oauth.Close)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me/meetings", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotEmpty(t, body["topic"])
		assert.NotEmpty(t, body["start_time"])
		assert.Contains(t, body, "settings")

		w.WriteHeader(meetingStatus)
		if meetingStatus == http.StatusCreated {
			json.NewEncoder(w).Encode(map[string]any{"join_url": "https://zoom.us/j/123456"})
		}
	}))
	t.Cleanup(api.Close)

	return oauth.URL, api.URL
}

func configuredService(oauthURL, apiURL string) *ConferenceService {
	return NewConferenceService(Config{
		AccountID:    "account-id",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		BaseURL:      apiURL,
		OAuthURL:     oauthURL,
	})
}

func TestCreateMeetingUnconfiguredFallsBack(t *testing.T) {
	svc := NewConferenceService(Config{})

	url := svc.CreateMeeting(context.Background(), 42, time.Now().Add(time.Hour), 60)
	assert.Equal(t, "https://meet.jit.si/tutor-lesson-42", url)

	again := svc.CreateMeeting(context.Background(), 42, time.Now().Add(2*time.Hour), 30)
	assert.Equal(t, url, again, "fallback link is deterministic per lesson id")
}

func TestCreateMeetingHappyPath(t *testing.T) {
	var exchanges atomic.Int32
	oauthURL, apiURL := zoomTestServers(t, &exchanges, http.StatusCreated)
	svc := configuredService(oauthURL, apiURL)

	url := svc.CreateMeeting(context.Background(), 7, time.Now().Add(time.Hour), 60)
	assert.Equal(t, "https://zoom.us/j/123456", url)
}

func TestTokenCachedAcrossCalls(t *testing.T) {
	var exchanges atomic.Int32
	oauthURL, apiURL := zoomTestServers(t, &exchanges, http.StatusCreated)
	svc := configuredService(oauthURL, apiURL)

	svc.CreateMeeting(context.Background(), 1, time.Now().Add(time.Hour), 60)
	svc.CreateMeeting(context.Background(), 2, time.Now().Add(time.Hour), 60)

	assert.Equal(t, int32(1), exchanges.Load(),
		"two meetings inside the token lifetime must trigger exactly one exchange")
}

func TestCreateMeetingAPIErrorFallsBack(t *testing.T) {
	var exchanges atomic.Int32
	oauthURL, apiURL := zoomTestServers(t, &exchanges, http.StatusInternalServerError)
	svc := configuredService(oauthURL, apiURL)

	url := svc.CreateMeeting(context.Background(), 9, time.Now().Add(time.Hour), 45)
	assert.Equal(t, "https://meet.jit.si/tutor-lesson-9", url)
}

func TestTokenExchangeErrorFallsBack(t *testing.T) {
	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(oauth.Close)

	svc := configuredService(oauth.URL, "http://127.0.0.1:1")

	url := svc.CreateMeeting(context.Background(), 11, time.Now().Add(time.Hour), 45)
	assert.Equal(t, "https://meet.jit.si/tutor-lesson-11", url)
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	var exchanges atomic.Int32
	oauthURL, apiURL := zoomTestServers(t, &exchanges, http.StatusCreated)
	svc := configuredService(oauthURL, apiURL)

	svc.CreateMeeting(context.Background(), 1, time.Now().Add(time.Hour), 60)
	require.Equal(t, int32(1), exchanges.Load())

	// Force the cached token past its safety margin.
	svc.mu.Lock()
	svc.tokenExpiry = time.Now().Add(-time.Second)
	svc.mu.Unlock()

	svc.CreateMeeting(context.Background(), 2, time.Now().Add(time.Hour), 60)
	assert.Equal(t, int32(2), exchanges.Load())
}
