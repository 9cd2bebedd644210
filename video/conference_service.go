package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type Config struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	BaseURL      string // defaults to https://api.zoom.us/v2
	OAuthURL     string // defaults to https://zoom.us/oauth/token
	Timezone     string // defaults to Europe/Moscow
}

// ConferenceService creates Zoom meetings with a cached server-to-server
// OAuth token. It never surfaces a failure: anything going wrong degrades to
// a generic meeting link derived from the lesson id.
type ConferenceService struct {
	cfg    Config
	client *http.Client

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
}

func NewConferenceService(cfg Config) *ConferenceService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.zoom.us/v2"
	}
	if cfg.OAuthURL == "" {
		cfg.OAuthURL = "https://zoom.us/oauth/token"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Moscow"
	}
	return &ConferenceService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *ConferenceService) CreateMeeting(ctx context.Context, lessonID uint, start time.Time, durationMinutes int) string {
	if s.cfg.AccountID == "" || s.cfg.ClientID == "" {
		log.Println("⚠️ Zoom is not configured, using generic meeting link")
		return genericMeetingURL(lessonID)
	}

	joinURL, err := s.createZoomMeeting(ctx, lessonID, start, durationMinutes)
	if err != nil {
		log.Printf("🔥 Failed to create video conference for lesson %d: %v", lessonID, err)
		return genericMeetingURL(lessonID)
	}
	return joinURL
}

type meetingSettings struct {
	HostVideo        bool   `json:"host_video"`
	ParticipantVideo bool   `json:"participant_video"`
	JoinBeforeHost   bool   `json:"join_before_host"`
	MuteUponEntry    bool   `json:"mute_upon_entry"`
	WaitingRoom      bool   `json:"waiting_room"`
	AutoRecording    string `json:"auto_recording"`
}

type createMeetingRequest struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"` // 2 = scheduled meeting
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Settings  meetingSettings `json:"settings"`
}

type createMeetingResponse struct {
	JoinURL string `json:"join_url"`
}

func (s *ConferenceService) createZoomMeeting(ctx context.Context, lessonID uint, start time.Time, durationMinutes int) (string, error) {
	accessToken, err := s.getAccessToken(ctx)
	if err != nil {
		return "", err
	}

	payload := createMeetingRequest{
		Topic:     fmt.Sprintf("Lesson #%d", lessonID),
		Type:      2,
		StartTime: start.Format("2006-01-02T15:04:05"),
		Duration:  durationMinutes,
		Timezone:  s.cfg.Timezone,
		Settings: meetingSettings{
			HostVideo:        true,
			ParticipantVideo: true,
			JoinBeforeHost:   false,
			MuteUponEntry:    true,
			WaitingRoom:      true,
			AutoRecording:    "none",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/users/me/meetings", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("zoom meeting API returned status %s", resp.Status)
	}

	var meeting createMeetingResponse
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return "", err
	}
	if meeting.JoinURL == "" {
		return "", fmt.Errorf("zoom meeting response had no join_url")
	}

	log.Printf("Zoom meeting created for lesson %d: %s", lessonID, meeting.JoinURL)
	return meeting.JoinURL, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// getAccessToken returns the cached token while it is still fresh and
// refreshes it behind the write lock otherwise. The double check after
// acquiring the lock keeps concurrent callers from stampeding the token
// endpoint.
func (s *ConferenceService) getAccessToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	log.Println("Fetching new Zoom access token...")

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", s.cfg.AccountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("zoom token API returned status %s", resp.Status)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("zoom token response had no access_token")
	}

	s.accessToken = token.AccessToken
	// Cache for 90% of the declared lifetime so an about-to-expire token is
	// never handed to a meeting call.
	s.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second * 9 / 10)

	log.Println("Successfully fetched and cached Zoom access token.")
	return s.accessToken, nil
}

func genericMeetingURL(lessonID uint) string {
	return fmt.Sprintf("https://meet.jit.si/tutor-lesson-%d", lessonID)
}
