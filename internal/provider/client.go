// Package provider implements the client for the conferencing provider's
// REST API. Only the two operations the allocator needs are exposed:
// creating a recurring meeting on an admin account and reading a meeting's
// live status.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/horizon-mentorship/backend/config"
)

// MeetingStatus is the provider meeting state collapsed to what the
// reclaimer cares about.
type MeetingStatus string

const (
	// StatusStarted means participants are (or may still be) in the call.
	StatusStarted MeetingStatus = "STARTED"
	// StatusReady means the meeting exists but has not started.
	StatusReady MeetingStatus = "READY"
	// StatusOther covers ended, cancelled and unknown states.
	StatusOther MeetingStatus = "OTHER"
)

const (
	stateStarted = "MEETING_STATE_STARTED"
	stateReady   = "MEETING_STATE_READY"

	// defaultInstanceID identifies the device type on provider calls.
	defaultInstanceID = "1"
)

// CreatedMeeting is the provider's answer to a create call.
type CreatedMeeting struct {
	MeetingID string
	JoinLink  string
}

// Client talks to the provider API with signed requests.
type Client struct {
	baseURL   string
	secretID  string
	secretKey string
	appID     string
	sdkID     string
	http      *http.Client
	logger    *zap.Logger
}

// NewClient creates a provider client from config.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		secretID:  cfg.SecretID,
		secretKey: cfg.SecretKey,
		appID:     cfg.AppID,
		sdkID:     cfg.SDKID,
		http:      &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

type meetingInfo struct {
	MeetingID string `json:"meeting_id"`
	JoinURL   string `json:"join_url"`
	Status    string `json:"status"`
}

type meetingInfoList struct {
	MeetingInfoList []meetingInfo `json:"meeting_info_list"`
}

type errorInfo struct {
	ErrorInfo *struct {
		Message      string `json:"message"`
		ErrorCode    int    `json:"error_code"`
		NewErrorCode int    `json:"new_error_code"`
	} `json:"error_info"`
}

// CreateMeeting creates a recurring meeting hosted by the given admin
// account and returns its ID and join URL.
func (c *Client) CreateMeeting(ctx context.Context, tmUserID, subject string, startTimeSec, endTimeSec int64) (*CreatedMeeting, error) {
	c.logger.Info("provider create meeting",
		zap.String("tm_user_id", tmUserID),
		zap.String("subject", subject))

	body := map[string]interface{}{
		"userid":     tmUserID,
		"instanceid": defaultInstanceID,
		"subject":    subject,
		"start_time": fmt.Sprintf("%d", startTimeSec),
		"end_time":   fmt.Sprintf("%d", endTimeSec),
		"type":       0,
		// recurring so the room outlives the nominal end time
		"meeting_type": 1,
		"recurring_rule": map[string]interface{}{
			"recurring_type": 4,
			"until_type":     1,
			"until_count":    50,
		},
	}

	var out meetingInfoList
	if err := c.request(ctx, http.MethodPost, "/v1/meetings", body, &out); err != nil {
		return nil, err
	}
	if len(out.MeetingInfoList) != 1 {
		return nil, fmt.Errorf("provider: expected 1 meeting in create response, got %d", len(out.MeetingInfoList))
	}
	info := out.MeetingInfoList[0]
	if info.MeetingID == "" || info.JoinURL == "" {
		return nil, fmt.Errorf("provider: create response missing meeting_id or join_url")
	}
	return &CreatedMeeting{MeetingID: info.MeetingID, JoinLink: info.JoinURL}, nil
}

// GetMeetingStatus returns the live status of a meeting as seen by the
// provider. Status propagation lags real participant activity; callers
// handle that with the grace period.
func (c *Client) GetMeetingStatus(ctx context.Context, meetingID, tmUserID string) (MeetingStatus, error) {
	uri := fmt.Sprintf("/v1/meetings/%s?userid=%s&instanceid=%s", meetingID, tmUserID, defaultInstanceID)

	var out meetingInfoList
	if err := c.request(ctx, http.MethodGet, uri, nil, &out); err != nil {
		return "", err
	}
	if len(out.MeetingInfoList) == 0 {
		return StatusOther, nil
	}
	switch out.MeetingInfoList[0].Status {
	case stateStarted:
		return StatusStarted, nil
	case stateReady:
		return StatusReady, nil
	default:
		return StatusOther, nil
	}
}

func (c *Client) request(ctx context.Context, method, uri string, body interface{}, out interface{}) error {
	bodyText := ""
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("provider: marshal body: %w", err)
		}
		bodyText = string(raw)
	}

	now := time.Now().Unix()
	nonce := rand.Intn(100000)
	signature := sign(c.secretID, c.secretKey, method, nonce, now, uri, bodyText)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+uri, bytes.NewBufferString(bodyText))
	if err != nil {
		return fmt.Errorf("provider: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-TC-Key", c.secretID)
	req.Header.Set("AppId", c.appID)
	req.Header.Set("SdkId", c.sdkID)
	req.Header.Set("X-TC-Timestamp", fmt.Sprintf("%d", now))
	req.Header.Set("X-TC-Nonce", fmt.Sprintf("%d", nonce))
	req.Header.Set("X-TC-Signature", signature)
	req.Header.Set("X-TC-Registered", "1")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider: %s %s: %w", method, uri, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("provider: read response: %w", err)
	}

	var apiErr errorInfo
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.ErrorInfo != nil {
		return fmt.Errorf("provider: api error %d: %s", apiErr.ErrorInfo.NewErrorCode, apiErr.ErrorInfo.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider: unexpected status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("provider: decode response: %w", err)
		}
	}
	return nil
}
