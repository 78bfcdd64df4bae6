// Package daily provisions video rooms through the Daily.co REST API.
package daily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/campuscare/counseling-api/internal/core/domain"
)

const defaultBaseURL = "https://api.daily.co/v1"

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.RoomProvisioner.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx answer from Daily.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("daily: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("daily: %d %s", e.Status, e.Code)
}

type roomProperties struct {
	MaxParticipants   int    `json:"max_participants"`
	Exp               int64  `json:"exp"`
	EnableScreenshare bool   `json:"enable_screenshare"`
	EnableChat        bool   `json:"enable_chat"`
	EnableRecording   string `json:"enable_recording,omitempty"`
	EnablePrejoinUI   bool   `json:"enable_prejoin_ui"`
}

type createRoomRequest struct {
	Name       string         `json:"name"`
	Privacy    string         `json:"privacy"`
	Properties roomProperties `json:"properties"`
}

type roomResponse struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Config struct {
		Exp int64 `json:"exp"`
	} `json:"config"`
}

// CreateRoom creates a room named name with the given properties.
func (c *Client) CreateRoom(ctx context.Context, name string, opts domain.RoomOptions) (*domain.Room, error) {
	body := createRoomRequest{
		Name:    name,
		Privacy: "public",
		Properties: roomProperties{
			MaxParticipants:   opts.MaxParticipants,
			Exp:               opts.ExpiresAt.Unix(),
			EnableScreenshare: opts.EnableScreenshare,
			EnableChat:        opts.EnableChat,
			EnablePrejoinUI:   opts.EnablePrejoinUI,
		},
	}
	if opts.CloudRecording {
		body.Properties.EnableRecording = "cloud"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/rooms", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorFromResponse(resp)
	}

	var room roomResponse
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return nil, fmt.Errorf("daily: decode room: %w", err)
	}
	if room.URL == "" {
		return nil, errors.New("daily: room response without url")
	}

	expires := opts.ExpiresAt
	if room.Config.Exp > 0 {
		expires = time.Unix(room.Config.Exp, 0).UTC()
	}
	if room.Name == "" {
		room.Name = name
	}
	return &domain.Room{Name: room.Name, URL: room.URL, ExpiresAt: expires}, nil
}

// DeleteRoom deletes the named room. A 404 means it is already gone.
func (c *Client) DeleteRoom(ctx context.Context, name string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errorFromResponse(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daily: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
	var payload struct {
		Error string `json:"error"`
		Info  string `json:"info"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
		if payload.Error != "" {
			apiErr.Code = payload.Error
		}
		apiErr.Message = payload.Info
	}
	return apiErr
}
