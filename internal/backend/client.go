// Package backend is the HTTP client for the commerce admin API's
// notification endpoints. It implements notify.Backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storefront-labs/orderpulse/internal/build"
	"github.com/storefront-labs/orderpulse/internal/notify"
	"github.com/storefront-labs/orderpulse/internal/session"
)

const requestTimeout = 30 * time.Second

// Client talks JSON to the admin REST API, authenticating every request with
// the session's bearer token.
type Client struct {
	baseURL    string
	sess       *session.Session
	httpClient *http.Client
}

// New creates a Client for the given API base URL and session.
func New(baseURL string, sess *session.Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		sess:    sess,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// snapshotEnvelope tolerates both response shapes the backend has shipped:
// a bare object and one wrapped in a "data" envelope.
type snapshotEnvelope struct {
	Data          *snapshotBody     `json:"data"`
	Notifications []json.RawMessage `json:"notifications"`
	UnreadCount   int               `json:"unreadCount"`
}

type snapshotBody struct {
	Notifications []json.RawMessage `json:"notifications"`
	UnreadCount   int               `json:"unreadCount"`
}

// FetchNotifications loads the full notification snapshot.
func (c *Client) FetchNotifications(ctx context.Context) (notify.Snapshot, error) {
	var env snapshotEnvelope
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &env); err != nil {
		return notify.Snapshot{}, err
	}

	raws := env.Notifications
	unread := env.UnreadCount
	if env.Data != nil {
		raws = env.Data.Notifications
		unread = env.Data.UnreadCount
	}

	snap := notify.Snapshot{UnreadCount: unread}
	for _, raw := range raws {
		n, err := notify.ParseNotification(raw)
		if err != nil {
			return notify.Snapshot{}, fmt.Errorf("decoding notification in snapshot: %w", err)
		}
		snap.Notifications = append(snap.Notifications, n)
	}
	return snap, nil
}

// MarkNotificationRead marks one notification read server-side.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/notifications/"+id+"/read", nil, nil)
}

// MarkAllNotificationsRead marks every notification read server-side.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPatch, "/notifications/mark-all-read", nil, nil)
}

// ClearReadNotifications bulk-deletes read notifications server-side.
func (c *Client) ClearReadNotifications(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/notifications/read/all", nil, nil)
}

// do builds the request, sets auth headers, and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.sess.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", build.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("authentication failed (401) on %s %s: check the admin token", method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d on %s %s: %s", resp.StatusCode, method, path, string(respBody))
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}
