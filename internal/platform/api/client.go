// Package api is the shared HTTP core under every per-entity remote client.
// It attaches the session credentials, speaks JSON both ways, and classifies
// every failure into the offline error taxonomy so repositories can decide
// between fallback and propagation without inspecting transport details.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/session"
)

// Client wraps an http.Client with the session identity. Timeouts come from
// the underlying client; there is no retry here, the sync runs are the retry
// mechanism.
type Client struct {
	sess *session.Session
	http *http.Client
	log  zerolog.Logger
}

func NewClient(sess *session.Session, timeout time.Duration, logger zerolog.Logger) *Client {
	c := &Client{
		sess: sess,
		http: &http.Client{Timeout: timeout},
		log:  logger.With().Str("component", "api_client").Logger(),
	}
	if sess.Expired(time.Now()) {
		c.log.Warn().Time("expires_at", sess.ExpiresAt).Msg("session token already expired, backend calls will likely be rejected")
	}
	return c
}

// GetJSON fetches path and decodes the body into out. A 404 surfaces as
// ServerError with that code; callers that treat absence as a non-error
// translate it.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out)
}

// Delete issues a DELETE. A 404 counts as success: the goal state is already
// reached, and a queued deletion replayed twice must not wedge the queue.
func (c *Client) Delete(ctx context.Context, path string) error {
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	var srv *offline.ServerError
	if errors.As(err, &srv) && srv.Code == http.StatusNotFound {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &offline.UnexpectedError{Op: op, Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.sess.BaseURL+path, body)
	if err != nil {
		return &offline.UnexpectedError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.sess.Token)
	}
	if c.sess.DeviceID != "" {
		req.Header.Set("X-Device-ID", c.sess.DeviceID)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return &offline.ConnectivityError{Op: op, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &offline.ServerError{Op: op, Code: resp.StatusCode}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &offline.UnexpectedError{Op: op, Err: err}
	}
	return nil
}
