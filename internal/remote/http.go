// internal/remote/http.go
//
// JSON/HTTP implementation of GameService.
//
// Endpoints (relative to the configured base URL):
//   GET  /games/{id}/board              → {"cells": [["", "A", ...], ...]}
//   GET  /games/{id}/players/{i}/rack   → {"letters": ["A", ...]}
//   GET  /games/{id}/current-player     → {"playerIndex": 0}
//   POST /games/{id}/moves              ← {"x","y","word","direction"}
//   POST /games/{id}/exchange           ← {"letters": [...]}
//   POST /games/{id}/skip
//
// Submissions answer {"accepted": bool, "reason": "..."}. A 4xx reply to a
// submission is read as a rejection ({"error"} or {"reason"} body); 5xx and
// transport failures are errors.

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossplay/apps/go-client/internal/compose"
)

// HTTPClient talks to the game service over HTTP.
type HTTPClient struct {
	base string
	hc   *http.Client
}

// NewHTTPClient builds a client for baseURL with a per-request timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

var _ GameService = (*HTTPClient)(nil)

// --- wire payloads ----------------------------------------------------------

type boardRes struct {
	Cells [][]string `json:"cells"`
}

type rackRes struct {
	Letters []string `json:"letters"`
}

type currentPlayerRes struct {
	PlayerIndex int `json:"playerIndex"`
}

type moveReq struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Word      string `json:"word"`
	Direction string `json:"direction"`
}

type exchangeReq struct {
	Letters []string `json:"letters"`
}

type rejectionRes struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

// --- reads ------------------------------------------------------------------

func (c *HTTPClient) FetchBoard(ctx context.Context, gameID string) (compose.Board, error) {
	var res boardRes
	if err := c.getJSON(ctx, gamePath(gameID, "board"), &res); err != nil {
		return compose.Board{}, err
	}
	n := len(res.Cells)
	for y, row := range res.Cells {
		if len(row) != n {
			return compose.Board{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedBoard, y, len(row), n)
		}
		for x := range row {
			row[x] = compose.NormalizeLetter(row[x])
		}
	}
	return compose.Board{Cells: res.Cells}, nil
}

func (c *HTTPClient) FetchRack(ctx context.Context, gameID string, playerIndex int) (compose.Rack, error) {
	var res rackRes
	if err := c.getJSON(ctx, gamePath(gameID, "players", strconv.Itoa(playerIndex), "rack"), &res); err != nil {
		return nil, err
	}
	rack := make(compose.Rack, len(res.Letters))
	for i, l := range res.Letters {
		rack[i] = compose.NormalizeLetter(l)
	}
	return rack, nil
}

func (c *HTTPClient) FetchCurrentPlayer(ctx context.Context, gameID string) (int, error) {
	var res currentPlayerRes
	if err := c.getJSON(ctx, gamePath(gameID, "current-player"), &res); err != nil {
		return 0, err
	}
	return res.PlayerIndex, nil
}

// --- submissions ------------------------------------------------------------

func (c *HTTPClient) SubmitMove(ctx context.Context, gameID string, m compose.Move) (Result, error) {
	return c.postJSON(ctx, gamePath(gameID, "moves"), moveReq{
		X:         m.Anchor.X,
		Y:         m.Anchor.Y,
		Word:      m.Word,
		Direction: m.Direction.String(),
	})
}

func (c *HTTPClient) SubmitExchange(ctx context.Context, gameID string, letters []string) (Result, error) {
	return c.postJSON(ctx, gamePath(gameID, "exchange"), exchangeReq{Letters: letters})
}

func (c *HTTPClient) SubmitSkipTurn(ctx context.Context, gameID string) (Result, error) {
	return c.postJSON(ctx, gamePath(gameID, "skip"), struct{}{})
}

// --- plumbing ---------------------------------------------------------------

func gamePath(gameID string, parts ...string) string {
	segs := append([]string{"games", url.PathEscape(gameID)}, parts...)
	return "/" + strings.Join(segs, "/")
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("remote: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode >= 300:
		return fmt.Errorf("remote: GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("remote: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any) (Result, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("remote: POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("remote: read %s: %w", path, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return Result{}, fmt.Errorf("remote: POST %s: status %d", path, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode >= 400:
		var rej rejectionRes
		_ = json.Unmarshal(raw, &rej)
		reason := rej.Reason
		if reason == "" {
			reason = rej.Error
		}
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		log.Debug().Str("path", path).Int("status", resp.StatusCode).Str("reason", reason).Msg("submission rejected")
		return Result{Accepted: false, Reason: reason}, nil
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return Result{Accepted: true}, nil
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return Result{}, fmt.Errorf("remote: decode %s: %w", path, err)
	}
	return res, nil
}
