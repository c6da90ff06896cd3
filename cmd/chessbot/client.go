package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
)

// Client talks to the chess REST API as one player.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// apiError is a rejection returned by the server. Its Code survives
// multiplayer.CodeOf.
func apiError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Code == "" {
		return fmt.Errorf("request failed: %d - %s", status, strings.TrimSpace(string(body)))
	}
	return multiplayer.NewError(multiplayer.Code(payload.Code), payload.Error)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, data)
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func gamePath(gameID, suffix string) string {
	return "/api/games/" + url.PathEscape(gameID) + suffix
}

func (c *Client) CreateGame(ctx context.Context, host, preset string) (*service.GameInfo, error) {
	var game service.GameInfo
	err := c.do(ctx, http.MethodPost, "/api/games", map[string]string{"host": host, "preset": preset}, &game)
	return &game, err
}

func (c *Client) AcceptGame(ctx context.Context, gameID, player string) (*service.GameInfo, error) {
	var game service.GameInfo
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/accept"), map[string]string{"player": player}, &game)
	return &game, err
}

func (c *Client) GetGame(ctx context.Context, gameID string) (*service.GameInfo, error) {
	var game service.GameInfo
	err := c.do(ctx, http.MethodGet, gamePath(gameID, ""), nil, &game)
	return &game, err
}

func (c *Client) LegalMoves(ctx context.Context, gameID string) ([]string, error) {
	var resp struct {
		Moves []string `json:"moves"`
	}
	err := c.do(ctx, http.MethodGet, gamePath(gameID, "/legal-moves"), nil, &resp)
	return resp.Moves, err
}

func (c *Client) Move(ctx context.Context, gameID, player, move string) (*service.MoveResult, error) {
	var result service.MoveResult
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/moves"), map[string]string{"player": player, "move": move}, &result)
	return &result, err
}

func (c *Client) Forfeit(ctx context.Context, gameID, player string) (*service.GameInfo, error) {
	var game service.GameInfo
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "/forfeit"), map[string]string{"player": player}, &game)
	return &game, err
}
