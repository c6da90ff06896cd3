package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

var _ service.SessionService = (*Client)(nil)

// Client calls a remote chess server. It implements service.SessionService,
// and rejections come back as *multiplayer.Error values.
type Client struct {
	conn *gogrpc.ClientConn
}

// DefaultDialOptions returns plaintext dial options with tracing.
func DefaultDialOptions() []gogrpc.DialOption {
	return []gogrpc.DialOption{
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
}

// Dial connects to addr. Extra options are applied after the defaults.
func Dial(addr string, opts ...gogrpc.DialOption) (*Client, error) {
	conn, err := gogrpc.NewClient(addr, append(DefaultDialOptions(), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an existing connection.
func NewClient(conn *gogrpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// WaitForHealth blocks until the server's health check reports SERVING or
// ctx ends.
func (c *Client) WaitForHealth(ctx context.Context) error {
	healthClient := grpc_health_v1.NewHealthClient(c.conn)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING {
			return nil
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("wait for gRPC health: %w", err)
			}
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff < time.Second {
			backoff *= 2
		}
	}
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	err := c.conn.Invoke(ctx, fullMethod(method), req, resp, gogrpc.CallContentSubtype(CodecName))
	return FromError(err)
}

func (c *Client) CreateGame(ctx context.Context, host, preset string) (*service.GameInfo, error) {
	resp := new(service.GameInfo)
	if err := c.invoke(ctx, "PushGameCreate", &PushGameCreateRequest{Host: host, Preset: preset}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) AcceptGame(ctx context.Context, gameID, player string) (*service.GameInfo, error) {
	resp := new(service.GameInfo)
	if err := c.invoke(ctx, "PushGameAccept", &PlayerRequest{GameID: gameID, Player: player}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Forfeit(ctx context.Context, gameID, player string) (*service.GameInfo, error) {
	resp := new(service.GameInfo)
	if err := c.invoke(ctx, "PushGameGg", &PlayerRequest{GameID: gameID, Player: player}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PushMove(ctx context.Context, gameID, player, move string) (*service.MoveResult, error) {
	resp := new(service.MoveResult)
	if err := c.invoke(ctx, "PushMove", &PushMoveRequest{GameID: gameID, Player: player, Move: move}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PushUndo(ctx context.Context, gameID, player string) (*service.GameInfo, error) {
	resp := new(service.GameInfo)
	if err := c.invoke(ctx, "PushUndo", &PlayerRequest{GameID: gameID, Player: player}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) LegalMoves(ctx context.Context, gameID string) ([]string, error) {
	resp := new(LegalMovesResponse)
	if err := c.invoke(ctx, "PullLegalMoves", &GameRequest{GameID: gameID}, resp); err != nil {
		return nil, err
	}
	return resp.Moves, nil
}

func (c *Client) PullBoardState(ctx context.Context, gameID string) (*service.BoardState, error) {
	resp := new(service.BoardState)
	if err := c.invoke(ctx, "PullBoardState", &GameRequest{GameID: gameID}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PullGameState(ctx context.Context, gameID string) (*service.GameInfo, error) {
	resp := new(service.GameInfo)
	if err := c.invoke(ctx, "PullGameState", &GameRequest{GameID: gameID}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PullMoves(ctx context.Context, gameID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	req := &PullMovesRequest{GameID: gameID, Page: opts.Page, Limit: opts.Limit, Order: opts.Order}
	resp := new(service.HistoryResponse)
	if err := c.invoke(ctx, "PullMoves", req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ListGames(ctx context.Context) ([]string, error) {
	resp := new(PullGamesListResponse)
	if err := c.invoke(ctx, "PullGamesList", &PullGamesListRequest{}, resp); err != nil {
		return nil, err
	}
	return resp.GameIDs, nil
}

func (c *Client) ListGameSummaries(ctx context.Context) ([]*service.GameSummary, error) {
	resp := new(PullGamesListResponse)
	if err := c.invoke(ctx, "PullGamesList", &PullGamesListRequest{}, resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

func (c *Client) SendChat(ctx context.Context, gameID, sender, text string) (*multiplayer.ChatMessage, error) {
	resp := new(multiplayer.ChatMessage)
	if err := c.invoke(ctx, "PushMsg", &PushMsgRequest{GameID: gameID, Sender: sender, Text: text}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PullChat(ctx context.Context, gameID string) ([]multiplayer.ChatMessage, error) {
	resp := new(PullMsgsResponse)
	if err := c.invoke(ctx, "PullMsgs", &GameRequest{GameID: gameID}, resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) ListPresets(ctx context.Context) ([]*service.PresetInfo, error) {
	resp := new(PullPresetsResponse)
	if err := c.invoke(ctx, "PullPresets", &PullPresetsRequest{}, resp); err != nil {
		return nil, err
	}
	return resp.Presets, nil
}
