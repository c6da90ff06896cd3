package mcp

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

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
)

const instructions = `Multiplayer Chess - MCP Interface

This is a thin client that proxies all requests to the REST API server.

HOW A GAME WORKS:
1. A host creates a game (create_game) and waits in the lobby.
2. Another player joins with accept_game. The host plays White, the guest Black.
3. Players alternate make_move calls using UCI notation: e2e4, g1f3, e7e8q.
4. The game ends on checkmate, stalemate or forfeit.

AVAILABLE TOOLS:
- create_game: Host a new game, optionally from a preset position
- accept_game: Join an open game as the guest
- list_games: Browse games, e.g. state=awaiting_opponent for the lobby
- game_state: Full state with players, turn, status and move list
- board_state: The current position as a diagram
- legal_moves: Moves available to the player whose turn it is
- make_move: Play a move - requires intent explanation
- undo_move: Take back your last move before the opponent replies
- move_history: Paged list of moves with who played them
- forfeit: Resign the game
- send_chat / read_chat: Talk to your opponent
- list_presets: Start positions available for create_game

NOTE: The 'intent' parameter on make_move serves as rubber duck debugging - explain your reasoning!`

// APIError is a rejection returned by the REST API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	oracle     *engine.ChessOracle
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		oracle: engine.NewChessOracle(),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Multiplayer Chess",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(instructions),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

var (
	gameIDProp = stringProp("Game ID")
	playerProp = stringProp("Your player name")
)

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Lifecycle
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game hosted by you. You play White.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"host":   playerProp,
				"preset": stringProp("Preset ID for the start position (optional, see list_presets)"),
			},
			Required: []string{"host"},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "accept_game",
		Description: "Join an open game as the guest. You play Black.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProp,
				"player":  playerProp,
			},
			Required: []string{"game_id", "player"},
		},
	}, c.handleAcceptGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List games in creation order",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"state": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(multiplayer.AwaitingOpponent), string(multiplayer.InProgress), string(multiplayer.Finished)},
					"description": "Only list games in this state (optional)",
				},
			},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "forfeit",
		Description: "Resign a game. Your opponent wins.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProp,
				"player":  playerProp,
			},
			Required: []string{"game_id", "player"},
		},
	}, c.handleForfeit)

	// State
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the full state of a game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProp},
			Required:   []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the current position with a board diagram",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProp},
			Required:   []string{"game_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "legal_moves",
		Description: "List the legal moves for the player to move, in UCI notation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProp},
			Required:   []string{"game_id"},
		},
	}, c.handleLegalMoves)

	// Play
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "make_move",
		Description: "Play a move in UCI notation (e2e4, e7e8q)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProp,
				"player":  playerProp,
				"move":    stringProp("Move in UCI notation"),
				"intent":  stringProp("Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)"),
			},
			Required: []string{"game_id", "player", "move"},
		},
	}, c.handleMakeMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "undo_move",
		Description: "Take back your last move while your opponent has not replied",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProp,
				"player":  playerProp,
			},
			Required: []string{"game_id", "player"},
		},
	}, c.handleUndoMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the move history with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProp,
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Moves per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc, default) or newest first (desc)",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleMoveHistory)

	// Chat
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "send_chat",
		Description: "Send a chat message to a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProp,
				"sender":  playerProp,
				"text":    stringProp("Message text"),
			},
			Required: []string{"game_id", "sender", "text"},
		},
	}, c.handleSendChat)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "read_chat",
		Description: "Read a game's chat log, oldest first",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProp},
			Required:   []string{"game_id"},
		},
	}, c.handleReadChat)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List start-position presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return &APIError{Status: resp.StatusCode, Code: errResp["code"], Message: msg}
		}
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("API error: %d", resp.StatusCode)}
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func gamePath(gameID, suffix string) string {
	return "/api/games/" + url.PathEscape(gameID) + suffix
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	host, _ := args["host"].(string)
	preset, _ := args["preset"].(string)

	var game service.GameInfo
	err := c.apiCall(ctx, "POST", "/api/games", map[string]string{"host": host, "preset": preset}, &game)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\nHost (White): %s\nWaiting for an opponent to accept.\n", game.ID, game.Host)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleAcceptGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	player, _ := args["player"].(string)

	var game service.GameInfo
	err := c.apiCall(ctx, "POST", gamePath(gameID, "/accept"), map[string]string{"player": player}, &game)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&game)), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path := "/api/games"
	if state, _ := args["state"].(string); state != "" {
		path += "?state=" + url.QueryEscape(state)
	}

	var resp struct {
		Count int                    `json:"count"`
		Games []*service.GameSummary `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Games) == 0 {
		return mcp.NewToolResultText("No games found"), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games (%d):\n", resp.Count)
	for _, g := range resp.Games {
		guest := g.Guest
		if guest == "" {
			guest = "-"
		}
		fmt.Fprintf(&sb, "- %s  %s vs %s  [%s] moves=%d", g.ID, g.Host, guest, g.State, g.MoveCount)
		if g.Winner != "" {
			fmt.Fprintf(&sb, " winner=%s", g.Winner)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleForfeit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	player, _ := args["player"].(string)

	var game service.GameInfo
	err := c.apiCall(ctx, "POST", gamePath(gameID, "/forfeit"), map[string]string{"player": player}, &game)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&game)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, _ := arguments(request)["game_id"].(string)

	var game service.GameInfo
	if err := c.apiCall(ctx, "GET", gamePath(gameID, ""), nil, &game); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&game)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, _ := arguments(request)["game_id"].(string)

	var board service.BoardState
	if err := c.apiCall(ctx, "GET", gamePath(gameID, "/board"), nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(c.formatBoard(&board)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, _ := arguments(request)["game_id"].(string)

	var resp struct {
		Moves []string `json:"moves"`
	}
	if err := c.apiCall(ctx, "GET", gamePath(gameID, "/legal-moves"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(resp.Moves) == 0 {
		return mcp.NewToolResultText("No legal moves"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Legal moves (%d): %s", len(resp.Moves), strings.Join(resp.Moves, " "))), nil
}

func (c *Client) handleMakeMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	player, _ := args["player"].(string)
	move, _ := args["move"].(string)
	intent, _ := args["intent"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	var result service.MoveResult
	err := c.apiCall(ctx, "POST", gamePath(gameID, "/moves"), map[string]string{"player": player, "move": move}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleUndoMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	player, _ := args["player"].(string)

	var game service.GameInfo
	err := c.apiCall(ctx, "POST", gamePath(gameID, "/undo"), map[string]string{"player": player}, &game)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Move taken back\n" + formatGameInfo(&game)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)

	query := url.Values{}
	if page, ok := args["page"].(float64); ok && page > 0 {
		query.Set("page", strconv.Itoa(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		query.Set("limit", strconv.Itoa(int(limit)))
	}
	if order, ok := args["order"].(string); ok && order != "" {
		query.Set("order", order)
	}
	path := gamePath(gameID, "/moves")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleSendChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	sender, _ := args["sender"].(string)
	text, _ := args["text"].(string)

	var msg multiplayer.ChatMessage
	err := c.apiCall(ctx, "POST", gamePath(gameID, "/chat"), map[string]string{"sender": sender, "text": text}, &msg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Sent: %s: %s", msg.Sender, msg.Text)), nil
}

func (c *Client) handleReadChat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, _ := arguments(request)["game_id"].(string)

	var resp struct {
		Messages []multiplayer.ChatMessage `json:"messages"`
	}
	if err := c.apiCall(ctx, "GET", gamePath(gameID, "/chat"), nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatChat(resp.Messages)), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []*service.PresetInfo
	if err := c.apiCall(ctx, "GET", "/api/presets", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("Available presets:\n")
	for _, p := range presets {
		fmt.Fprintf(&sb, "- %s: %s", p.PresetID, p.Name)
		if p.Description != "" {
			fmt.Fprintf(&sb, " - %s", p.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// Formatting

func formatGameInfo(game *service.GameInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Game: %s\n", game.ID)
	fmt.Fprintf(&sb, "White: %s\n", game.Host)
	if game.Guest != "" {
		fmt.Fprintf(&sb, "Black: %s\n", game.Guest)
	} else {
		sb.WriteString("Black: (waiting for opponent)\n")
	}
	fmt.Fprintf(&sb, "State: %s\n", game.State)
	fmt.Fprintf(&sb, "Status: %s\n", game.Status)
	fmt.Fprintf(&sb, "Position: %s\n", game.Position)

	switch {
	case game.State == multiplayer.Finished:
		fmt.Fprintf(&sb, "🏁 GAME OVER (%s)", game.EndReason)
		if game.Winner != "" {
			fmt.Fprintf(&sb, " - winner: %s", game.Winner)
		} else {
			sb.WriteString(" - no winner")
		}
		sb.WriteString("\n")
	case game.Turn != "":
		fmt.Fprintf(&sb, "To move: %s\n", game.Turn)
	}

	if len(game.Moves) > 0 {
		fmt.Fprintf(&sb, "Moves (%d): %s\n", len(game.Moves), strings.Join(game.Moves, " "))
	}
	return sb.String()
}

func (c *Client) formatBoard(board *service.BoardState) string {
	var sb strings.Builder
	if diagram, err := c.oracle.Diagram(board.Position); err == nil {
		sb.WriteString(diagram)
		if !strings.HasSuffix(diagram, "\n") {
			sb.WriteString("\n")
		}
	}
	fmt.Fprintf(&sb, "FEN: %s\n", board.Position)
	fmt.Fprintf(&sb, "Status: %s\n", board.Status)
	if board.Turn != "" {
		fmt.Fprintf(&sb, "To move: %s\n", board.Turn)
	}
	return sb.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder
	if result.Success {
		fmt.Fprintf(&sb, "✓ Move %s played\n", result.Move)
	} else {
		fmt.Fprintf(&sb, "✗ Move %s failed\n", result.Move)
	}
	if result.Message != "" {
		fmt.Fprintf(&sb, "%s\n", result.Message)
	}
	if result.Game != nil {
		sb.WriteString(formatGameInfo(result.Game))
	}
	return sb.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Move history for %s (page %d/%d, %d moves total)\n",
		history.GameID, history.Page, history.TotalPages, history.TotalMoves)
	for _, m := range history.Moves {
		fmt.Fprintf(&sb, "%d. %s (%s) %s\n", m.Number, m.Move, m.Color, m.Player)
	}
	if history.HasNext {
		sb.WriteString("More moves on the next page\n")
	}
	return sb.String()
}

func formatChat(messages []multiplayer.ChatMessage) string {
	if len(messages) == 0 {
		return "No messages"
	}
	var sb strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&sb, "[%s] %s: %s\n", m.SentAt.Format(time.Kitchen), m.Sender, m.Text)
	}
	return sb.String()
}
