package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	"github.com/wricardo/multiplayer-chess/game/session"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// startServer serves a fresh in-memory chess service over bufconn and
// returns a connected client.
func startServer(t *testing.T) (*Client, *gogrpc.ClientConn) {
	t.Helper()
	ids := 0
	svc := service.NewSessionService(session.NewMemoryStore(), nil, engine.NewChessOracle(),
		service.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("G%d", ids)
		}))

	lis := bufconn.Listen(1 << 20)
	grpcServer, _ := NewGRPCServer(svc)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	conn, err := gogrpc.NewClient("passthrough:///bufnet",
		append(DefaultDialOptions(), gogrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))...)
	if err != nil {
		t.Fatalf("Failed to dial bufconn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn), conn
}

func TestGRPCCode(t *testing.T) {
	tests := []struct {
		code multiplayer.Code
		want codes.Code
	}{
		{multiplayer.CodeNotFound, codes.NotFound},
		{multiplayer.CodeDuplicateID, codes.Aborted},
		{multiplayer.CodeAlreadyJoined, codes.AlreadyExists},
		{multiplayer.CodeNotYourTurn, codes.FailedPrecondition},
		{multiplayer.CodeGameOver, codes.FailedPrecondition},
		{multiplayer.CodeNotStarted, codes.FailedPrecondition},
		{multiplayer.CodeIllegalMove, codes.InvalidArgument},
		{multiplayer.CodeInvalidArgument, codes.InvalidArgument},
		{multiplayer.CodeUnauthorized, codes.PermissionDenied},
		{multiplayer.CodeUnknown, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := GRPCCode(tt.code); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestStatusRoundTrip(t *testing.T) {
	err := toStatus(multiplayer.ErrNotYourTurn)

	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("Expected a status error, got %v", err)
	}
	if st.Code() != codes.FailedPrecondition {
		t.Errorf("Expected FailedPrecondition, got %s", st.Code())
	}
	var info *errdetails.ErrorInfo
	for _, d := range st.Details() {
		if ei, ok := d.(*errdetails.ErrorInfo); ok {
			info = ei
		}
	}
	if info == nil || info.GetReason() != "NOT_YOUR_TURN" || info.GetDomain() != ErrorDomain {
		t.Fatalf("Expected NOT_YOUR_TURN ErrorInfo, got %v", info)
	}

	back := FromError(err)
	if !errors.Is(back, multiplayer.ErrNotYourTurn) {
		t.Errorf("Expected round trip to match ErrNotYourTurn, got %v", back)
	}

	plain := errors.New("boom")
	if st := status.Convert(toStatus(plain)); st.Code() != codes.Internal || len(st.Details()) != 0 {
		t.Errorf("Expected bare Internal status for unknown errors, got %v", st)
	}
	if FromError(plain) != plain {
		t.Error("Expected non-status errors to pass through")
	}
	if ReasonOf(err) != multiplayer.CodeNotYourTurn {
		t.Errorf("Expected reason NOT_YOUR_TURN, got %s", ReasonOf(err))
	}
}

func TestHealth(t *testing.T) {
	client, conn := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.WaitForHealth(ctx); err != nil {
		t.Fatalf("WaitForHealth failed: %v", err)
	}

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("Health check failed: %v", err)
	}
	if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("Expected SERVING, got %s", resp.GetStatus())
	}
}

func TestClient_Scenario(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	game, err := client.CreateGame(ctx, "alice", "")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if game.ID != "G1" || game.State != multiplayer.AwaitingOpponent {
		t.Fatalf("Unexpected game %+v", game)
	}

	if _, err := client.PushMove(ctx, "G1", "alice", "e2e4"); !errors.Is(err, multiplayer.ErrNotStarted) {
		t.Errorf("Expected ErrNotStarted, got %v", err)
	}

	if _, err := client.AcceptGame(ctx, "G1", "bob"); err != nil {
		t.Fatalf("AcceptGame failed: %v", err)
	}
	if _, err := client.AcceptGame(ctx, "G1", "carol"); !errors.Is(err, multiplayer.ErrAlreadyJoined) {
		t.Errorf("Expected ErrAlreadyJoined, got %v", err)
	}

	moves, err := client.LegalMoves(ctx, "G1")
	if err != nil || len(moves) != 20 {
		t.Errorf("Expected 20 legal moves, got %d (%v)", len(moves), err)
	}

	if _, err := client.PushMove(ctx, "G1", "bob", "e7e5"); !errors.Is(err, multiplayer.ErrNotYourTurn) {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}
	if _, err := client.PushMove(ctx, "G1", "mallory", "e2e4"); !errors.Is(err, multiplayer.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized, got %v", err)
	}
	if _, err := client.PushMove(ctx, "G1", "alice", "e2e5"); !errors.Is(err, multiplayer.ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove, got %v", err)
	}

	for _, step := range []struct{ player, move string }{
		{"alice", "f2f3"}, {"bob", "e7e5"}, {"alice", "g2g4"},
	} {
		if _, err := client.PushMove(ctx, "G1", step.player, step.move); err != nil {
			t.Fatalf("PushMove %s failed: %v", step.move, err)
		}
	}
	result, err := client.PushMove(ctx, "G1", "bob", "d8h4")
	if err != nil {
		t.Fatalf("Mating move failed: %v", err)
	}
	if !result.GameOver || result.Game.Winner != "bob" || result.Game.Status != engine.Checkmate {
		t.Errorf("Expected bob to win by checkmate, got %+v", result.Game)
	}

	if _, err := client.PushMove(ctx, "G1", "alice", "a2a3"); !errors.Is(err, multiplayer.ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}

	board, err := client.PullBoardState(ctx, "G1")
	if err != nil {
		t.Fatalf("PullBoardState failed: %v", err)
	}
	if board.Status != engine.Checkmate || board.Turn != "" {
		t.Errorf("Unexpected board %+v", board)
	}

	history, err := client.PullMoves(ctx, "G1", service.HistoryOptions{Order: "desc", Limit: 2})
	if err != nil {
		t.Fatalf("PullMoves failed: %v", err)
	}
	if history.TotalMoves != 4 || len(history.Moves) != 2 || history.Moves[0].Player != "bob" {
		t.Errorf("Unexpected history %+v", history)
	}
}

func TestClient_ListChatAndForfeit(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	for _, host := range []string{"alice", "carol"} {
		if _, err := client.CreateGame(ctx, host, ""); err != nil {
			t.Fatalf("CreateGame failed: %v", err)
		}
	}

	ids, err := client.ListGames(ctx)
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "G1" || ids[1] != "G2" {
		t.Errorf("Expected [G1 G2], got %v", ids)
	}
	summaries, err := client.ListGameSummaries(ctx)
	if err != nil || len(summaries) != 2 || summaries[1].Host != "carol" {
		t.Errorf("Unexpected summaries %v (%v)", summaries, err)
	}

	if _, err := client.SendChat(ctx, "G1", "spectator", "hello"); err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if _, err := client.SendChat(ctx, "G1", "alice", ""); !errors.Is(err, multiplayer.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for empty text, got %v", err)
	}
	chat, err := client.PullChat(ctx, "G1")
	if err != nil || len(chat) != 1 || chat[0].Sender != "spectator" {
		t.Errorf("Unexpected chat %v (%v)", chat, err)
	}

	client.AcceptGame(ctx, "G1", "bob")
	game, err := client.Forfeit(ctx, "G1", "alice")
	if err != nil {
		t.Fatalf("Forfeit failed: %v", err)
	}
	if game.State != multiplayer.Finished || game.Winner != "bob" || game.ForfeitedBy != "alice" {
		t.Errorf("Unexpected game after forfeit %+v", game)
	}

	if _, err := client.PullGameState(ctx, "nope"); !errors.Is(err, multiplayer.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	presets, err := client.ListPresets(ctx)
	if err != nil || len(presets) != 1 || presets[0].PresetID != service.StandardPreset {
		t.Errorf("Expected only the standard preset, got %v (%v)", presets, err)
	}
}

func TestClient_Undo(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	client.CreateGame(ctx, "alice", "")
	client.AcceptGame(ctx, "G1", "bob")

	if _, err := client.PushUndo(ctx, "G1", "alice"); !errors.Is(err, multiplayer.ErrIllegalMove) {
		t.Errorf("Expected ErrIllegalMove with nothing to undo, got %v", err)
	}
	if _, err := client.PushMove(ctx, "G1", "alice", "e2e4"); err != nil {
		t.Fatalf("PushMove failed: %v", err)
	}
	if _, err := client.PushUndo(ctx, "G1", "bob"); !errors.Is(err, multiplayer.ErrNotYourTurn) {
		t.Errorf("Expected bob's undo to be refused, got %v", err)
	}
	game, err := client.PushUndo(ctx, "G1", "alice")
	if err != nil {
		t.Fatalf("PushUndo failed: %v", err)
	}
	if len(game.Moves) != 0 || game.Turn != "alice" {
		t.Errorf("Expected empty history with alice to move, got %+v", game)
	}
}

func TestRawStatusCodes(t *testing.T) {
	_, conn := startServer(t)
	ctx := context.Background()

	err := conn.Invoke(ctx, fullMethod("PullGameState"), &GameRequest{GameID: "missing"}, new(service.GameInfo),
		gogrpc.CallContentSubtype(CodecName))
	if status.Code(err) != codes.NotFound {
		t.Errorf("Expected NotFound status, got %v", err)
	}
}
