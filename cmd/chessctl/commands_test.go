package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/wricardo/multiplayer-chess/game/engine"
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	"github.com/wricardo/multiplayer-chess/game/session"
	chessgrpc "github.com/wricardo/multiplayer-chess/transport/grpc"
)

// startServer serves an in-memory chess service on a loopback port and
// returns its address.
func startServer(t *testing.T) string {
	t.Helper()
	ids := 0
	svc := service.NewSessionService(session.NewMemoryStore(), nil, engine.NewChessOracle(),
		service.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("G%d", ids)
		}))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	grpcServer, _ := chessgrpc.NewGRPCServer(svc)
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)
	return lis.Addr().String()
}

func run(t *testing.T, addr string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand(&out, dialGRPC)
	err := cmd.Run(context.Background(), append([]string{"chessctl", "--addr", addr}, args...))
	return out.String(), err
}

func TestChessctl_FoolsMate(t *testing.T) {
	addr := startServer(t)

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"create", "alice"}, "Game G1 [awaiting_opponent]"},
		{[]string{"accept", "G1", "bob"}, "Black: bob"},
		{[]string{"legal", "G1"}, "20 legal moves"},
		{[]string{"move", "G1", "alice", "f2f3"}, "Played f2f3"},
		{[]string{"move", "G1", "bob", "e7e5"}, "To move: alice"},
		{[]string{"move", "G1", "alice", "g2g4"}, "To move: bob"},
		{[]string{"move", "G1", "bob", "d8h4"}, "winner: bob"},
		{[]string{"board", "G1"}, "Status: checkmate"},
		{[]string{"state", "G1"}, "Moves: f2f3 e7e5 g2g4 d8h4"},
		{[]string{"moves", "--order", "desc", "--limit", "1", "G1"}, "4. d8h4 (black) bob"},
		{[]string{"list"}, "G1  alice vs bob  finished  4 moves"},
		{[]string{"list", "--ids"}, "G1"},
		{[]string{"presets"}, "standard"},
	}

	for _, step := range steps {
		out, err := run(t, addr, step.args...)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", step.args, err)
		}
		if !strings.Contains(out, step.want) {
			t.Errorf("%v: expected %q in output, got:\n%s", step.args, step.want, out)
		}
	}
}

func TestChessctl_ListFilter(t *testing.T) {
	addr := startServer(t)
	run(t, addr, "create", "alice")
	run(t, addr, "create", "carol")
	run(t, addr, "accept", "G2", "dave")

	out, err := run(t, addr, "list", "--state", "awaiting_opponent")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "G1  alice vs -") || strings.Contains(out, "G2") {
		t.Errorf("Expected only the open game, got:\n%s", out)
	}

	out, _ = run(t, addr, "list", "--state", "finished")
	if !strings.Contains(out, "No games") {
		t.Errorf("Expected 'No games', got:\n%s", out)
	}
}

func TestChessctl_ChatAndForfeit(t *testing.T) {
	addr := startServer(t)
	run(t, addr, "create", "alice")
	run(t, addr, "accept", "G1", "bob")

	out, err := run(t, addr, "chat", "send", "G1", "alice", "good", "luck")
	if err != nil {
		t.Fatalf("chat send failed: %v", err)
	}
	if !strings.Contains(out, "alice: good luck") {
		t.Errorf("Expected sent message echoed, got:\n%s", out)
	}

	out, _ = run(t, addr, "chat", "read", "G1")
	if !strings.Contains(out, "alice: good luck") {
		t.Errorf("Expected message in chat log, got:\n%s", out)
	}

	out, err = run(t, addr, "gg", "G1", "bob")
	if err != nil {
		t.Fatalf("forfeit failed: %v", err)
	}
	if !strings.Contains(out, "Game over (forfeit), winner: alice") {
		t.Errorf("Expected alice to win by forfeit, got:\n%s", out)
	}
}

func TestChessctl_Undo(t *testing.T) {
	addr := startServer(t)
	run(t, addr, "create", "alice")
	run(t, addr, "accept", "G1", "bob")
	run(t, addr, "move", "G1", "alice", "e2e4")

	if _, err := run(t, addr, "undo", "G1", "bob"); multiplayer.CodeOf(err) != multiplayer.CodeNotYourTurn {
		t.Errorf("Expected NOT_YOUR_TURN when undoing the opponent's move, got %v", err)
	}

	out, err := run(t, addr, "undo", "G1", "alice")
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if strings.Contains(out, "Moves:") || !strings.Contains(out, "To move: alice") {
		t.Errorf("Expected empty history with alice to move, got:\n%s", out)
	}
}

func TestChessctl_Errors(t *testing.T) {
	addr := startServer(t)

	t.Run("unknown game", func(t *testing.T) {
		_, err := run(t, addr, "state", "nope")
		if multiplayer.CodeOf(err) != multiplayer.CodeNotFound {
			t.Errorf("Expected NOT_FOUND, got %v", err)
		}
	})

	t.Run("illegal move", func(t *testing.T) {
		run(t, addr, "create", "alice")
		run(t, addr, "accept", "G1", "bob")
		_, err := run(t, addr, "move", "G1", "alice", "e2e5")
		if multiplayer.CodeOf(err) != multiplayer.CodeIllegalMove {
			t.Errorf("Expected ILLEGAL_MOVE, got %v", err)
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		_, err := run(t, addr, "move", "G1")
		if err == nil || !strings.Contains(err.Error(), "expected <game> <player> <move>") {
			t.Errorf("Expected usage error, got %v", err)
		}
	})
}

func TestChessctl_JSON(t *testing.T) {
	addr := startServer(t)

	out, err := run(t, addr, "--json", "create", "alice")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	var game service.GameInfo
	if err := json.Unmarshal([]byte(out), &game); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", out, err)
	}
	if game.ID != "G1" || game.Host != "alice" || game.State != multiplayer.AwaitingOpponent {
		t.Errorf("Unexpected game %+v", game)
	}
}
