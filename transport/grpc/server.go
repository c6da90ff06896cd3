package grpc

import (
	"context"
	"log"
	"time"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

var _ ChessServer = (*Server)(nil)

// Server adapts a SessionService to the chess gRPC API.
type Server struct {
	svc service.SessionService
}

// NewServer creates a chess gRPC handler backed by svc.
func NewServer(svc service.SessionService) *Server {
	return &Server{svc: svc}
}

// NewGRPCServer builds a gRPC server with the chess service, the standard
// health service reporting SERVING, tracing and request logging.
func NewGRPCServer(svc service.SessionService, opts ...gogrpc.ServerOption) (*gogrpc.Server, *health.Server) {
	opts = append([]gogrpc.ServerOption{
		gogrpc.StatsHandler(otelgrpc.NewServerHandler()),
		gogrpc.ChainUnaryInterceptor(logUnary),
	}, opts...)
	grpcServer := gogrpc.NewServer(opts...)

	RegisterChessServer(grpcServer, NewServer(svc))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return grpcServer, healthServer
}

// logUnary writes one line per failed call.
func logUnary(ctx context.Context, req any, info *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		log.Printf("[GRPC] %s code=%s reason=%s dur=%s", info.FullMethod, status.Code(err), ReasonOf(err), time.Since(start))
	}
	return resp, err
}

func (s *Server) PushGameCreate(ctx context.Context, req *PushGameCreateRequest) (*service.GameInfo, error) {
	game, err := s.svc.CreateGame(ctx, req.Host, req.Preset)
	if err != nil {
		return nil, toStatus(err)
	}
	return game, nil
}

func (s *Server) PushGameAccept(ctx context.Context, req *PlayerRequest) (*service.GameInfo, error) {
	game, err := s.svc.AcceptGame(ctx, req.GameID, req.Player)
	if err != nil {
		return nil, toStatus(err)
	}
	return game, nil
}

func (s *Server) PushMove(ctx context.Context, req *PushMoveRequest) (*service.MoveResult, error) {
	result, err := s.svc.PushMove(ctx, req.GameID, req.Player, req.Move)
	if err != nil {
		return nil, toStatus(err)
	}
	return result, nil
}

func (s *Server) PushUndo(ctx context.Context, req *PlayerRequest) (*service.GameInfo, error) {
	game, err := s.svc.PushUndo(ctx, req.GameID, req.Player)
	if err != nil {
		return nil, toStatus(err)
	}
	return game, nil
}

// PushGameGg forfeits the game for req.Player.
func (s *Server) PushGameGg(ctx context.Context, req *PlayerRequest) (*service.GameInfo, error) {
	game, err := s.svc.Forfeit(ctx, req.GameID, req.Player)
	if err != nil {
		return nil, toStatus(err)
	}
	return game, nil
}

func (s *Server) PullBoardState(ctx context.Context, req *GameRequest) (*service.BoardState, error) {
	board, err := s.svc.PullBoardState(ctx, req.GameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return board, nil
}

func (s *Server) PullGameState(ctx context.Context, req *GameRequest) (*service.GameInfo, error) {
	game, err := s.svc.PullGameState(ctx, req.GameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return game, nil
}

func (s *Server) PullGamesList(ctx context.Context, req *PullGamesListRequest) (*PullGamesListResponse, error) {
	games, err := s.svc.ListGameSummaries(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.ID)
	}
	return &PullGamesListResponse{GameIDs: ids, Games: games}, nil
}

func (s *Server) PullMoves(ctx context.Context, req *PullMovesRequest) (*service.HistoryResponse, error) {
	history, err := s.svc.PullMoves(ctx, req.GameID, service.HistoryOptions{
		Page:  req.Page,
		Limit: req.Limit,
		Order: req.Order,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return history, nil
}

func (s *Server) PullLegalMoves(ctx context.Context, req *GameRequest) (*LegalMovesResponse, error) {
	moves, err := s.svc.LegalMoves(ctx, req.GameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &LegalMovesResponse{GameID: req.GameID, Moves: moves}, nil
}

func (s *Server) PushMsg(ctx context.Context, req *PushMsgRequest) (*multiplayer.ChatMessage, error) {
	msg, err := s.svc.SendChat(ctx, req.GameID, req.Sender, req.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	return msg, nil
}

func (s *Server) PullMsgs(ctx context.Context, req *GameRequest) (*PullMsgsResponse, error) {
	messages, err := s.svc.PullChat(ctx, req.GameID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &PullMsgsResponse{GameID: req.GameID, Messages: messages}, nil
}

func (s *Server) PullPresets(ctx context.Context, req *PullPresetsRequest) (*PullPresetsResponse, error) {
	presets, err := s.svc.ListPresets(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &PullPresetsResponse{Presets: presets}, nil
}
