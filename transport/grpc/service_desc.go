package grpc

import (
	"context"

	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"github.com/wricardo/multiplayer-chess/game/service"
	gogrpc "google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "chess.Chess"

// ChessServer is the server API for the chess service.
type ChessServer interface {
	PushGameCreate(context.Context, *PushGameCreateRequest) (*service.GameInfo, error)
	PushGameAccept(context.Context, *PlayerRequest) (*service.GameInfo, error)
	PushMove(context.Context, *PushMoveRequest) (*service.MoveResult, error)
	PushUndo(context.Context, *PlayerRequest) (*service.GameInfo, error)
	PushGameGg(context.Context, *PlayerRequest) (*service.GameInfo, error)
	PullBoardState(context.Context, *GameRequest) (*service.BoardState, error)
	PullGameState(context.Context, *GameRequest) (*service.GameInfo, error)
	PullGamesList(context.Context, *PullGamesListRequest) (*PullGamesListResponse, error)
	PullMoves(context.Context, *PullMovesRequest) (*service.HistoryResponse, error)
	PullLegalMoves(context.Context, *GameRequest) (*LegalMovesResponse, error)
	PushMsg(context.Context, *PushMsgRequest) (*multiplayer.ChatMessage, error)
	PullMsgs(context.Context, *GameRequest) (*PullMsgsResponse, error)
	PullPresets(context.Context, *PullPresetsRequest) (*PullPresetsResponse, error)
}

// ChessServiceDesc describes the chess service for gogrpc.Server.
var ChessServiceDesc = gogrpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChessServer)(nil),
	Methods: []gogrpc.MethodDesc{
		unary("PushGameCreate", ChessServer.PushGameCreate),
		unary("PushGameAccept", ChessServer.PushGameAccept),
		unary("PushMove", ChessServer.PushMove),
		unary("PushUndo", ChessServer.PushUndo),
		unary("PushGameGg", ChessServer.PushGameGg),
		unary("PullBoardState", ChessServer.PullBoardState),
		unary("PullGameState", ChessServer.PullGameState),
		unary("PullGamesList", ChessServer.PullGamesList),
		unary("PullMoves", ChessServer.PullMoves),
		unary("PullLegalMoves", ChessServer.PullLegalMoves),
		unary("PushMsg", ChessServer.PushMsg),
		unary("PullMsgs", ChessServer.PullMsgs),
		unary("PullPresets", ChessServer.PullPresets),
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "chess.proto",
}

// RegisterChessServer registers srv on s.
func RegisterChessServer(s gogrpc.ServiceRegistrar, srv ChessServer) {
	s.RegisterService(&ChessServiceDesc, srv)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the method handler that decodes Req, runs interceptors and
// dispatches to call.
func unary[Req, Resp any](name string, call func(ChessServer, context.Context, *Req) (Resp, error)) gogrpc.MethodDesc {
	return gogrpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				resp, err := call(srv.(ChessServer), ctx, req.(*Req))
				if err != nil {
					return nil, err
				}
				return resp, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}
