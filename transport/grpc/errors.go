package grpc

import (
	"github.com/wricardo/multiplayer-chess/game/multiplayer"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDomain tags the ErrorInfo detail attached to every rejection.
const ErrorDomain = "chess.multiplayer"

// GRPCCode maps a rejection code to a gRPC status code.
func GRPCCode(code multiplayer.Code) codes.Code {
	switch code {
	case multiplayer.CodeNotFound:
		return codes.NotFound
	case multiplayer.CodeDuplicateID:
		return codes.Aborted
	case multiplayer.CodeAlreadyJoined:
		return codes.AlreadyExists
	case multiplayer.CodeNotYourTurn, multiplayer.CodeGameOver, multiplayer.CodeNotStarted:
		return codes.FailedPrecondition
	case multiplayer.CodeIllegalMove, multiplayer.CodeInvalidArgument:
		return codes.InvalidArgument
	case multiplayer.CodeUnauthorized:
		return codes.PermissionDenied
	default:
		return codes.Internal
	}
}

// toStatus converts a service error into a status error. Several codes
// share a gRPC code, so the ErrorInfo reason carries the exact one.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := multiplayer.CodeOf(err)
	st := status.New(GRPCCode(code), err.Error())
	if code == multiplayer.CodeUnknown {
		return st.Err()
	}

	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: string(code),
		Domain: ErrorDomain,
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// FromError turns a status error from the server back into a
// *multiplayer.Error so callers can use errors.Is with the package
// sentinels. Errors without a chess ErrorInfo are returned unchanged.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		return multiplayer.NewError(multiplayer.Code(info.GetReason()), st.Message())
	}
	return err
}

// ReasonOf returns the chess error code carried by err, from either side of
// the wire.
func ReasonOf(err error) multiplayer.Code {
	return multiplayer.CodeOf(FromError(err))
}
