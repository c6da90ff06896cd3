package multiplayer

import "errors"

// Code is a machine-readable failure reason. Transports map each code to
// their own status space.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeDuplicateID     Code = "DUPLICATE_ID"
	CodeAlreadyJoined   Code = "ALREADY_JOINED"
	CodeNotYourTurn     Code = "NOT_YOUR_TURN"
	CodeIllegalMove     Code = "ILLEGAL_MOVE"
	CodeGameOver        Code = "GAME_OVER"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeNotStarted      Code = "NOT_STARTED"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Error is a rejected operation. Errors compare equal under errors.Is when
// their codes match.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError returns an error with no cause.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError returns an error that keeps cause in the chain.
func WrapError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

var (
	ErrNotFound        = NewError(CodeNotFound, "game not found")
	ErrDuplicateID     = NewError(CodeDuplicateID, "game id already exists")
	ErrAlreadyJoined   = NewError(CodeAlreadyJoined, "game already has a guest")
	ErrNotYourTurn     = NewError(CodeNotYourTurn, "not your turn")
	ErrIllegalMove     = NewError(CodeIllegalMove, "illegal move")
	ErrGameOver        = NewError(CodeGameOver, "game is over")
	ErrUnauthorized    = NewError(CodeUnauthorized, "player is not part of this game")
	ErrNotStarted      = NewError(CodeNotStarted, "game is waiting for an opponent")
	ErrInvalidArgument = NewError(CodeInvalidArgument, "invalid argument")
)

// CodeOf extracts the code from err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
