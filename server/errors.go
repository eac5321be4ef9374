package server

import "errors"

// 加入房间被拒绝的原因（面向用户，不改变房间状态）
var (
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game already in progress")
	ErrRoomClosed     = errors.New("room closed")
	ErrAlreadyJoined  = errors.New("connection already joined a room")
	ErrMissingFields  = errors.New("missing join fields")
)

// 外部服务失败
var (
	ErrVerificationFailed  = errors.New("identity verification failed")
	ErrVerifierUnavailable = errors.New("identity service unavailable")
)

// userMessage 转为客户端可见的提示
func userMessage(err error) string {
	var vErr *VerifyError
	switch {
	case errors.As(err, &vErr) && vErr.Message != "":
		return vErr.Message
	case errors.Is(err, ErrRoomFull):
		return "Room is full."
	case errors.Is(err, ErrGameInProgress):
		return "The game is already in progress."
	case errors.Is(err, ErrAlreadyJoined):
		return "Already joined a room."
	case errors.Is(err, ErrMissingFields):
		return "Missing room code, username or auth code."
	case errors.Is(err, ErrVerificationFailed):
		return "Verification failed. Please check your auth code."
	case errors.Is(err, ErrVerifierUnavailable):
		return "Could not reach the verification server."
	default:
		return "Could not join the room."
	}
}
