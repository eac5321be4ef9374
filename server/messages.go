package server

import (
	"encoding/json"
	"fmt"

	"dodgearena/game"
)

// 出站消息类型（服务端 → 客户端）
const (
	MsgRoomState = "room_state"
	MsgGameStart = "game_start"
	MsgGameState = "game_state"
	MsgPlayerHit = "player_hit"
	MsgGameOver  = "game_over"
	MsgRoomError = "room_error"
)

// RoomStateMessage 成员或准备状态变化后广播
type RoomStateMessage struct {
	RoomCode string            `json:"roomCode"`
	Players  []game.PlayerView `json:"players"`
	Status   game.Status       `json:"status"`
}

// GameStartMessage 全员准备后开始倒计时
type GameStartMessage struct {
	CountdownSeconds int `json:"countdownSeconds"` // 秒
}

// GameStateMessage 每 Tick 广播
type GameStateMessage = game.Snapshot

// PlayerHitMessage 每次受击通知
type PlayerHitMessage struct {
	ExternalID     string `json:"externalId"`
	DisplayName    string `json:"displayName"`
	AliveRemaining int    `json:"aliveRemaining"` // 存活人数
	HPRemaining    int    `json:"hpRemaining"`    // 受击者剩余 HP
}

// GameOverMessage 对局结算
type GameOverMessage = game.Result

// RoomErrorMessage 拒绝加入或房间解散
type RoomErrorMessage struct {
	Message string `json:"message"`
}

// Encode 将载荷包装为 Envelope 并序列化
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Data: data})
}
