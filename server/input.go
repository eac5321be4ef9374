package server

import (
	"encoding/json"
	"errors"
	"fmt"
)

// 入站消息类型（客户端 → 服务端）；断开连接为隐式事件
const (
	MsgJoin  = "join"
	MsgReady = "ready"
	MsgInput = "input"
)

// Envelope WebSocket 文本消息的统一外壳
// 示例：{"type":"input","data":{"dx":1,"dy":0}}
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinMessage 加入请求，需先经身份验证服务换取外部 ID
type JoinMessage struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
	AuthCode    string `json:"authCode"`
}

func (m JoinMessage) validate() error {
	if m.RoomCode == "" || m.DisplayName == "" || m.AuthCode == "" {
		return ErrMissingFields
	}
	return nil
}

// InputMessage 移动意图，分量范围 -1~1（超出部分由引擎裁剪）
type InputMessage struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// DecodeEnvelope 解析外壳
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, errors.New("empty message")
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Type == "" {
		return Envelope{}, errors.New("missing message type")
	}
	return env, nil
}

// DecodePayload 按类型解析载荷；ready 等无载荷消息返回零值
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return out, nil
}
