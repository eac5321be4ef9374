package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeVerifier 认证码为 "ok" 时通过，外部 ID 取自用户名
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, username, authCode string) (Identity, error) {
	if authCode != "ok" {
		return Identity{}, &VerifyError{Status: 400, Message: "Invalid auth code."}
	}
	return Identity{ExternalID: "ext-" + username, Name: username}, nil
}

func newWSServer(t *testing.T) (*RoomManager, string) {
	t.Helper()
	m := NewRoomManager(testRoomConfig(), nil)
	h := &WSHandler{Manager: m, Verifier: fakeVerifier{}, Timeout: time.Second}
	srv := httptest.NewServer(NewRouter(m, h))
	t.Cleanup(func() {
		_ = m.Shutdown(context.Background())
		srv.Close()
	})
	return m, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func send(t *testing.T, c *websocket.Conn, msgType string, payload any) {
	t.Helper()
	b, err := Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// readUntil 读取消息直到出现指定类型
func readUntil(t *testing.T, c *websocket.Conn, msgType string) Envelope {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, b, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		env, err := DecodeEnvelope(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type == msgType {
			return env
		}
	}
}

func TestWSJoinAndReady(t *testing.T) {
	m, url := newWSServer(t)
	c := dial(t, url)

	send(t, c, MsgJoin, JoinMessage{RoomCode: "WS", DisplayName: "alice", AuthCode: "ok"})
	st, err := DecodePayload[RoomStateMessage](readUntil(t, c, MsgRoomState))
	if err != nil || len(st.Players) != 1 || st.Players[0].ExternalID != "ext-alice" {
		t.Fatalf("room_state = %+v err=%v", st, err)
	}

	send(t, c, MsgReady, nil)
	st, _ = DecodePayload[RoomStateMessage](readUntil(t, c, MsgRoomState))
	if !st.Players[0].Ready {
		t.Fatalf("ready not reflected: %+v", st.Players[0])
	}

	send(t, c, MsgJoin, JoinMessage{RoomCode: "OTHER", DisplayName: "alice", AuthCode: "ok"})
	msg, _ := DecodePayload[RoomErrorMessage](readUntil(t, c, MsgRoomError))
	if msg.Message != userMessage(ErrAlreadyJoined) {
		t.Fatalf("second join error = %q", msg.Message)
	}
	if m.Len() != 1 {
		t.Fatalf("rooms = %d, want 1", m.Len())
	}
}

func TestWSJoinRejectedByVerifier(t *testing.T) {
	m, url := newWSServer(t)
	c := dial(t, url)

	send(t, c, MsgJoin, JoinMessage{RoomCode: "WS", DisplayName: "mallory", AuthCode: "bad"})
	msg, _ := DecodePayload[RoomErrorMessage](readUntil(t, c, MsgRoomError))
	if msg.Message != "Invalid auth code." {
		t.Fatalf("error = %q", msg.Message)
	}
	if m.Len() != 0 {
		t.Fatalf("rejected join created a room")
	}

	send(t, c, MsgJoin, JoinMessage{RoomCode: "WS", DisplayName: "mallory"})
	msg, _ = DecodePayload[RoomErrorMessage](readUntil(t, c, MsgRoomError))
	if msg.Message != userMessage(ErrMissingFields) {
		t.Fatalf("missing fields error = %q", msg.Message)
	}
}

func TestWSDisconnectLeavesRoom(t *testing.T) {
	m, url := newWSServer(t)
	a := dial(t, url)
	b := dial(t, url)

	send(t, a, MsgJoin, JoinMessage{RoomCode: "DC", DisplayName: "alice", AuthCode: "ok"})
	readUntil(t, a, MsgRoomState)
	send(t, b, MsgJoin, JoinMessage{RoomCode: "DC", DisplayName: "bob", AuthCode: "ok"})
	readUntil(t, b, MsgRoomState)

	_ = a.Close()
	eventually(t, "member removal", func() bool {
		r, ok := m.Get("DC")
		if !ok {
			return false
		}
		info, err := r.Info(context.Background())
		return err == nil && info.Players == 1
	})
}
