package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"dodgearena/game"
)

type fakeConn struct {
	sendCh chan []byte

	mu     sync.Mutex
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{sendCh: make(chan []byte, 4096)}
}

func (f *fakeConn) Enqueue(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	select {
	case f.sendCh <- cp:
	default:
	}
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// waitFor 读取消息直到出现指定类型
func waitFor(t *testing.T, fc *fakeConn, msgType string) Envelope {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case b := <-fc.sendCh:
			env, err := DecodeEnvelope(b)
			if err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			if env.Type == msgType {
				return env
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", msgType)
		}
	}
}

func drain(fc *fakeConn) []Envelope {
	var out []Envelope
	for {
		select {
		case b := <-fc.sendCh:
			if env, err := DecodeEnvelope(b); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type fakeReporter struct {
	calls chan game.Result
}

func newFakeReporter() *fakeReporter {
	return &fakeReporter{calls: make(chan game.Result, 4)}
}

func (f *fakeReporter) Report(_ context.Context, res game.Result) error {
	f.calls <- res
	return nil
}

func testRoomConfig() RoomConfig {
	return RoomConfig{
		TickInterval:  5 * time.Millisecond,
		WaitTimeout:   time.Hour,
		Countdown:     10 * time.Millisecond,
		CleanupDelay:  time.Hour,
		ReportTimeout: time.Second,
	}
}

func identity(n string) Identity {
	return Identity{ExternalID: "ext-" + n, Name: n}
}

type joined struct {
	room *Room
	id   SessionID
	conn *fakeConn
}

func joinN(t *testing.T, m *RoomManager, code string, n int) []joined {
	t.Helper()
	out := make([]joined, 0, n)
	for i := 0; i < n; i++ {
		fc := newFakeConn()
		name := string(rune('a' + i))
		r, id, err := m.Join(context.Background(), code, fc, identity(name))
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		out = append(out, joined{room: r, id: id, conn: fc})
	}
	return out
}

// startedRoom 三人加入并全部准备，等待开局
func startedRoom(t *testing.T, m *RoomManager, code string) []joined {
	t.Helper()
	js := joinN(t, m, code, game.RosterSize)
	for _, j := range js {
		j.room.Ready(j.id)
	}
	waitFor(t, js[0].conn, MsgGameStart)
	waitFor(t, js[0].conn, MsgGameState)
	return js
}
