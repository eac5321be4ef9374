package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64

	// 投递加入请求到房间收件箱的时限，与身份验证分开计时
	joinPostWait = 5 * time.Second
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// 为了实时性，丢弃新消息（防止阻塞 Tick）
	}
}

// Close 关闭发送队列；写协程发完已排队消息后关闭连接。可重复调用
func (c *ClientConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *ClientConn) sendError(err error) {
	b, encErr := Encode(MsgRoomError, RoomErrorMessage{Message: userMessage(err)})
	if encErr != nil {
		return
	}
	c.Enqueue(b)
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期发送 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// session 单个连接在读协程中的状态：至多加入一个房间
type session struct {
	room *Room
	id   SessionID
}

// readPump 读取客户端事件并转交房间；退出时通知房间移除该玩家
func (c *ClientConn) readPump(h *WSHandler) {
	var s session
	defer func() {
		if s.room != nil {
			s.room.Leave(s.id)
		}
		c.Close()
		_ = c.ws.Close()
	}()
	c.ws.SetReadLimit(1 << 20) // 1MB
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		env, err := DecodeEnvelope(payload)
		if err != nil {
			Log.Debugf("bad frame: %v", err)
			continue
		}
		switch env.Type {
		case MsgJoin:
			if s.room != nil {
				c.sendError(ErrAlreadyJoined)
				continue
			}
			msg, err := DecodePayload[JoinMessage](env)
			if err != nil {
				Log.Debugf("bad join: %v", err)
				c.sendError(ErrMissingFields)
				continue
			}
			room, id, err := h.join(msg, c)
			if err != nil {
				c.sendError(err)
				continue
			}
			s = session{room: room, id: id}
		case MsgReady:
			if s.room != nil {
				s.room.Ready(s.id)
			}
		case MsgInput:
			if s.room == nil {
				continue
			}
			msg, err := DecodePayload[InputMessage](env)
			if err != nil {
				Log.Debugf("bad input: %v", err)
				continue
			}
			s.room.Input(s.id, msg.DX, msg.DY)
		default:
			Log.Debugf("unknown message type %q", env.Type)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 演示环境：允许所有来源（生产环境需严格限制）
		return true
	},
}

// WSHandler WebSocket 接入：连接后发送 join 事件加入房间
type WSHandler struct {
	Manager  *RoomManager
	Verifier Verifier
	Timeout  time.Duration // 身份验证超时
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}
	client := NewClientConn(ws)
	go client.writePump()
	go client.readPump(h)
}

// join 在连接协程中完成身份验证（不占用房间协程），再请求加入房间
func (h *WSHandler) join(msg JoinMessage, conn Sender) (*Room, SessionID, error) {
	if err := msg.validate(); err != nil {
		return nil, "", err
	}
	verifyCtx, cancelVerify := context.WithTimeout(context.Background(), h.timeout())
	identity, err := h.Verifier.Verify(verifyCtx, msg.DisplayName, msg.AuthCode)
	cancelVerify()
	if err != nil {
		Log.Infof("verify %s failed: %v", msg.DisplayName, err)
		return nil, "", err
	}

	joinCtx, cancelJoin := context.WithTimeout(context.Background(), joinPostWait)
	defer cancelJoin()
	room, id, err := h.Manager.Join(joinCtx, msg.RoomCode, conn, identity)
	if err != nil {
		Log.Infof("join %s by %s rejected: %v", msg.RoomCode, identity.Name, err)
		return nil, "", err
	}
	return room, id, nil
}

func (h *WSHandler) timeout() time.Duration {
	if h.Timeout > 0 {
		return h.Timeout
	}
	return 10 * time.Second
}
