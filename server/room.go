package server

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"dodgearena/game"
)

// Room 房间世界：一个权威引擎 + 成员 + 计时器。
// 所有事件与 Tick 都在 run 协程中串行执行，引擎不会被并发访问。
type Room struct {
	Code string

	engine  *game.Engine
	members map[SessionID]*member
	inbox   chan any
	done    chan struct{}

	cfg      RoomConfig
	reporter Reporter
	onClose  func(*Room)
	metrics  *RoomMetrics

	// 以下仅由 run 协程访问；每种计时器至多一个
	ticker         *time.Ticker
	waitTimer      *time.Timer
	countdownTimer *time.Timer
	cleanupTimer   *time.Timer
	gameOver       bool
	closing        bool
}

// RoomInfo 管理接口展示的房间概要
type RoomInfo struct {
	Code    string      `json:"code"`
	Status  game.Status `json:"status"`
	Players int         `json:"players"`
	Tick    int         `json:"tick"`
}

type joinCmd struct {
	conn     Sender
	identity Identity
	reply    chan joinReply
}

type joinReply struct {
	id  SessionID
	err error
}

type readyCmd struct{ id SessionID }

type inputCmd struct {
	id     SessionID
	dx, dy float64
}

type leaveCmd struct{ id SessionID }

type dissolveCmd struct{ reason string }

type infoCmd struct{ reply chan RoomInfo }

// NewRoom 创建房间（尚未启动协程）；onClose 在房间销毁时于房间协程中调用
func NewRoom(code string, cfg RoomConfig, reporter Reporter, onClose func(*Room), opts ...game.Option) *Room {
	return &Room{
		Code:     code,
		engine:   game.NewEngine(opts...),
		members:  make(map[SessionID]*member),
		inbox:    make(chan any, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		done:     make(chan struct{}),
		cfg:      cfg,
		reporter: reporter,
		onClose:  onClose,
		metrics:  &RoomMetrics{},
	}
}

// Start 启动房间协程并开始等待计时
func (r *Room) Start() {
	go r.run()
}

// Done 房间销毁后关闭
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

func (r *Room) post(ctx context.Context, cmd any) error {
	select {
	case r.inbox <- cmd:
		return nil
	case <-r.done:
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join 请求加入；身份须已验证。成功返回新会话 ID。
// ctx 只约束投递；投递后房间必然处理该请求，因此只等回复或房间关闭，不会丢掉已登记的成员
func (r *Room) Join(ctx context.Context, conn Sender, identity Identity) (SessionID, error) {
	reply := make(chan joinReply, 1)
	if err := r.post(ctx, joinCmd{conn: conn, identity: identity, reply: reply}); err != nil {
		return "", err
	}
	select {
	case res := <-reply:
		return res.id, res.err
	case <-r.done:
		// 房间可能在回复之后才关闭
		select {
		case res := <-reply:
			return res.id, res.err
		default:
			return "", ErrRoomClosed
		}
	}
}

// Ready 标记准备
func (r *Room) Ready(id SessionID) {
	_ = r.post(context.Background(), readyCmd{id: id})
}

// Input 入站输入（不立即改变位置），仅记录意图，等下一次 Tick 处理
func (r *Room) Input(id SessionID, dx, dy float64) {
	// 不阻塞：输入拥塞时丢弃，保证 Tick 准时
	select {
	case r.inbox <- inputCmd{id: id, dx: dx, dy: dy}:
	case <-r.done:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// Leave 请求在房间协程中移除玩家（断线）
func (r *Room) Leave(id SessionID) {
	_ = r.post(context.Background(), leaveCmd{id: id})
}

// Dissolve 主动解散：通知成员后停止 Tick 与全部计时器，再从管理器移除。等待房间协程退出
func (r *Room) Dissolve(ctx context.Context, reason string) error {
	if err := r.post(ctx, dissolveCmd{reason: reason}); err != nil {
		return err
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Info 读取房间概要（经由房间协程，避免并发读引擎）
func (r *Room) Info(ctx context.Context) (RoomInfo, error) {
	reply := make(chan RoomInfo, 1)
	if err := r.post(ctx, infoCmd{reply: reply}); err != nil {
		return RoomInfo{}, err
	}
	select {
	case info := <-reply:
		return info, nil
	case <-r.done:
		return RoomInfo{}, ErrRoomClosed
	case <-ctx.Done():
		return RoomInfo{}, ctx.Err()
	}
}

func (r *Room) run() {
	defer close(r.done)
	defer r.teardown()
	defer func() {
		if err := recover(); err != nil {
			sentry.CurrentHub().Recover(err)
			Log.Errorf("room %s panic: %v", r.Code, err)
		}
	}()

	r.armWaitTimer()
	for !r.closing {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd)
		case <-timerC(r.waitTimer):
			r.waitTimer = nil
			r.dissolve("Room timed out waiting for players.")
		case <-timerC(r.countdownTimer):
			r.countdownTimer = nil
			r.startGame()
		case <-tickerC(r.ticker):
			r.onTick()
		case <-timerC(r.cleanupTimer):
			r.cleanupTimer = nil
			Log.Infof("room %s: cleanup after game over", r.Code)
			r.closing = true
		}
	}
}

func (r *Room) handle(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		id, err := r.handleJoin(c.conn, c.identity)
		c.reply <- joinReply{id: id, err: err}
		if err == nil {
			r.broadcastRoomState()
		}
	case readyCmd:
		r.handleReady(c.id)
	case inputCmd:
		if _, ok := r.members[c.id]; !ok || r.engine.Status() != game.StatusPlaying {
			r.metrics.IncIgnored()
			return
		}
		r.engine.QueueInput(c.id, c.dx, c.dy)
		r.metrics.IncAccepted()
	case leaveCmd:
		r.handleLeave(c.id)
	case dissolveCmd:
		r.dissolve(c.reason)
	case infoCmd:
		c.reply <- RoomInfo{
			Code:    r.Code,
			Status:  r.engine.Status(),
			Players: r.engine.PlayerCount(),
			Tick:    r.engine.Tick(),
		}
	}
}

func (r *Room) handleJoin(conn Sender, identity Identity) (SessionID, error) {
	if r.engine.Status() != game.StatusWaiting {
		return "", ErrGameInProgress
	}
	id := uuid.NewString()
	if !r.engine.AddPlayer(id, identity.ExternalID, identity.Name) {
		return "", ErrRoomFull
	}
	r.members[id] = &member{id: id, identity: identity, conn: conn}
	Log.Infof("room %s: %s (%s) joined as %s, %d/%d", r.Code, identity.Name, identity.ExternalID, id,
		r.engine.PlayerCount(), game.RosterSize)
	return id, nil
}

func (r *Room) handleReady(id SessionID) {
	if _, ok := r.members[id]; !ok || r.engine.Status() != game.StatusWaiting {
		return
	}
	allReady := r.engine.SetReady(id)
	r.broadcastRoomState()
	if allReady && r.countdownTimer == nil {
		r.startCountdown()
	}
}

// handleLeave 移除成员；对局中的断线可能直接结束对局，因此移除后重新读取状态
func (r *Room) handleLeave(id SessionID) {
	m, ok := r.members[id]
	if !ok {
		return
	}
	delete(r.members, id)
	m.conn.Close()

	wasAlive := false
	if p, ok := r.engine.Player(id); ok {
		wasAlive = p.Alive && r.engine.Status() == game.StatusPlaying
	}
	r.engine.RemovePlayer(id)
	if wasAlive {
		r.metrics.IncEliminations()
	}
	Log.Infof("room %s: %s left (status=%s, members=%d)", r.Code, m.identity.Name, r.engine.Status(), len(r.members))

	if len(r.members) == 0 {
		r.closing = true
		return
	}

	switch r.engine.Status() {
	case game.StatusFinished:
		if !r.gameOver {
			r.finishGame()
		}
	case game.StatusPlaying:
		r.broadcast(MsgGameState, r.engine.State())
	case game.StatusWaiting:
		if r.countdownTimer != nil {
			// 倒计时中有人离开：取消开局，重新进入等待
			stopTimer(&r.countdownTimer)
			r.armWaitTimer()
		}
		r.broadcastRoomState()
	}
}

// dissolve 通知全部成员原因；实际的停止与注销在 teardown 中完成
func (r *Room) dissolve(reason string) {
	Log.Infof("room %s dissolved: %s", r.Code, reason)
	r.broadcast(MsgRoomError, RoomErrorMessage{Message: reason})
	r.closing = true
}

// teardown 先同步停止 Tick 与全部计时器，再关闭连接并从管理器注销
func (r *Room) teardown() {
	r.stopTicker()
	stopTimer(&r.waitTimer)
	stopTimer(&r.countdownTimer)
	stopTimer(&r.cleanupTimer)
	for _, m := range r.members {
		m.conn.Close()
	}
	r.closing = true
	if r.onClose != nil {
		r.onClose(r)
	}
}

func (r *Room) broadcast(t string, payload any) {
	b, err := Encode(t, payload)
	if err != nil {
		Log.Errorf("room %s: %v", r.Code, err)
		return
	}
	for _, m := range r.members {
		m.conn.Enqueue(b)
	}
}

func (r *Room) broadcastRoomState() {
	r.broadcast(MsgRoomState, RoomStateMessage{
		RoomCode: r.Code,
		Players:  r.engine.PlayerViews(),
		Status:   r.engine.Status(),
	})
}
