package game

import (
	"math/rand"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// Status 房间（对局）状态：waiting → playing → finished
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Engine 单个房间的权威模拟。非并发安全：调用方保证同一时刻只有一个调用者（房间协程）
type Engine struct {
	players *orderedmap.OrderedMap[string, *Player] // 按加入顺序
	bullets []*Bullet
	items   []*Item
	inputs  map[string]mgl64.Vec2

	tick             int
	status           Status
	eliminationOrder []string

	bulletIDs idSeq
	itemIDs   idSeq
	rng       *rand.Rand
}

// Option 引擎可选配置
type Option func(*Engine)

// WithRand 注入随机源（测试中用于固定波次角度与道具位置）
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// NewEngine 创建处于 waiting 状态的空引擎
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		players:   orderedmap.NewOrderedMap[string, *Player](),
		inputs:    make(map[string]mgl64.Vec2),
		status:    StatusWaiting,
		bulletIDs: idSeq{prefix: "b"},
		itemIDs:   idSeq{prefix: "item"},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// roster 按加入顺序返回全部玩家
func (e *Engine) roster() []*Player {
	out := make([]*Player, 0, e.players.Len())
	for el := e.players.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

func (e *Engine) alive() []*Player {
	out := make([]*Player, 0, e.players.Len())
	for _, p := range e.roster() {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// AddPlayer 满员或已开局时返回 false；成功后分配下一个出生点
func (e *Engine) AddPlayer(sessionID, externalID, name string) bool {
	if e.players.Len() >= RosterSize || e.status != StatusWaiting {
		return false
	}
	if _, ok := e.players.Get(sessionID); ok {
		return false
	}
	p := newPlayer(sessionID, externalID, name)
	slot := StartingSlots[e.players.Len()]
	p.Pos = mgl64.Vec2{slot[0], slot[1]}
	e.players.Set(sessionID, p)
	return true
}

// RemovePlayer 等待中直接移除并重排出生点；对局中视为淘汰
func (e *Engine) RemovePlayer(sessionID string) {
	p, ok := e.players.Get(sessionID)
	if !ok {
		return
	}
	switch e.status {
	case StatusWaiting:
		e.players.Delete(sessionID)
		delete(e.inputs, sessionID)
		for i, rest := range e.roster() {
			rest.Pos = mgl64.Vec2{StartingSlots[i][0], StartingSlots[i][1]}
			rest.Vel = mgl64.Vec2{}
		}
	case StatusPlaying:
		e.eliminate(p)
		delete(e.inputs, sessionID)
		if len(e.alive()) <= 1 {
			e.status = StatusFinished
		}
	}
}

// SetReady 标记准备；仅当满员且全部准备时返回 true
func (e *Engine) SetReady(sessionID string) bool {
	p, ok := e.players.Get(sessionID)
	if !ok {
		return false
	}
	p.Ready = true
	return e.AllReady()
}

func (e *Engine) AllReady() bool {
	if e.players.Len() < RosterSize {
		return false
	}
	for _, p := range e.roster() {
		if !p.Ready {
			return false
		}
	}
	return true
}

// QueueInput 记录本 Tick 的移动意图（同一 Tick 内后写覆盖先写）
func (e *Engine) QueueInput(sessionID string, dx, dy float64) {
	if _, ok := e.players.Get(sessionID); !ok {
		return
	}
	e.inputs[sessionID] = clampUnit(mgl64.Vec2{dx, dy})
}

// StartGame waiting → playing，重置 Tick 与场上实体
func (e *Engine) StartGame() {
	e.status = StatusPlaying
	e.tick = 0
	e.bullets = nil
	e.items = nil
	e.eliminationOrder = nil
	clear(e.inputs)
}

func (e *Engine) eliminate(p *Player) {
	if !p.Alive {
		return
	}
	p.Alive = false
	at := e.tick
	p.EliminatedAt = &at
	e.eliminationOrder = append(e.eliminationOrder, p.SessionID)
}

func (e *Engine) Status() Status { return e.status }

func (e *Engine) Tick() int { return e.tick }

func (e *Engine) PlayerCount() int { return e.players.Len() }

// EliminationOrder 按淘汰先后返回会话 ID 副本
func (e *Engine) EliminationOrder() []string {
	return append([]string(nil), e.eliminationOrder...)
}

// AlivePlayers 按加入顺序返回存活玩家
func (e *Engine) AlivePlayers() []PlayerInfo {
	alive := e.alive()
	out := make([]PlayerInfo, len(alive))
	for i, p := range alive {
		out[i] = p.info()
	}
	return out
}

// Winner 恰好一人存活时返回该玩家
func (e *Engine) Winner() (PlayerInfo, bool) {
	alive := e.alive()
	if len(alive) != 1 {
		return PlayerInfo{}, false
	}
	return alive[0].info(), true
}

// Player 返回玩家副本，供测试与调试读取
func (e *Engine) Player(sessionID string) (Player, bool) {
	p, ok := e.players.Get(sessionID)
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}
