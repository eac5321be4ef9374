package game

import "github.com/go-gl/mathgl/mgl64"

// Player 房间内的玩家实体（服务端权威状态）
type Player struct {
	SessionID  string // 连接会话 ID，加入时分配
	ExternalID string // 身份验证后得到的外部 ID
	Name       string

	Pos    mgl64.Vec2
	Vel    mgl64.Vec2
	Radius float64

	HP    int
	MaxHP int
	// InvincibleUntil 为 nil 表示从未受击
	InvincibleUntil *int
	Alive           bool

	Ready bool
	// EliminatedAt 存活时为 nil
	EliminatedAt *int
}

func newPlayer(sessionID, externalID, name string) *Player {
	return &Player{
		SessionID:  sessionID,
		ExternalID: externalID,
		Name:       name,
		Radius:     PlayerRadius,
		HP:         PlayerMaxHP,
		MaxHP:      PlayerMaxHP,
		Alive:      true,
	}
}

func (p *Player) invincibleAt(tick int) bool {
	return p.InvincibleUntil != nil && tick <= *p.InvincibleUntil
}

// clone 深拷贝，指针字段不再指向引擎内部状态
func (p *Player) clone() Player {
	cp := *p
	cp.InvincibleUntil = copyInt(p.InvincibleUntil)
	cp.EliminatedAt = copyInt(p.EliminatedAt)
	return cp
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// PlayerView 广播给客户端的玩家投影（不含速度与无敌窗口）
type PlayerView struct {
	ID          string  `json:"id"`
	ExternalID  string  `json:"externalId"`
	DisplayName string  `json:"displayName"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Radius      float64 `json:"radius"`
	HP          int     `json:"hp"`
	MaxHP       int     `json:"maxHp"`
	Alive       bool    `json:"alive"`
	Ready       bool    `json:"ready"`
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:          p.SessionID,
		ExternalID:  p.ExternalID,
		DisplayName: p.Name,
		X:           p.Pos.X(),
		Y:           p.Pos.Y(),
		Radius:      p.Radius,
		HP:          p.HP,
		MaxHP:       p.MaxHP,
		Alive:       p.Alive,
		Ready:       p.Ready,
	}
}

// PlayerInfo 对外暴露的身份信息
type PlayerInfo struct {
	SessionID  string
	ExternalID string
	Name       string
	HP         int
}

func (p *Player) info() PlayerInfo {
	return PlayerInfo{SessionID: p.SessionID, ExternalID: p.ExternalID, Name: p.Name, HP: p.HP}
}
