package game

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Bullet 弹幕，只由波次生成，飞出场地边界外一定距离后移除
type Bullet struct {
	ID     string
	Pos    mgl64.Vec2
	Vel    mgl64.Vec2
	Radius float64
}

type BulletView struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Radius float64 `json:"radius"`
}

func (b *Bullet) view() BulletView {
	return BulletView{ID: b.ID, X: b.Pos.X(), Y: b.Pos.Y(), DX: b.Vel.X(), DY: b.Vel.Y(), Radius: b.Radius}
}

func (b *Bullet) offField() bool {
	x, y := b.Pos.X(), b.Pos.Y()
	return x <= -BulletCullMargin || x >= FieldWidth+BulletCullMargin ||
		y <= -BulletCullMargin || y >= FieldHeight+BulletCullMargin
}

// Hold 道具被持有的状态
type Hold struct {
	HolderID string
	Until    int // 到达该 Tick 后失效
}

// Item 击退道具：Hold 为 nil 时在场上可被拾取
type Item struct {
	ID     string
	Pos    mgl64.Vec2
	Radius float64
	Hold   *Hold
}

type ItemView struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

func (it *Item) view() ItemView {
	return ItemView{ID: it.ID, X: it.Pos.X(), Y: it.Pos.Y(), Radius: it.Radius}
}

// idSeq 房间内单调递增的实体 ID，各房间互不共享
type idSeq struct {
	prefix string
	next   int
}

func (s *idSeq) take() string {
	id := fmt.Sprintf("%s%d", s.prefix, s.next)
	s.next++
	return id
}
