package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// HitEvent 本 Tick 被弹幕击中的玩家
type HitEvent struct {
	Player     PlayerInfo
	Eliminated bool
}

// DoTick 推进一个固定步长：移动 → 互撞 → 发射 → 弹幕移动 → 受击 → 道具 → 胜负判定。
// 非 playing 状态下不做任何事。
func (e *Engine) DoTick() []HitEvent {
	if e.status != StatusPlaying {
		return nil
	}
	e.tick++

	e.movePlayers()
	e.separatePlayers()
	e.spawnWave()
	e.moveBullets()
	hits := e.collideBullets()
	e.updateItems()

	if len(e.alive()) <= 1 {
		e.status = StatusFinished
	}
	return hits
}

func (e *Engine) movePlayers() {
	for _, p := range e.alive() {
		in, ok := e.inputs[p.SessionID]
		if ok && (in[0] != 0 || in[1] != 0) {
			p.Vel = p.Vel.Add(in.Mul(PlayerAccel))
		} else {
			p.Vel = p.Vel.Mul(PlayerFriction)
			if math.Abs(p.Vel[0]) < StopEpsilon {
				p.Vel[0] = 0
			}
			if math.Abs(p.Vel[1]) < StopEpsilon {
				p.Vel[1] = 0
			}
		}
		if speed := p.Vel.Len(); speed > PlayerMaxSpeed {
			p.Vel = p.Vel.Mul(PlayerMaxSpeed / speed)
		}
		p.Pos = p.Pos.Add(p.Vel)
		clampToField(p, true)
	}
	clear(e.inputs)
}

// separatePlayers 两两重叠时沿连线各推开 Knockback/2
func (e *Engine) separatePlayers() {
	alive := e.alive()
	for i := 0; i < len(alive); i++ {
		for j := i + 1; j < len(alive); j++ {
			a, b := alive[i], alive[j]
			d := b.Pos.Sub(a.Pos)
			dist := d.Len()
			if dist == 0 || dist >= a.Radius+b.Radius {
				continue
			}
			n := d.Mul(1 / dist)
			push := n.Mul(Knockback / 2)
			a.Pos = a.Pos.Sub(push)
			b.Pos = b.Pos.Add(push)
			clampToField(a, false)
			clampToField(b, false)
		}
	}
}

// spawnWave 在 tick % interval == 0 时从中心均匀发射一波，带随机角度偏移
func (e *Engine) spawnWave() {
	if e.tick%waveInterval(e.tick) != 0 {
		return
	}
	count := waveSize(e.tick)
	speed := waveSpeed(e.tick)
	center := mgl64.Vec2{FieldWidth / 2, FieldHeight / 2}
	offset := e.rng.Float64() * 2 * math.Pi
	for i := 0; i < count; i++ {
		angle := offset + float64(i)*2*math.Pi/float64(count)
		e.bullets = append(e.bullets, &Bullet{
			ID:     e.bulletIDs.take(),
			Pos:    center,
			Vel:    mgl64.Vec2{math.Cos(angle) * speed, math.Sin(angle) * speed},
			Radius: BulletRadius,
		})
	}
}

func (e *Engine) moveBullets() {
	kept := e.bullets[:0]
	for _, b := range e.bullets {
		b.Pos = b.Pos.Add(b.Vel)
		if !b.offField() {
			kept = append(kept, b)
		}
	}
	clear(e.bullets[len(kept):])
	e.bullets = kept
}

// collideBullets 每名玩家每 Tick 至多受击一次，弹幕不因命中而消失
func (e *Engine) collideBullets() []HitEvent {
	var hits []HitEvent
	for _, p := range e.alive() {
		if p.invincibleAt(e.tick) {
			continue
		}
		for _, b := range e.bullets {
			if !overlaps(p.Pos, p.Radius, b.Pos, b.Radius) {
				continue
			}
			p.HP = max(0, p.HP-1)
			until := e.tick + InvincibilityTicks
			p.InvincibleUntil = &until
			if p.HP == 0 {
				e.eliminate(p)
			}
			hits = append(hits, HitEvent{Player: p.info(), Eliminated: !p.Alive})
			break
		}
	}
	return hits
}
