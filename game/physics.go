package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func overlaps(a mgl64.Vec2, ra float64, b mgl64.Vec2, rb float64) bool {
	return a.Sub(b).Len() < ra+rb
}

// clampToField 将位置裁剪到 [radius, bound-radius]；zeroVel 时撞墙轴的速度清零
func clampToField(p *Player, zeroVel bool) {
	lo := p.Radius
	maxX, maxY := FieldWidth-p.Radius, FieldHeight-p.Radius
	if p.Pos[0] < lo || p.Pos[0] > maxX {
		p.Pos[0] = clamp(p.Pos[0], lo, maxX)
		if zeroVel {
			p.Vel[0] = 0
		}
	}
	if p.Pos[1] < lo || p.Pos[1] > maxY {
		p.Pos[1] = clamp(p.Pos[1], lo, maxY)
		if zeroVel {
			p.Vel[1] = 0
		}
	}
}

// clampUnit 输入向量模长超过 1 时按比例缩放
func clampUnit(v mgl64.Vec2) mgl64.Vec2 {
	if l := v.Len(); l > 1 {
		return v.Mul(1 / l)
	}
	return v
}

// normalOrDefault 从 from 指向 to 的单位向量；两点重合时取 +X
func normalOrDefault(from, to mgl64.Vec2) mgl64.Vec2 {
	d := to.Sub(from)
	l := d.Len()
	if l == 0 {
		return mgl64.Vec2{1, 0}
	}
	return d.Mul(1 / l)
}

// waveInterval 当前 Tick 的发射间隔（每 40 Tick 缩短 1，下限 4）
func waveInterval(tick int) int {
	return max(BulletSpawnIntervalMin, BulletSpawnInterval-tick/BulletIntervalStep)
}

// waveSize 当前 Tick 每波的弹幕数量
func waveSize(tick int) int {
	return min(BulletCountMax, BulletCountBase+tick/BulletCountStep)
}

func waveSpeed(tick int) float64 {
	return BulletBaseSpeed + float64(tick)*BulletSpeedRamp
}
