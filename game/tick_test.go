package game

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestWaveSchedule(t *testing.T) {
	cases := []struct {
		tick, interval, size int
	}{
		{0, 20, 3},
		{39, 20, 3},
		{40, 19, 3},
		{100, 18, 4},
		{640, 4, 8},
		{5000, 4, 8},
	}
	for _, c := range cases {
		if got := waveInterval(c.tick); got != c.interval {
			t.Fatalf("waveInterval(%d) = %d, want %d", c.tick, got, c.interval)
		}
		if got := waveSize(c.tick); got != c.size {
			t.Fatalf("waveSize(%d) = %d, want %d", c.tick, got, c.size)
		}
	}
	if !near(waveSpeed(500), 4) {
		t.Fatalf("waveSpeed(500) = %f, want 4", waveSpeed(500))
	}
}

func TestWaveSpawnsEvenlyFromCenter(t *testing.T) {
	e := newStartedEngine(t)
	e.tick = 160
	e.spawnWave()
	if len(e.bullets) != waveSize(160) {
		t.Fatalf("spawned %d bullets, want %d", len(e.bullets), waveSize(160))
	}
	seen := map[string]bool{}
	for _, b := range e.bullets {
		if b.Pos != (mgl64.Vec2{FieldWidth / 2, FieldHeight / 2}) {
			t.Fatalf("bullet %s spawned at %v, want centre", b.ID, b.Pos)
		}
		if !near(b.Vel.Len(), waveSpeed(160)) {
			t.Fatalf("bullet speed = %f, want %f", b.Vel.Len(), waveSpeed(160))
		}
		if seen[b.ID] {
			t.Fatalf("duplicate bullet id %s", b.ID)
		}
		seen[b.ID] = true
	}
	sum := mgl64.Vec2{}
	for _, b := range e.bullets {
		sum = sum.Add(b.Vel)
	}
	if sum.Len() > 1e-9 {
		t.Fatalf("velocities not evenly spaced, sum = %v", sum)
	}
}

func TestMovementAccelFrictionAndCap(t *testing.T) {
	e := newStartedEngine(t)
	a := mustPlayer(t, e, "a")
	a.Pos = mgl64.Vec2{400, 300}

	e.QueueInput("a", 1, 0)
	e.movePlayers()
	if !near(a.Vel.X(), PlayerAccel) || !near(a.Pos.X(), 400+PlayerAccel) {
		t.Fatalf("after one accel tick vel=%v pos=%v", a.Vel, a.Pos)
	}
	if len(e.inputs) != 0 {
		t.Fatalf("inputs not cleared after movement")
	}

	e.movePlayers()
	if !near(a.Vel.X(), PlayerAccel*PlayerFriction) {
		t.Fatalf("friction vel = %f, want %f", a.Vel.X(), PlayerAccel*PlayerFriction)
	}

	for i := 0; i < 20; i++ {
		e.QueueInput("a", -1, 0)
		e.movePlayers()
	}
	if a.Vel.Len() > PlayerMaxSpeed+1e-9 {
		t.Fatalf("speed %f exceeds cap", a.Vel.Len())
	}

	for i := 0; i < 50; i++ {
		e.movePlayers()
	}
	if a.Vel != (mgl64.Vec2{}) {
		t.Fatalf("velocity did not settle to zero: %v", a.Vel)
	}
}

func TestMovementClampsAndZeroesVelocityOnWall(t *testing.T) {
	e := newStartedEngine(t)
	a := mustPlayer(t, e, "a")
	a.Pos = mgl64.Vec2{PlayerRadius + 1, 300}
	a.Vel = mgl64.Vec2{-PlayerMaxSpeed, 1}
	e.QueueInput("a", -1, 0)
	e.movePlayers()
	if a.Pos.X() != PlayerRadius {
		t.Fatalf("x = %f, want clamped to %f", a.Pos.X(), PlayerRadius)
	}
	if a.Vel.X() != 0 || a.Vel.Y() == 0 {
		t.Fatalf("vel = %v, want only x zeroed", a.Vel)
	}
}

func TestSeparationPushesApart(t *testing.T) {
	e := newStartedEngine(t)
	a, b := mustPlayer(t, e, "a"), mustPlayer(t, e, "b")
	a.Pos = mgl64.Vec2{300, 300}
	b.Pos = mgl64.Vec2{310, 300}
	e.separatePlayers()
	if !near(a.Pos.X(), 300-Knockback/2) || !near(b.Pos.X(), 310+Knockback/2) {
		t.Fatalf("after separation a=%v b=%v", a.Pos, b.Pos)
	}
}

func TestPositionsStayInBounds(t *testing.T) {
	e := newStartedEngine(t)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000 && e.Status() == StatusPlaying; i++ {
		for _, id := range []string{"a", "b", "c"} {
			e.QueueInput(id, rng.Float64()*4-2, rng.Float64()*4-2)
		}
		e.DoTick()
		for _, p := range e.roster() {
			if p.Pos.X() < p.Radius || p.Pos.X() > FieldWidth-p.Radius ||
				p.Pos.Y() < p.Radius || p.Pos.Y() > FieldHeight-p.Radius {
				t.Fatalf("tick %d: player %s out of bounds at %v", e.Tick(), p.SessionID, p.Pos)
			}
			if p.HP < 0 || p.HP > p.MaxHP {
				t.Fatalf("tick %d: hp %d out of range", e.Tick(), p.HP)
			}
		}
		order := e.EliminationOrder()
		if len(order) > RosterSize {
			t.Fatalf("elimination order too long: %v", order)
		}
		seen := map[string]bool{}
		for _, id := range order {
			if seen[id] {
				t.Fatalf("duplicate %s in elimination order", id)
			}
			seen[id] = true
		}
	}
}

func TestBulletsCulledOffField(t *testing.T) {
	e := newStartedEngine(t)
	e.bullets = []*Bullet{
		{ID: "x", Pos: mgl64.Vec2{FieldWidth + BulletCullMargin - 1, 300}, Vel: mgl64.Vec2{3, 0}, Radius: BulletRadius},
		{ID: "y", Pos: mgl64.Vec2{400, 300}, Vel: mgl64.Vec2{3, 0}, Radius: BulletRadius},
	}
	e.moveBullets()
	if len(e.bullets) != 1 || e.bullets[0].ID != "y" {
		t.Fatalf("bullets after cull = %d", len(e.bullets))
	}
}

// parkedBullet 静止在 pos 的弹幕
func parkedBullet(id string, pos mgl64.Vec2) *Bullet {
	return &Bullet{ID: id, Pos: pos, Radius: BulletRadius}
}

func TestInvincibilityWindowBlocksDamage(t *testing.T) {
	e := newStartedEngine(t)
	a := mustPlayer(t, e, "a")
	a.Pos = mgl64.Vec2{100, 300}
	e.bullets = []*Bullet{parkedBullet("stuck", a.Pos)}

	hits := e.DoTick()
	if len(hits) != 1 || a.HP != PlayerMaxHP-1 {
		t.Fatalf("first tick hits=%d hp=%d", len(hits), a.HP)
	}
	for e.Tick() < 1+InvincibilityTicks {
		if hits := e.DoTick(); len(hits) != 0 {
			t.Fatalf("tick %d: hit during invincibility", e.Tick())
		}
		if a.HP != PlayerMaxHP-1 {
			t.Fatalf("tick %d: hp dropped to %d while invincible", e.Tick(), a.HP)
		}
	}
	e.DoTick()
	if a.HP != PlayerMaxHP-2 {
		t.Fatalf("hp = %d after window, want %d", a.HP, PlayerMaxHP-2)
	}
}

func TestOneHitPerTickAndBulletSurvives(t *testing.T) {
	e := newStartedEngine(t)
	a := mustPlayer(t, e, "a")
	a.Pos = mgl64.Vec2{100, 300}
	e.bullets = []*Bullet{parkedBullet("p", a.Pos), parkedBullet("q", a.Pos)}
	e.DoTick()
	if a.HP != PlayerMaxHP-1 {
		t.Fatalf("hp = %d, want a single hit", a.HP)
	}
	if len(e.bullets) != 2 {
		t.Fatalf("bullet removed on hit")
	}
}

func TestLastHitFinishesGame(t *testing.T) {
	e := newStartedEngine(t)
	e.RemovePlayer("c")
	a := mustPlayer(t, e, "a")
	a.Pos = mgl64.Vec2{100, 300}
	a.HP = 1
	e.bullets = []*Bullet{parkedBullet("kill", a.Pos)}

	hits := e.DoTick()
	if len(hits) != 1 || !hits[0].Eliminated || hits[0].Player.HP != 0 {
		t.Fatalf("hits = %+v, want elimination of a", hits)
	}
	if e.Status() != StatusFinished {
		t.Fatalf("status = %s, want finished on the same tick", e.Status())
	}
	count := 0
	for _, id := range e.EliminationOrder() {
		if id == "a" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("a appears %d times in elimination order", count)
	}
	w, ok := e.Winner()
	if !ok || w.SessionID != "b" {
		t.Fatalf("winner = %+v, want b", w)
	}
	if res := e.GameOver(); len(res.Placements) != RosterSize {
		t.Fatalf("placements = %d, want %d", len(res.Placements), RosterSize)
	}
}

func TestSimultaneousEliminationIsDraw(t *testing.T) {
	e := newStartedEngine(t)
	e.RemovePlayer("c")
	a, b := mustPlayer(t, e, "a"), mustPlayer(t, e, "b")
	a.Pos, b.Pos = mgl64.Vec2{100, 300}, mgl64.Vec2{700, 300}
	a.HP, b.HP = 1, 1
	e.bullets = []*Bullet{parkedBullet("l", a.Pos), parkedBullet("r", b.Pos)}

	e.DoTick()
	if e.Status() != StatusFinished {
		t.Fatalf("status = %s, want finished", e.Status())
	}
	if w, ok := e.Winner(); ok {
		t.Fatalf("winner = %+v, want none", w)
	}
	res := e.GameOver()
	if res.Winner != nil {
		t.Fatalf("result winner = %+v, want nil", res.Winner)
	}
	if len(res.Placements) != RosterSize || res.Placements[RosterSize-1].ExternalID != "ext-c" {
		t.Fatalf("placements = %+v, want c last", res.Placements)
	}
}

func TestTickAfterFinishIsNoop(t *testing.T) {
	e := newStartedEngine(t)
	e.RemovePlayer("a")
	e.RemovePlayer("b")
	tick := e.Tick()
	e.DoTick()
	if e.Tick() != tick {
		t.Fatalf("tick advanced after finish")
	}
}
