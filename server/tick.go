package server

import (
	"time"

	"dodgearena/game"
)

// startTicker 开局后启动固定频率的 Tick（仅 playing 期间存在）
func (r *Room) startTicker() {
	if r.ticker != nil {
		return
	}
	r.ticker = time.NewTicker(r.cfg.TickInterval)
}

func (r *Room) stopTicker() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
}

// onTick 核心循环：推进世界 → 广播结果 → 结束检测
func (r *Room) onTick() {
	start := time.Now()
	hits := r.engine.DoTick()
	r.broadcast(MsgGameState, r.engine.State())

	remaining := len(r.engine.AlivePlayers())
	for _, h := range hits {
		r.broadcast(MsgPlayerHit, PlayerHitMessage{
			ExternalID:     h.Player.ExternalID,
			DisplayName:    h.Player.Name,
			AliveRemaining: remaining,
			HPRemaining:    h.Player.HP,
		})
		if h.Eliminated {
			r.metrics.IncEliminations()
			Log.Infof("room %s: %s eliminated at tick %d", r.Code, h.Player.Name, r.engine.Tick())
		}
	}
	r.metrics.AddHits(len(hits))

	// 结束的同一次迭代内停止 Ticker，不会再多推进一帧
	if r.engine.Status() == game.StatusFinished {
		r.finishGame()
	}
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

func tickerC(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}
