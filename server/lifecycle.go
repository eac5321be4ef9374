package server

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"dodgearena/game"
)

func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// stopTimer 取消并清空；重新设置前必须先调用，避免重复触发
func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (r *Room) armWaitTimer() {
	stopTimer(&r.waitTimer)
	r.waitTimer = time.NewTimer(r.cfg.WaitTimeout)
}

// startCountdown 全员准备：取消等待超时，通知倒计时
func (r *Room) startCountdown() {
	stopTimer(&r.waitTimer)
	stopTimer(&r.countdownTimer)
	r.countdownTimer = time.NewTimer(r.cfg.Countdown)
	secs := int((r.cfg.Countdown + time.Second - 1) / time.Second)
	r.broadcast(MsgGameStart, GameStartMessage{CountdownSeconds: secs})
	Log.Infof("room %s: all ready, starting in %s", r.Code, r.cfg.Countdown)
}

// startGame 倒计时结束；若期间状态变化则回到等待
func (r *Room) startGame() {
	if r.engine.Status() != game.StatusWaiting || !r.engine.AllReady() {
		r.armWaitTimer()
		return
	}
	r.engine.StartGame()
	r.startTicker()
	r.broadcastRoomState()
	Log.Infof("room %s: game started", r.Code)
}

// finishGame 停止 Tick，广播结算，异步上报，并安排延迟清理
func (r *Room) finishGame() {
	r.stopTicker()
	r.gameOver = true

	res := r.engine.GameOver()
	r.broadcast(MsgGameOver, res)
	if res.Winner != nil {
		Log.Infof("room %s: game over at tick %d, winner %s", r.Code, r.engine.Tick(), res.Winner.DisplayName)
	} else {
		Log.Infof("room %s: game over at tick %d, draw", r.Code, r.engine.Tick())
	}

	if r.reporter != nil {
		go r.report(res)
	}

	stopTimer(&r.cleanupTimer)
	r.cleanupTimer = time.NewTimer(r.cfg.CleanupDelay)
}

// report 尽力上报；失败只记录，不影响房间
func (r *Room) report(res game.Result) {
	defer sentry.Recover()
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.ReportTimeout)
	defer cancel()
	if err := r.reporter.Report(ctx, res); err != nil {
		Log.Warnf("room %s: report result: %v", r.Code, err)
		sentry.CaptureException(err)
	}
}
