package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount         int64 // 统计的 Tick 次数
	InputsAccepted    int64 // 被接受的输入数
	InputsIgnored     int64 // 非 playing 状态或非成员的输入
	ChanFullDiscarded int64 // 因通道满被丢弃的输入数
	Hits              int64 // 受击次数
	Eliminations      int64 // 出局人数（含对局中断线）
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *RoomMetrics) IncAccepted()          { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncIgnored()           { atomic.AddInt64(&m.InputsIgnored, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) AddHits(n int)         { atomic.AddInt64(&m.Hits, int64(n)) }
func (m *RoomMetrics) IncEliminations()      { atomic.AddInt64(&m.Eliminations, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"inputs_accepted":     atomic.LoadInt64(&m.InputsAccepted),
		"inputs_ignored":      atomic.LoadInt64(&m.InputsIgnored),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"hits":                atomic.LoadInt64(&m.Hits),
		"eliminations":        atomic.LoadInt64(&m.Eliminations),
		"avg_tick_ms":         avgMs,
	}
}

// ManagerMetrics 进程级房间统计
type ManagerMetrics struct {
	RoomsCreated   int64
	RoomsDestroyed int64
	JoinsRejected  int64
}

func (m *ManagerMetrics) IncCreated()   { atomic.AddInt64(&m.RoomsCreated, 1) }
func (m *ManagerMetrics) IncDestroyed() { atomic.AddInt64(&m.RoomsDestroyed, 1) }
func (m *ManagerMetrics) IncRejected()  { atomic.AddInt64(&m.JoinsRejected, 1) }

func (m *ManagerMetrics) Snapshot() map[string]any {
	return map[string]any{
		"rooms_created":   atomic.LoadInt64(&m.RoomsCreated),
		"rooms_destroyed": atomic.LoadInt64(&m.RoomsDestroyed),
		"joins_rejected":  atomic.LoadInt64(&m.JoinsRejected),
	}
}
