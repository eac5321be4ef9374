package server

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"dodgearena/game"
)

// RoomManager 管理多个房间的生命周期：首次加入时创建，销毁时移除
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	cfg      RoomConfig
	reporter Reporter
	opts     []game.Option
	metrics  ManagerMetrics
}

// NewRoomManager 创建管理器；opts 透传给每个房间的引擎
func NewRoomManager(cfg RoomConfig, reporter Reporter, opts ...game.Option) *RoomManager {
	return &RoomManager{
		rooms:    make(map[string]*Room),
		cfg:      cfg,
		reporter: reporter,
		opts:     opts,
	}
}

// GetOrCreateRoom 获取或创建房间，新房间立即开始等待计时
func (m *RoomManager) GetOrCreateRoom(code string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		r = NewRoom(code, m.cfg, m.reporter, m.removeRoom, m.opts...)
		m.rooms[code] = r
		m.metrics.IncCreated()
		r.Start()
		Log.Infof("room %s created", code)
	}
	return r
}

// Get 查找已存在的房间
func (m *RoomManager) Get(code string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

// Join 加入（必要时创建）房间；若命中正在关闭的房间则换新房间重试一次
func (m *RoomManager) Join(ctx context.Context, code string, conn Sender, identity Identity) (*Room, SessionID, error) {
	for attempt := 0; attempt < 2; attempt++ {
		r := m.GetOrCreateRoom(code)
		id, err := r.Join(ctx, conn, identity)
		if errors.Is(err, ErrRoomClosed) {
			continue
		}
		if err != nil {
			m.metrics.IncRejected()
			return nil, "", err
		}
		return r, id, nil
	}
	m.metrics.IncRejected()
	return nil, "", ErrRoomClosed
}

// removeRoom 只删除仍指向该房间的条目（同名新房间可能已创建）
func (m *RoomManager) removeRoom(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.rooms[r.Code]; ok && cur == r {
		delete(m.rooms, r.Code)
		m.metrics.IncDestroyed()
		Log.Infof("room %s removed", r.Code)
	}
}

func (m *RoomManager) snapshot() []*Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	return out
}

// Dissolve 主动解散房间；房间不存在时返回 false
func (m *RoomManager) Dissolve(ctx context.Context, code, reason string) (bool, error) {
	r, ok := m.Get(code)
	if !ok {
		return false, nil
	}
	if err := r.Dissolve(ctx, reason); err != nil && !errors.Is(err, ErrRoomClosed) {
		return true, err
	}
	return true, nil
}

// List 返回全部房间概要，按房间号排序
func (m *RoomManager) List(ctx context.Context) []RoomInfo {
	rooms := m.snapshot()
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Info(ctx)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len 当前房间数
func (m *RoomManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Metrics 管理器与各房间的运行指标
func (m *RoomManager) Metrics() map[string]any {
	rooms := m.snapshot()
	perRoom := make(map[string]any, len(rooms))
	for _, r := range rooms {
		perRoom[r.Code] = r.Metrics().Snapshot()
	}
	out := m.metrics.Snapshot()
	out["rooms_active"] = len(rooms)
	out["rooms"] = perRoom
	return out
}

// Shutdown 解散全部房间，合并错误
func (m *RoomManager) Shutdown(ctx context.Context) error {
	var err error
	for _, r := range m.snapshot() {
		if e := r.Dissolve(ctx, "Server is shutting down."); e != nil && !errors.Is(e, ErrRoomClosed) {
			err = multierr.Append(err, e)
		}
	}
	return err
}
