package game

import "sort"

// Snapshot 一帧的只读快照（深拷贝，不与引擎共享内存）
type Snapshot struct {
	Players      []PlayerView `json:"players"`
	Bullets      []BulletView `json:"bullets"`
	Items        []ItemView   `json:"items"`
	ElapsedTicks int          `json:"elapsedTicks"`
}

// State 返回全部玩家、弹幕、场上（未被持有）道具与当前 Tick
func (e *Engine) State() Snapshot {
	s := Snapshot{
		Players:      e.PlayerViews(),
		Bullets:      make([]BulletView, 0, len(e.bullets)),
		Items:        make([]ItemView, 0, len(e.items)),
		ElapsedTicks: e.tick,
	}
	for _, b := range e.bullets {
		s.Bullets = append(s.Bullets, b.view())
	}
	for _, it := range e.items {
		if it.Hold == nil {
			s.Items = append(s.Items, it.view())
		}
	}
	return s
}

// PlayerViews 按加入顺序返回玩家公开信息
func (e *Engine) PlayerViews() []PlayerView {
	roster := e.roster()
	out := make([]PlayerView, len(roster))
	for i, p := range roster {
		out[i] = p.view()
	}
	return out
}

// Identity 对局结果中的玩家身份
type Identity struct {
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
}

type Placement struct {
	ExternalID   string `json:"externalId"`
	DisplayName  string `json:"displayName"`
	Place        int    `json:"place"`
	EliminatedAt *int   `json:"eliminatedAt"`
}

// Result 对局结算；Winner 为 nil 表示平局（最后两人同 Tick 出局）
type Result struct {
	Winner     *Identity   `json:"winner"`
	Placements []Placement `json:"placements"`
}

// GameOver 生成结算：存活者在前，其余按出局 Tick 从晚到早排名
func (e *Engine) GameOver() Result {
	var res Result
	if w, ok := e.Winner(); ok {
		res.Winner = &Identity{ExternalID: w.ExternalID, DisplayName: w.Name}
	}

	order := make(map[string]int, len(e.eliminationOrder))
	for i, id := range e.eliminationOrder {
		order[id] = i
	}
	roster := e.roster()
	sort.SliceStable(roster, func(i, j int) bool {
		a, b := roster[i], roster[j]
		switch {
		case a.EliminatedAt == nil:
			return b.EliminatedAt != nil
		case b.EliminatedAt == nil:
			return false
		case *a.EliminatedAt != *b.EliminatedAt:
			return *a.EliminatedAt > *b.EliminatedAt
		default:
			return order[a.SessionID] > order[b.SessionID]
		}
	})

	res.Placements = make([]Placement, len(roster))
	for i, p := range roster {
		res.Placements[i] = Placement{
			ExternalID:   p.ExternalID,
			DisplayName:  p.Name,
			Place:        i + 1,
			EliminatedAt: copyInt(p.EliminatedAt),
		}
	}
	return res
}
