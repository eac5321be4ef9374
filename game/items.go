package game

import "github.com/go-gl/mathgl/mgl64"

// updateItems 道具子系统：过期 → 生成 → 拾取 → 使用
func (e *Engine) updateItems() {
	e.expireItems()
	e.spawnItem()
	e.pickupItems()
	e.useItems()
}

// expireItems 持有超时或持有者已出局的道具直接删除，不回到场上
func (e *Engine) expireItems() {
	e.removeItems(func(it *Item) bool {
		if it.Hold == nil {
			return false
		}
		if e.tick >= it.Hold.Until {
			return true
		}
		holder, ok := e.players.Get(it.Hold.HolderID)
		return !ok || !holder.Alive
	})
}

func (e *Engine) fieldItemCount() int {
	n := 0
	for _, it := range e.items {
		if it.Hold == nil {
			n++
		}
	}
	return n
}

func (e *Engine) spawnItem() {
	if e.tick == 0 || e.tick%ItemSpawnInterval != 0 || e.fieldItemCount() >= ItemMaxOnField {
		return
	}
	e.items = append(e.items, &Item{
		ID: e.itemIDs.take(),
		Pos: mgl64.Vec2{
			ItemSpawnMargin + e.rng.Float64()*(FieldWidth-2*ItemSpawnMargin),
			ItemSpawnMargin + e.rng.Float64()*(FieldHeight-2*ItemSpawnMargin),
		},
		Radius: ItemRadius,
	})
}

// pickupItems 按加入顺序，第一个接触场上道具的存活玩家成为持有者
func (e *Engine) pickupItems() {
	alive := e.alive()
	for _, it := range e.items {
		if it.Hold != nil {
			continue
		}
		for _, p := range alive {
			if overlaps(p.Pos, p.Radius, it.Pos, it.Radius) {
				it.Hold = &Hold{HolderID: p.SessionID, Until: e.tick + ItemHeldDurationTicks}
				break
			}
		}
	}
}

// useItems 道具跟随持有者；持有者碰到其他存活玩家时击退对方并消耗道具
func (e *Engine) useItems() {
	alive := e.alive()
	e.removeItems(func(it *Item) bool {
		if it.Hold == nil {
			return false
		}
		holder, ok := e.players.Get(it.Hold.HolderID)
		if !ok || !holder.Alive {
			return false
		}
		it.Pos = holder.Pos
		for _, other := range alive {
			if other == holder || !overlaps(holder.Pos, holder.Radius, other.Pos, other.Radius) {
				continue
			}
			n := normalOrDefault(holder.Pos, other.Pos)
			other.Pos = other.Pos.Add(n.Mul(ItemKnockback))
			clampToField(other, false)
			other.Vel = n.Mul(ItemImpulse)
			return true
		}
		return false
	})
}

func (e *Engine) removeItems(drop func(*Item) bool) {
	kept := e.items[:0]
	for _, it := range e.items {
		if !drop(it) {
			kept = append(kept, it)
		}
	}
	clear(e.items[len(kept):])
	e.items = kept
}
