package game

// 世界推进与场地参数（服务端权威，客户端只负责渲染）
const (
	TicksPerSecond = 20

	FieldWidth  = 800.0
	FieldHeight = 600.0

	// RosterSize 一局所需的固定人数
	RosterSize = 3
)

// 玩家移动与碰撞
const (
	PlayerRadius   = 15.0
	PlayerMaxHP    = 3
	PlayerMaxSpeed = 4.0  // 每 Tick 最大位移
	PlayerAccel    = 0.8  // 有输入时每 Tick 加速度
	PlayerFriction = 0.85 // 无输入时每 Tick 速度衰减系数
	StopEpsilon    = 0.05 // 低于该速度分量直接归零
	Knockback      = 8.0  // 玩家互撞时的总推开距离（双方各一半）

	InvincibilityTicks = 40 // 受击后无敌 2 秒
)

// 弹幕：从场地中心按波次发射，间隔与数量随时间递增
const (
	BulletRadius           = 5.0
	BulletBaseSpeed        = 3.0
	BulletSpeedRamp        = 0.002 // 每 Tick 增加的速度
	BulletSpawnInterval    = 20    // 初始每 20 Tick 一波
	BulletSpawnIntervalMin = 4
	BulletIntervalStep     = 40 // 每 40 Tick 间隔缩短 1
	BulletCountBase        = 3
	BulletCountMax         = 8
	BulletCountStep        = 100 // 每 100 Tick 每波多 1 发
	BulletCullMargin       = 50.0
)

// 击退道具
const (
	ItemRadius            = 12.0
	ItemSpawnInterval     = 100 // 每 5 秒尝试生成
	ItemMaxOnField        = 2
	ItemSpawnMargin       = 60.0
	ItemKnockback         = 60.0
	ItemImpulse           = 6.0
	ItemHeldDurationTicks = 60 // 拾取后 3 秒内有效
)

// StartingSlots 三个对称出生点（按加入顺序分配）
var StartingSlots = [RosterSize][2]float64{
	{FieldWidth / 2, 80},
	{120, FieldHeight - 80},
	{FieldWidth - 120, FieldHeight - 80},
}
