package server

// SessionID 连接会话的唯一标识（加入成功时分配）
type SessionID = string

// Identity 身份验证服务确认后的玩家身份
type Identity struct {
	ExternalID string
	Name       string
}

// Sender 房间向某个连接推送消息的最小接口；实现必须非阻塞
type Sender interface {
	Enqueue(b []byte)
	Close()
}

// member 房间成员：会话 + 网络连接的发送端
type member struct {
	id       SessionID
	identity Identity
	conn     Sender
}
