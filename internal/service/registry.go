package service

import (
	"sync"
	"time"
)

// Session 记录一个连接对应的玩家会话。
// 分数等游戏内状态由房间协程持有，这里只保存按 ID 反查房间所需的信息
type Session struct {
	PlayerID string
	Name     string
	RoomID   string
	JoinedAt time.Time
}

// Registry 维护玩家 ID 到会话的映射，供连接层在断开时定位房间。
// 多个连接协程并发读写，所有变更在同一把锁下串行执行
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]Session),
	}
}

func (r *Registry) Register(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.PlayerID] = s
}

func (r *Registry) Lookup(playerID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[playerID]
	return s, ok
}

func (r *Registry) Unregister(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, playerID)
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
