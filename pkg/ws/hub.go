// Package ws keeps the live-update sessions of this process.
//
// Messages are cache-invalidation hints: clients re-fetch through the scoped
// read path, so the hub applies no visibility filtering.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"OrgCalendar/pkg/metrics"
	"OrgCalendar/pkg/zlog"
)

// Message 推送给客户端的信封
type Message struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Encode 序列化信封
func Encode(changeType string, payload any, at time.Time) ([]byte, error) {
	return json.Marshal(Message{Type: changeType, Timestamp: at.UTC(), Payload: payload})
}

// Hub 按用户维护会话, 一个用户可以有多个会话
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	now     func() time.Time
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		now:     time.Now,
	}
}

func (h *Hub) Register(c *Client) {
	if c == nil || c.userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	c.hub = h
	set[c] = struct{}{}
	metrics.WebsocketSessions.Inc()
}

// Unregister 移除并关闭会话, 重复调用无副作用
func (h *Hub) Unregister(c *Client) {
	if c == nil || c.userID == "" {
		return
	}
	h.mu.Lock()
	removed := false
	if set := h.clients[c.userID]; set != nil {
		if _, ok := set[c]; ok {
			delete(set, c)
			removed = true
		}
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
	if removed {
		metrics.WebsocketSessions.Dec()
	}
	// 发送只在读锁内进行, 移除之后再关闭 channel
	c.Close()
}

// Count 当前会话数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Broadcast 发给除 excludeUser 外的所有会话, 返回成功入队的会话数
func (h *Hub) Broadcast(changeType string, payload any, excludeUser string) int {
	b, err := Encode(changeType, payload, h.now())
	if err != nil {
		zlog.Error("encode broadcast failed", zap.String("type", changeType), zap.Error(err))
		return 0
	}
	return h.BroadcastRaw(b, excludeUser)
}

// BroadcastRaw 发送已经编码好的信封, 集群转发时使用
func (h *Hub) BroadcastRaw(b []byte, excludeUser string) int {
	if len(b) == 0 {
		return 0
	}
	var (
		sent    int
		evicted []*Client
	)
	h.mu.RLock()
	for userID, set := range h.clients {
		if excludeUser != "" && userID == excludeUser {
			continue
		}
		for c := range set {
			if c.offer(b) {
				sent++
			} else {
				evicted = append(evicted, c)
			}
		}
	}
	h.mu.RUnlock()
	h.evict(evicted)
	return sent
}

// Send 只发给指定用户
func (h *Hub) Send(userID string, changeType string, payload any) int {
	b, err := Encode(changeType, payload, h.now())
	if err != nil {
		return 0
	}
	var (
		sent    int
		evicted []*Client
	)
	h.mu.RLock()
	for c := range h.clients[userID] {
		if c.offer(b) {
			sent++
		} else {
			evicted = append(evicted, c)
		}
	}
	h.mu.RUnlock()
	h.evict(evicted)
	return sent
}

func (h *Hub) evict(list []*Client) {
	for _, c := range list {
		zlog.Warn("evict websocket session", zap.String("user", c.userID))
		metrics.BroadcastEvictions.Inc()
		h.Unregister(c)
	}
}

// Close 关闭全部会话
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.Unregister(c)
	}
}
