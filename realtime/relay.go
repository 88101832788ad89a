package realtime

import (
	"sync"

	"coachsight-service/logger"
)

// Hub 把连接注册表和房间路由组合成一个可注入的中继实例
// 多个 Hub 可以共存(测试时各自独立),不依赖任何包级全局状态
//
// 并发模型:所有成员关系的读写都在 Hub 的读写锁下进行,
// 广播循环内只做非阻塞投递,真正的网络发送发生在各连接
// 自己的写协程里,慢客户端不会拖慢同房间的其他订阅者
type Hub struct {
	mu       sync.RWMutex
	registry *Registry
	router   *Router
}

// NewHub 创建新的中继实例
func NewHub() *Hub {
	return &Hub{
		registry: NewRegistry(),
		router:   NewRouter(),
	}
}

// Register 注册新连接,返回分配的连接ID
func (h *Hub) Register(conn Conn) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.register(conn)
}

// Unregister 注销连接并把它从所有已加入的房间中移除
// 重复注销是空操作
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, matchID := range h.registry.unregister(connID) {
		h.router.leave(matchID, connID)
	}
}

// Join 将连接加入指定比赛的房间,重复加入幂等
// 未注册的连接ID被忽略,保证两张表的互逆关系不被破坏
func (h *Hub) Join(matchID, connID string) {
	if matchID == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.registry.known(connID) {
		return
	}
	h.router.join(matchID, connID)
	h.registry.markJoined(connID, matchID)
}

// Leave 将连接移出指定比赛的房间,房间不存在时是空操作
func (h *Hub) Leave(matchID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.router.leave(matchID, connID)
	h.registry.markLeft(connID, matchID)
}

// MembersOf 返回房间当前成员列表,房间不存在时返回空列表
func (h *Hub) MembersOf(matchID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.router.membersOf(matchID)
}

// JoinedRooms 返回连接当前所在的房间列表,未知ID返回空列表
func (h *Hub) JoinedRooms(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.joinedRooms(connID)
}

// RelayTelemetry 将遥测事件广播给对应比赛房间的全部成员
// 缺少 matchId 的事件直接丢弃,只记日志,不向发送方反馈
// 发起连接不做排除,producer 同时作为展示端时会收到自己的回显
func (h *Hub) RelayTelemetry(event *TelemetryEvent) {
	if event == nil || event.MatchID == "" {
		logger.Println("[Relay] Dropping telemetry event without matchId")
		return
	}

	payload, err := marshalBroadcast(MsgTelemetryBroadcast, event)
	if err != nil {
		logger.Errorf("[Relay] Failed to marshal telemetry event: %v", err)
		return
	}

	h.broadcast(event.MatchID, payload)
}

// RelayInsight 将洞察事件广播给对应比赛房间的全部成员
// 语义与 RelayTelemetry 完全一致
func (h *Hub) RelayInsight(event *InsightEvent) {
	if event == nil || event.MatchID == "" {
		logger.Println("[Relay] Dropping insight event without matchId")
		return
	}

	payload, err := marshalBroadcast(MsgInsightBroadcast, event)
	if err != nil {
		logger.Errorf("[Relay] Failed to marshal insight event: %v", err)
		return
	}

	h.broadcast(event.MatchID, payload)
}

// broadcast 向房间全体成员做尽力投递
// 单个成员投递失败(缓冲满/已关闭)只丢这一份,不中断循环,
// 也不做重试,遥测采样频率足够高,瞬时丢失可以容忍
func (h *Hub) broadcast(matchID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID := range h.router.rooms[matchID] {
		conn, ok := h.registry.conns[connID]
		if !ok {
			continue
		}
		if !conn.Deliver(payload) {
			logger.Printf("[Relay] Dropped delivery to slow connection %s in room %s", connID, matchID)
		}
	}
}

// Stats 返回当前房间数和连接数,供 /api/stats 和定期报告使用
func (h *Hub) Stats() (rooms, conns int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.router.roomCount(), len(h.registry.conns)
}
