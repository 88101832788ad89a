package realtime

import "github.com/google/uuid"

// Conn 抽象一条可投递消息的连接,由传输层适配实现
type Conn interface {
	// Deliver 非阻塞投递,发送缓冲已满或连接已关闭时返回 false
	Deliver(payload []byte) bool
}

// Registry 连接注册表,跟踪活跃连接及其已加入的房间
// 本身不加锁,所有读写必须经由 Hub 持锁进行
type Registry struct {
	conns  map[string]Conn
	joined map[string]map[string]struct{} // connID -> matchID 集合
}

// NewRegistry 创建空的连接注册表
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]Conn),
		joined: make(map[string]map[string]struct{}),
	}
}

// register 分配连接ID并建立空的房间集合,不会失败
func (r *Registry) register(conn Conn) string {
	connID := uuid.NewString()
	r.conns[connID] = conn
	r.joined[connID] = make(map[string]struct{})
	return connID
}

// unregister 删除连接记录,返回其离开前所在的房间列表
// 对未注册的ID调用是无害的空操作
func (r *Registry) unregister(connID string) []string {
	rooms := make([]string, 0, len(r.joined[connID]))
	for matchID := range r.joined[connID] {
		rooms = append(rooms, matchID)
	}
	delete(r.conns, connID)
	delete(r.joined, connID)
	return rooms
}

// markJoined 记录连接加入了某个房间
func (r *Registry) markJoined(connID, matchID string) {
	if set, ok := r.joined[connID]; ok {
		set[matchID] = struct{}{}
	}
}

// markLeft 记录连接离开了某个房间
func (r *Registry) markLeft(connID, matchID string) {
	if set, ok := r.joined[connID]; ok {
		delete(set, matchID)
	}
}

// joinedRooms 返回连接当前所在的房间列表,未知ID返回空列表
func (r *Registry) joinedRooms(connID string) []string {
	rooms := make([]string, 0, len(r.joined[connID]))
	for matchID := range r.joined[connID] {
		rooms = append(rooms, matchID)
	}
	return rooms
}

// known 连接是否仍在注册表中
func (r *Registry) known(connID string) bool {
	_, ok := r.conns[connID]
	return ok
}
