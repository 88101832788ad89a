package realtime

// Router 房间路由表,维护 matchID 到订阅连接集合的映射
// 房间在首个成员加入时隐式创建,最后一个成员离开时删除条目,
// 避免随着比赛结束无限增长
// 与 Registry 一样不加锁,由 Hub 统一持锁访问
type Router struct {
	rooms map[string]map[string]struct{} // matchID -> connID 集合
}

// NewRouter 创建空的房间路由表
func NewRouter() *Router {
	return &Router{
		rooms: make(map[string]map[string]struct{}),
	}
}

// join 将连接加入房间,重复加入等同于加入一次
func (r *Router) join(matchID, connID string) {
	room, ok := r.rooms[matchID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[matchID] = room
	}
	room[connID] = struct{}{}
}

// leave 将连接移出房间,成员集合为空时删除房间条目
// 房间不存在时是空操作,不报错
func (r *Router) leave(matchID, connID string) {
	room, ok := r.rooms[matchID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(r.rooms, matchID)
	}
}

// membersOf 返回房间当前成员,房间不存在时返回空列表
func (r *Router) membersOf(matchID string) []string {
	members := make([]string, 0, len(r.rooms[matchID]))
	for connID := range r.rooms[matchID] {
		members = append(members, connID)
	}
	return members
}

// roomCount 当前存在的房间数
func (r *Router) roomCount() int {
	return len(r.rooms)
}
