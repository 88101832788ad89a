package realtime

import "encoding/json"

// 消息类型常量,与前端约定保持一致
const (
	MsgJoinRoom           = "join-room"
	MsgTelemetry          = "telemetry"
	MsgInsight            = "insight"
	MsgTelemetryBroadcast = "telemetry-broadcast"
	MsgInsightBroadcast   = "insight-broadcast"
	MsgConnected          = "connected"
)

// 洞察类型
const (
	InsightTactical     = "tactical"
	InsightPhysical     = "physical"
	InsightSubstitution = "substitution"
)

// Message WebSocket 消息信封,双向通用
type Message struct {
	Type    string          `json:"type"`
	MatchID string          `json:"matchId,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Position 球员在场上的坐标
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Metrics 单次采样的体能/位置指标
type Metrics struct {
	Position     Position `json:"position"`
	Speed        float64  `json:"speed"`
	HeartRate    float64  `json:"heartRate"`
	Distance     float64  `json:"distance"`
	Acceleration float64  `json:"acceleration"`
	WorkRate     float64  `json:"workRate"`
}

// TelemetryEvent 单个球员的一次遥测采样
type TelemetryEvent struct {
	MatchID   string  `json:"matchId"`
	PlayerID  string  `json:"playerId"`
	Timestamp int64   `json:"timestamp"`
	Metrics   Metrics `json:"metrics"`
}

// InsightEvent 面向教练的洞察事件
type InsightEvent struct {
	MatchID        string                 `json:"matchId"`
	Timestamp      int64                  `json:"timestamp"`
	Type           string                 `json:"type"`
	Priority       int                    `json:"priority"`
	Message        string                 `json:"message"`
	RelatedPlayers []string               `json:"relatedPlayers,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

// marshalBroadcast 先序列化事件本体,再包进信封
func marshalBroadcast(msgType string, event interface{}) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Data: data})
}
