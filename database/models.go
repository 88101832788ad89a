package database

import (
	"encoding/json"
	"time"
)

// User 教练账号
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Team 球队
type Team struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Logo      string          `json:"logo"`
	Settings  json.RawMessage `json:"settings"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Player 球员
type Player struct {
	ID              int64           `json:"id"`
	TeamID          int64           `json:"teamId"`
	Name            string          `json:"name"`
	Position        string          `json:"position"`
	JerseyNumber    int             `json:"jerseyNumber"`
	PhysicalProfile json.RawMessage `json:"physicalProfile"`
	BaselineMetrics json.RawMessage `json:"baselineMetrics"`
	DeviceID        string          `json:"deviceId"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Match 比赛
type Match struct {
	ID         int64           `json:"id"`
	TeamID     int64           `json:"teamId"`
	Opponent   string          `json:"opponent"`
	Date       time.Time       `json:"date"`
	Location   string          `json:"location"`
	Status     string          `json:"status"` // upcoming / live / completed
	Formation  string          `json:"formation"`
	Lineups    json.RawMessage `json:"lineups"`
	Statistics json.RawMessage `json:"statistics"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// PerformanceSample 球员在比赛中的一次遥测采样
type PerformanceSample struct {
	ID        int64           `json:"id"`
	MatchID   int64           `json:"matchId"`
	PlayerID  int64           `json:"playerId"`
	Timestamp int64           `json:"timestamp"`
	Metrics   json.RawMessage `json:"metrics"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Insight 持久化的洞察记录
type Insight struct {
	ID             int64           `json:"id"`
	MatchID        int64           `json:"matchId"`
	Timestamp      int64           `json:"timestamp"`
	Type           string          `json:"type"`
	Priority       int             `json:"priority"`
	Message        string          `json:"message"`
	RelatedPlayers json.RawMessage `json:"relatedPlayers"`
	Data           json.RawMessage `json:"data"`
	Acknowledged   bool            `json:"acknowledged"`
	CreatedAt      time.Time       `json:"createdAt"`
}
