package services

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"coachsight-service/database"
)

// InsightStore 洞察记录访问
type InsightStore struct {
	db *sql.DB
}

// NewInsightStore 创建洞察存储
func NewInsightStore(db *sql.DB) *InsightStore {
	return &InsightStore{db: db}
}

// Save 保存一条洞察
func (s *InsightStore) Save(matchID, timestamp int64, insightType string, priority int, message string, relatedPlayers, data json.RawMessage) (*database.Insight, error) {
	if priority < 1 || priority > 5 {
		priority = 3
	}
	if len(relatedPlayers) == 0 {
		relatedPlayers = json.RawMessage(`[]`)
	}
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}

	insight := &database.Insight{
		MatchID:        matchID,
		Timestamp:      timestamp,
		Type:           insightType,
		Priority:       priority,
		Message:        message,
		RelatedPlayers: relatedPlayers,
		Data:           data,
	}
	err := s.db.QueryRow(`
		INSERT INTO insights (match_id, timestamp, type, priority, message, related_players, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, acknowledged, created_at
	`, matchID, timestamp, insightType, priority, message, []byte(relatedPlayers), []byte(data)).
		Scan(&insight.ID, &insight.Acknowledged, &insight.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save insight: %w", err)
	}
	return insight, nil
}

// ListByMatch 返回比赛的洞察,时间和优先级倒序
func (s *InsightStore) ListByMatch(matchID int64) ([]*database.Insight, error) {
	rows, err := s.db.Query(`
		SELECT id, match_id, timestamp, type, priority, message, related_players, data, acknowledged, created_at
		FROM insights
		WHERE match_id = $1
		ORDER BY timestamp DESC, priority DESC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	insights := []*database.Insight{}
	for rows.Next() {
		insight := &database.Insight{}
		if err := rows.Scan(&insight.ID, &insight.MatchID, &insight.Timestamp, &insight.Type, &insight.Priority,
			&insight.Message, &insight.RelatedPlayers, &insight.Data, &insight.Acknowledged, &insight.CreatedAt); err != nil {
			return nil, err
		}
		insights = append(insights, insight)
	}
	return insights, rows.Err()
}
