package services

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"coachsight-service/database"
)

// PerformanceStore 表现数据(遥测采样)访问
type PerformanceStore struct {
	db *sql.DB
}

// NewPerformanceStore 创建表现数据存储
func NewPerformanceStore(db *sql.DB) *PerformanceStore {
	return &PerformanceStore{db: db}
}

// Save 保存一次采样
func (s *PerformanceStore) Save(matchID, playerID, timestamp int64, metrics json.RawMessage) (*database.PerformanceSample, error) {
	sample := &database.PerformanceSample{
		MatchID:   matchID,
		PlayerID:  playerID,
		Timestamp: timestamp,
		Metrics:   metrics,
	}
	err := s.db.QueryRow(`
		INSERT INTO performance_data (match_id, player_id, timestamp, metrics)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, matchID, playerID, timestamp, []byte(metrics)).Scan(&sample.ID, &sample.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save performance sample: %w", err)
	}
	return sample, nil
}

// ListByMatch 返回比赛的全部采样,可按球员过滤 (playerID=0 表示不过滤)
func (s *PerformanceStore) ListByMatch(matchID, playerID int64) ([]*database.PerformanceSample, error) {
	rows, err := s.db.Query(`
		SELECT id, match_id, player_id, timestamp, metrics, created_at
		FROM performance_data
		WHERE match_id = $1 AND ($2 = 0 OR player_id = $2)
		ORDER BY timestamp
	`, matchID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query performance data: %w", err)
	}
	defer rows.Close()

	samples := []*database.PerformanceSample{}
	for rows.Next() {
		sample := &database.PerformanceSample{}
		if err := rows.Scan(&sample.ID, &sample.MatchID, &sample.PlayerID, &sample.Timestamp, &sample.Metrics, &sample.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}
