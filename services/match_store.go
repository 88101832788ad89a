package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"coachsight-service/database"
)

// MatchStore 比赛数据访问
type MatchStore struct {
	db *sql.DB
}

// NewMatchStore 创建比赛存储
func NewMatchStore(db *sql.DB) *MatchStore {
	return &MatchStore{db: db}
}

const matchColumns = `id, team_id, opponent, date, location, status, formation, lineups, statistics, created_at, updated_at`

func scanMatch(row interface{ Scan(...interface{}) error }) (*database.Match, error) {
	m := &database.Match{}
	err := row.Scan(&m.ID, &m.TeamID, &m.Opponent, &m.Date, &m.Location, &m.Status,
		&m.Formation, &m.Lineups, &m.Statistics, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Get 按ID查找比赛,不存在时返回 nil
func (s *MatchStore) Get(matchID int64) (*database.Match, error) {
	row := s.db.QueryRow(`SELECT `+matchColumns+` FROM matches WHERE id = $1`, matchID)
	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return m, nil
}

// ListByTeam 返回球队的全部比赛,按日期倒序
func (s *MatchStore) ListByTeam(teamID int64) ([]*database.Match, error) {
	rows, err := s.db.Query(`SELECT `+matchColumns+` FROM matches WHERE team_id = $1 ORDER BY date DESC`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []*database.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Create 创建比赛
func (s *MatchStore) Create(teamID int64, opponent string, date time.Time, location, formation string, lineups json.RawMessage) (*database.Match, error) {
	if formation == "" {
		formation = "4-4-2"
	}
	if len(lineups) == 0 {
		lineups = json.RawMessage(`{"starters":[],"substitutes":[]}`)
	}

	m := &database.Match{
		TeamID:     teamID,
		Opponent:   opponent,
		Date:       date,
		Location:   location,
		Status:     "upcoming",
		Formation:  formation,
		Lineups:    lineups,
		Statistics: json.RawMessage(`{}`),
	}
	err := s.db.QueryRow(`
		INSERT INTO matches (team_id, opponent, date, location, formation, lineups)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, status, statistics, created_at, updated_at
	`, teamID, opponent, date, location, formation, []byte(lineups)).
		Scan(&m.ID, &m.Status, &m.Statistics, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return m, nil
}

// Update 更新比赛信息,零值字段保持原样
func (s *MatchStore) Update(matchID int64, opponent, location, formation, status string, date *time.Time, lineups json.RawMessage) (*database.Match, error) {
	row := s.db.QueryRow(`
		UPDATE matches SET
			opponent = COALESCE(NULLIF($2, ''), opponent),
			location = COALESCE(NULLIF($3, ''), location),
			formation = COALESCE(NULLIF($4, ''), formation),
			status = COALESCE(NULLIF($5, ''), status),
			date = COALESCE($6, date),
			lineups = COALESCE($7, lineups),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING `+matchColumns+`
	`, matchID, opponent, location, formation, status, date, nullableJSON(lineups))

	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update match: %w", err)
	}
	return m, nil
}

// SetStatus 更新比赛状态 (upcoming -> live -> completed)
func (s *MatchStore) SetStatus(matchID int64, status string) (*database.Match, error) {
	row := s.db.QueryRow(`
		UPDATE matches SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING `+matchColumns+`
	`, matchID, status)

	m, err := scanMatch(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set match status: %w", err)
	}
	return m, nil
}

// Delete 删除比赛,表现数据和洞察由外键级联删除
func (s *MatchStore) Delete(matchID int64) error {
	_, err := s.db.Exec(`DELETE FROM matches WHERE id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return nil
}

// CountByStatus 按状态统计比赛数量,供监控和 /api/stats 使用
func (s *MatchStore) CountByStatus(status string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM matches WHERE status = $1`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}
