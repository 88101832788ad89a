package services

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"coachsight-service/database"
)

// TeamStore 球队数据访问
type TeamStore struct {
	db *sql.DB
}

// NewTeamStore 创建球队存储
func NewTeamStore(db *sql.DB) *TeamStore {
	return &TeamStore{db: db}
}

// ListByCoach 返回某个教练名下的全部球队
func (s *TeamStore) ListByCoach(userID int64) ([]*database.Team, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.logo, t.settings, t.created_at, t.updated_at
		FROM teams t
		JOIN team_coaches tc ON tc.team_id = t.id
		WHERE tc.user_id = $1
		ORDER BY t.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := []*database.Team{}
	for rows.Next() {
		team := &database.Team{}
		if err := rows.Scan(&team.ID, &team.Name, &team.Logo, &team.Settings, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// GetForCoach 返回球队,仅当该教练有权限时,否则返回 nil
func (s *TeamStore) GetForCoach(teamID, userID int64) (*database.Team, error) {
	team := &database.Team{}
	err := s.db.QueryRow(`
		SELECT t.id, t.name, t.logo, t.settings, t.created_at, t.updated_at
		FROM teams t
		JOIN team_coaches tc ON tc.team_id = t.id
		WHERE t.id = $1 AND tc.user_id = $2
	`, teamID, userID).Scan(&team.ID, &team.Name, &team.Logo, &team.Settings, &team.CreatedAt, &team.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query team: %w", err)
	}
	return team, nil
}

// IsCoach 该用户是否是球队教练
func (s *TeamStore) IsCoach(teamID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM team_coaches WHERE team_id = $1 AND user_id = $2)
	`, teamID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check coach: %w", err)
	}
	return exists, nil
}

// Create 创建球队并把创建者登记为教练
func (s *TeamStore) Create(userID int64, name, logo string, settings json.RawMessage) (*database.Team, error) {
	if logo == "" {
		logo = "/default-team-logo.png"
	}
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	team := &database.Team{Name: name, Logo: logo, Settings: settings}
	err = tx.QueryRow(`
		INSERT INTO teams (name, logo, settings)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, name, logo, []byte(settings)).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO team_coaches (team_id, user_id) VALUES ($1, $2)`, team.ID, userID); err != nil {
		return nil, fmt.Errorf("failed to enroll coach: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return team, nil
}

// Update 更新球队的名称/logo/设置,零值字段保持原样
func (s *TeamStore) Update(teamID int64, name, logo string, settings json.RawMessage) (*database.Team, error) {
	team := &database.Team{}
	err := s.db.QueryRow(`
		UPDATE teams SET
			name = COALESCE(NULLIF($2, ''), name),
			logo = COALESCE(NULLIF($3, ''), logo),
			settings = COALESCE($4, settings),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING id, name, logo, settings, created_at, updated_at
	`, teamID, name, logo, nullableJSON(settings)).Scan(
		&team.ID, &team.Name, &team.Logo, &team.Settings, &team.CreatedAt, &team.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return team, nil
}

// Delete 删除球队,级联删除球员/比赛由外键负责
func (s *TeamStore) Delete(teamID int64) error {
	_, err := s.db.Exec(`DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

// nullableJSON 空的 RawMessage 转成 SQL NULL,让 COALESCE 保留旧值
func nullableJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
