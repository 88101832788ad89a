package services

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"coachsight-service/database"
)

// PlayerStore 球员数据访问
type PlayerStore struct {
	db *sql.DB
}

// NewPlayerStore 创建球员存储
func NewPlayerStore(db *sql.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

const playerColumns = `id, team_id, name, position, jersey_number, physical_profile, baseline_metrics, device_id, created_at, updated_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (*database.Player, error) {
	p := &database.Player{}
	err := row.Scan(&p.ID, &p.TeamID, &p.Name, &p.Position, &p.JerseyNumber,
		&p.PhysicalProfile, &p.BaselineMetrics, &p.DeviceID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get 按ID查找球员,不存在时返回 nil
func (s *PlayerStore) Get(playerID int64) (*database.Player, error) {
	row := s.db.QueryRow(`SELECT `+playerColumns+` FROM players WHERE id = $1`, playerID)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query player: %w", err)
	}
	return p, nil
}

// ListByTeam 返回球队的全部球员,按球衣号排序
func (s *PlayerStore) ListByTeam(teamID int64) ([]*database.Player, error) {
	rows, err := s.db.Query(`SELECT `+playerColumns+` FROM players WHERE team_id = $1 ORDER BY jersey_number`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := []*database.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// Create 创建球员
func (s *PlayerStore) Create(teamID int64, name, position string, jerseyNumber int, physicalProfile, baselineMetrics json.RawMessage, deviceID string) (*database.Player, error) {
	if len(physicalProfile) == 0 {
		physicalProfile = json.RawMessage(`{}`)
	}
	if len(baselineMetrics) == 0 {
		baselineMetrics = json.RawMessage(`{}`)
	}

	p := &database.Player{
		TeamID:          teamID,
		Name:            name,
		Position:        position,
		JerseyNumber:    jerseyNumber,
		PhysicalProfile: physicalProfile,
		BaselineMetrics: baselineMetrics,
		DeviceID:        deviceID,
	}
	err := s.db.QueryRow(`
		INSERT INTO players (team_id, name, position, jersey_number, physical_profile, baseline_metrics, device_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, teamID, name, position, jerseyNumber, []byte(physicalProfile), []byte(baselineMetrics), deviceID).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return p, nil
}

// Update 更新球员资料,零值字段保持原样
func (s *PlayerStore) Update(playerID int64, name, position string, jerseyNumber int, physicalProfile, baselineMetrics json.RawMessage, deviceID *string) (*database.Player, error) {
	row := s.db.QueryRow(`
		UPDATE players SET
			name = COALESCE(NULLIF($2, ''), name),
			position = COALESCE(NULLIF($3, ''), position),
			jersey_number = CASE WHEN $4 > 0 THEN $4 ELSE jersey_number END,
			physical_profile = COALESCE($5, physical_profile),
			baseline_metrics = COALESCE($6, baseline_metrics),
			device_id = COALESCE($7, device_id),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING `+playerColumns+`
	`, playerID, name, position, jerseyNumber, nullableJSON(physicalProfile), nullableJSON(baselineMetrics), deviceID)

	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	return p, nil
}

// Delete 删除球员
func (s *PlayerStore) Delete(playerID int64) error {
	_, err := s.db.Exec(`DELETE FROM players WHERE id = $1`, playerID)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return nil
}

// FindByDeviceID 按穿戴设备ID查找球员,供MQTT网关做设备到球员的映射
func (s *PlayerStore) FindByDeviceID(deviceID string) (*database.Player, error) {
	if deviceID == "" {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT `+playerColumns+` FROM players WHERE device_id = $1`, deviceID)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query player by device: %w", err)
	}
	return p, nil
}
