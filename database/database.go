package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Connect 连接到数据库
func Connect(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

// Migrate 运行数据库迁移
func Migrate(db *sql.DB) error {
	migrations := []string{
		// 用户表(教练)
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

		// 球队表
		`CREATE TABLE IF NOT EXISTS teams (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			logo VARCHAR(255) DEFAULT '/default-team-logo.png',
			settings JSONB DEFAULT '{}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// 球队教练关系表
		`CREATE TABLE IF NOT EXISTS team_coaches (
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			PRIMARY KEY (team_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_team_coaches_user_id ON team_coaches(user_id)`,

		// 球员表
		`CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			position VARCHAR(20) NOT NULL,
			jersey_number INTEGER NOT NULL,
			physical_profile JSONB DEFAULT '{}',
			baseline_metrics JSONB DEFAULT '{}',
			device_id VARCHAR(100) DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_team_id ON players(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_players_device_id ON players(device_id)`,

		// 比赛表
		`CREATE TABLE IF NOT EXISTS matches (
			id BIGSERIAL PRIMARY KEY,
			team_id BIGINT NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			opponent VARCHAR(100) NOT NULL,
			date TIMESTAMP NOT NULL,
			location VARCHAR(255) NOT NULL,
			status VARCHAR(20) DEFAULT 'upcoming',
			formation VARCHAR(20) DEFAULT '4-4-2',
			lineups JSONB DEFAULT '{"starters":[],"substitutes":[]}',
			statistics JSONB DEFAULT '{}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_team_id ON matches(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_status ON matches(status)`,

		// 表现数据表(遥测采样)
		`CREATE TABLE IF NOT EXISTS performance_data (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
			player_id BIGINT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			timestamp BIGINT NOT NULL,
			metrics JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_performance_data_match_player ON performance_data(match_id, player_id, timestamp)`,

		// 洞察表
		`CREATE TABLE IF NOT EXISTS insights (
			id BIGSERIAL PRIMARY KEY,
			match_id BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
			timestamp BIGINT NOT NULL,
			type VARCHAR(20) NOT NULL,
			priority INTEGER DEFAULT 3,
			message TEXT NOT NULL,
			related_players JSONB DEFAULT '[]',
			data JSONB DEFAULT '{}',
			acknowledged BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_match_id ON insights(match_id, timestamp)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
