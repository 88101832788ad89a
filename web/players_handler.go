package web

import (
	"encoding/json"
	"net/http"

	"coachsight-service/database"
)

// authorizePlayer 取出球员并校验当前用户是其球队的教练
func (s *Server) authorizePlayer(w http.ResponseWriter, r *http.Request) *database.Player {
	player, err := s.players.Get(pathID(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return nil
	}
	if player == nil {
		writeError(w, http.StatusNotFound, "Player not found")
		return nil
	}

	isCoach, err := s.teams.IsCoach(player.TeamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return nil
	}
	if !isCoach {
		writeError(w, http.StatusForbidden, "Not authorized to access this player")
		return nil
	}
	return player
}

// handleGetPlayer 获取单个球员
func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player := s.authorizePlayer(w, r)
	if player == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"player": player})
}

// handleCreatePlayer 创建球员
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID          int64           `json:"teamId"`
		Name            string          `json:"name"`
		Position        string          `json:"position"`
		JerseyNumber    int             `json:"jerseyNumber"`
		PhysicalProfile json.RawMessage `json:"physicalProfile"`
		BaselineMetrics json.RawMessage `json:"baselineMetrics"`
		DeviceID        string          `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TeamID == 0 || req.Name == "" || req.Position == "" {
		writeError(w, http.StatusBadRequest, "teamId, name and position are required")
		return
	}

	isCoach, err := s.teams.IsCoach(req.TeamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !isCoach {
		writeError(w, http.StatusForbidden, "Not authorized to add players to this team")
		return
	}

	player, err := s.players.Create(req.TeamID, req.Name, req.Position, req.JerseyNumber, req.PhysicalProfile, req.BaselineMetrics, req.DeviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"player": player})
}

// handleUpdatePlayer 更新球员
func (s *Server) handleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizePlayer(w, r)
	if existing == nil {
		return
	}

	var req struct {
		Name            string          `json:"name"`
		Position        string          `json:"position"`
		JerseyNumber    int             `json:"jerseyNumber"`
		PhysicalProfile json.RawMessage `json:"physicalProfile"`
		BaselineMetrics json.RawMessage `json:"baselineMetrics"`
		DeviceID        *string         `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	player, err := s.players.Update(existing.ID, req.Name, req.Position, req.JerseyNumber, req.PhysicalProfile, req.BaselineMetrics, req.DeviceID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"player": player})
}

// handleDeletePlayer 删除球员
func (s *Server) handleDeletePlayer(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizePlayer(w, r)
	if existing == nil {
		return
	}

	if err := s.players.Delete(existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Player deleted successfully"})
}
