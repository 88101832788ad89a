package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// pathID 解析路径里的数字ID,非法时返回0
func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

// handleListTeams 当前教练名下的球队列表
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.teams.ListByCoach(currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// handleGetTeam 获取单支球队
func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.teams.GetForCoach(pathID(r, "id"), currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if team == nil {
		writeError(w, http.StatusNotFound, "Team not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"team": team})
}

// handleCreateTeam 创建球队,创建者自动成为教练
func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string          `json:"name"`
		Logo     string          `json:"logo"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Team name is required")
		return
	}

	team, err := s.teams.Create(currentUserID(r), req.Name, req.Logo, req.Settings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"team": team})
}

// handleUpdateTeam 更新球队
func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	teamID := pathID(r, "id")

	existing, err := s.teams.GetForCoach(teamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Team not found")
		return
	}

	var req struct {
		Name     string          `json:"name"`
		Logo     string          `json:"logo"`
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	team, err := s.teams.Update(teamID, req.Name, req.Logo, req.Settings)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"team": team})
}

// handleDeleteTeam 删除球队,球员和比赛级联删除
func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID := pathID(r, "id")

	existing, err := s.teams.GetForCoach(teamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Team not found")
		return
	}

	if err := s.teams.Delete(teamID); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Team deleted successfully"})
}

// handleListTeamPlayers 球队的球员列表
func (s *Server) handleListTeamPlayers(w http.ResponseWriter, r *http.Request) {
	teamID := pathID(r, "id")

	existing, err := s.teams.GetForCoach(teamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Team not found")
		return
	}

	players, err := s.players.ListByTeam(teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"players": players})
}
