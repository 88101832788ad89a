package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"coachsight-service/database"
)

// authorizeMatch 取出比赛并校验当前用户是对应球队的教练
func (s *Server) authorizeMatch(w http.ResponseWriter, r *http.Request) *database.Match {
	match, err := s.matches.Get(pathID(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return nil
	}
	if match == nil {
		writeError(w, http.StatusNotFound, "Match not found")
		return nil
	}

	isCoach, err := s.teams.IsCoach(match.TeamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return nil
	}
	if !isCoach {
		writeError(w, http.StatusForbidden, "Not authorized to access this match")
		return nil
	}
	return match
}

// handleListTeamMatches 球队的比赛列表
func (s *Server) handleListTeamMatches(w http.ResponseWriter, r *http.Request) {
	teamID := pathID(r, "teamId")

	isCoach, err := s.teams.IsCoach(teamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !isCoach {
		writeError(w, http.StatusForbidden, "Not authorized to access this team")
		return
	}

	matches, err := s.matches.ListByTeam(teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
}

// handleGetMatch 获取单场比赛
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	match := s.authorizeMatch(w, r)
	if match == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"match": match})
}

// handleCreateMatch 创建比赛
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamID    int64           `json:"teamId"`
		Opponent  string          `json:"opponent"`
		Date      time.Time       `json:"date"`
		Location  string          `json:"location"`
		Formation string          `json:"formation"`
		Lineups   json.RawMessage `json:"lineups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TeamID == 0 || req.Opponent == "" || req.Location == "" || req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "teamId, opponent, date and location are required")
		return
	}

	isCoach, err := s.teams.IsCoach(req.TeamID, currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if !isCoach {
		writeError(w, http.StatusForbidden, "Not authorized to create matches for this team")
		return
	}

	match, err := s.matches.Create(req.TeamID, req.Opponent, req.Date, req.Location, req.Formation, req.Lineups)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"match": match})
}

// handleUpdateMatch 更新比赛
func (s *Server) handleUpdateMatch(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	var req struct {
		Opponent  string          `json:"opponent"`
		Location  string          `json:"location"`
		Formation string          `json:"formation"`
		Status    string          `json:"status"`
		Date      *time.Time      `json:"date"`
		Lineups   json.RawMessage `json:"lineups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != "" && req.Status != "upcoming" && req.Status != "live" && req.Status != "completed" {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	match, err := s.matches.Update(existing.ID, req.Opponent, req.Location, req.Formation, req.Status, req.Date, req.Lineups)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"match": match})
}

// handleDeleteMatch 删除比赛
func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	if err := s.matches.Delete(existing.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Match deleted successfully"})
}

// handleStartMatch 开始比赛 (status -> live)
func (s *Server) handleStartMatch(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	match, err := s.matches.SetStatus(existing.ID, "live")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"match": match})
}

// handleEndMatch 结束比赛 (status -> completed)
func (s *Server) handleEndMatch(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	match, err := s.matches.SetStatus(existing.ID, "completed")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"match": match})
}

// handleAddPerformance 保存一次表现采样
// 持久化与实时中继是两条独立的路径,这里不做广播
func (s *Server) handleAddPerformance(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	var req struct {
		PlayerID  int64           `json:"playerId"`
		Timestamp int64           `json:"timestamp"`
		Metrics   json.RawMessage `json:"metrics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == 0 || len(req.Metrics) == 0 {
		writeError(w, http.StatusBadRequest, "playerId and metrics are required")
		return
	}
	if req.Timestamp == 0 {
		req.Timestamp = time.Now().UnixMilli()
	}

	sample, err := s.perf.Save(existing.ID, req.PlayerID, req.Timestamp, req.Metrics)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"performanceData": sample})
}

// handleGetPerformance 比赛的表现数据,可用 ?player_id= 过滤
func (s *Server) handleGetPerformance(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	playerID, _ := strconv.ParseInt(r.URL.Query().Get("player_id"), 10, 64)

	samples, err := s.perf.ListByMatch(existing.ID, playerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"performanceData": samples})
}

// handleGetInsights 比赛的洞察列表
func (s *Server) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	insights, err := s.insights.ListByMatch(existing.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": insights})
}

// handleCreateInsight 手工录入一条洞察
func (s *Server) handleCreateInsight(w http.ResponseWriter, r *http.Request) {
	existing := s.authorizeMatch(w, r)
	if existing == nil {
		return
	}

	var req struct {
		Type           string          `json:"type"`
		Priority       int             `json:"priority"`
		Message        string          `json:"message"`
		RelatedPlayers json.RawMessage `json:"relatedPlayers"`
		Data           json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Type == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "type and message are required")
		return
	}

	insight, err := s.insights.Save(existing.ID, time.Now().UnixMilli(), req.Type, req.Priority, req.Message, req.RelatedPlayers, req.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"insight": insight})
}
