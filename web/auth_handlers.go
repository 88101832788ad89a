package web

import (
	"encoding/json"
	"net/http"

	"coachsight-service/services"
)

// handleRegister 注册新教练账号并直接签发token
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Name, email and a password of at least 6 characters are required")
		return
	}

	user, err := s.auth.Register(req.Name, req.Email, req.Password)
	if err == services.ErrEmailTaken {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := s.auth.TokenFor(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// handleLogin 登录
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.auth.Authenticate(req.Email, req.Password)
	if err == services.ErrInvalidCredentials {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	token, err := s.auth.TokenFor(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// handleMe 返回当前登录用户
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.UserByID(currentUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
