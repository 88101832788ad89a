package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"coachsight-service/config"
	"coachsight-service/realtime"
	"coachsight-service/services"
)

type Server struct {
	config     *config.Config
	db         *sql.DB
	hub        *realtime.Hub
	auth       *services.AuthService
	teams      *services.TeamStore
	players    *services.PlayerStore
	matches    *services.MatchStore
	perf       *services.PerformanceStore
	insights   *services.InsightStore
	engine     *services.InsightEngine
	stats      *services.RelayStatsTracker
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

func NewServer(cfg *config.Config, db *sql.DB, hub *realtime.Hub, engine *services.InsightEngine, stats *services.RelayStatsTracker) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		hub:      hub,
		auth:     services.NewAuthService(db, cfg.JWTSecret, cfg.TokenExpiry),
		teams:    services.NewTeamStore(db),
		players:  services.NewPlayerStore(db),
		matches:  services.NewMatchStore(db),
		perf:     services.NewPerformanceStore(db),
		insights: services.NewInsightStore(db),
		engine:   engine,
		stats:    stats,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源(生产环境需要限制)
			},
		},
	}
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	// API路由
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/stats", s.requireAuth(s.handleStats)).Methods("GET")

	// 认证
	api.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	api.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/auth/me", s.requireAuth(s.handleMe)).Methods("GET")

	// 球队
	api.HandleFunc("/teams", s.requireAuth(s.handleListTeams)).Methods("GET")
	api.HandleFunc("/teams", s.requireAuth(s.handleCreateTeam)).Methods("POST")
	api.HandleFunc("/teams/{id}", s.requireAuth(s.handleGetTeam)).Methods("GET")
	api.HandleFunc("/teams/{id}", s.requireAuth(s.handleUpdateTeam)).Methods("PUT")
	api.HandleFunc("/teams/{id}", s.requireAuth(s.handleDeleteTeam)).Methods("DELETE")
	api.HandleFunc("/teams/{id}/players", s.requireAuth(s.handleListTeamPlayers)).Methods("GET")

	// 球员
	api.HandleFunc("/players", s.requireAuth(s.handleCreatePlayer)).Methods("POST")
	api.HandleFunc("/players/{id}", s.requireAuth(s.handleGetPlayer)).Methods("GET")
	api.HandleFunc("/players/{id}", s.requireAuth(s.handleUpdatePlayer)).Methods("PUT")
	api.HandleFunc("/players/{id}", s.requireAuth(s.handleDeletePlayer)).Methods("DELETE")

	// 比赛
	api.HandleFunc("/matches/team/{teamId}", s.requireAuth(s.handleListTeamMatches)).Methods("GET")
	api.HandleFunc("/matches", s.requireAuth(s.handleCreateMatch)).Methods("POST")
	api.HandleFunc("/matches/{id}", s.requireAuth(s.handleGetMatch)).Methods("GET")
	api.HandleFunc("/matches/{id}", s.requireAuth(s.handleUpdateMatch)).Methods("PUT")
	api.HandleFunc("/matches/{id}", s.requireAuth(s.handleDeleteMatch)).Methods("DELETE")
	api.HandleFunc("/matches/{id}/start", s.requireAuth(s.handleStartMatch)).Methods("POST")
	api.HandleFunc("/matches/{id}/end", s.requireAuth(s.handleEndMatch)).Methods("POST")
	api.HandleFunc("/matches/{id}/performance", s.requireAuth(s.handleAddPerformance)).Methods("POST")
	api.HandleFunc("/matches/{id}/performance", s.requireAuth(s.handleGetPerformance)).Methods("GET")
	api.HandleFunc("/matches/{id}/insights", s.requireAuth(s.handleGetInsights)).Methods("GET")
	api.HandleFunc("/matches/{id}/insights", s.requireAuth(s.handleCreateInsight)).Methods("POST")

	// WebSocket路由(不走认证,见 websocket.go 的说明)
	router.HandleFunc("/ws", s.handleWebSocket)

	// CORS配置
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats 返回数据量和实时中继的概览
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var stats struct {
		Teams       int            `json:"teams"`
		Players     int            `json:"players"`
		Matches     int            `json:"matches"`
		LiveMatches int            `json:"liveMatches"`
		Insights    int            `json:"insights"`
		Rooms       int            `json:"rooms"`
		Connections int            `json:"connections"`
		Relayed     map[string]int `json:"relayed"`
	}

	s.db.QueryRow("SELECT COUNT(*) FROM teams").Scan(&stats.Teams)
	s.db.QueryRow("SELECT COUNT(*) FROM players").Scan(&stats.Players)
	s.db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&stats.Matches)
	s.db.QueryRow("SELECT COUNT(*) FROM matches WHERE status = 'live'").Scan(&stats.LiveMatches)
	s.db.QueryRow("SELECT COUNT(*) FROM insights").Scan(&stats.Insights)

	stats.Rooms, stats.Connections = s.hub.Stats()
	stats.Relayed = s.stats.Counts()

	writeJSON(w, http.StatusOK, stats)
}

// handleWebSocket WebSocket连接处理
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		done:   make(chan struct{}),
		engine: s.engine,
		stats:  s.stats,
	}
	client.id = s.hub.Register(client)

	// 发送欢迎消息
	welcome, _ := json.Marshal(map[string]interface{}{
		"type": realtime.MsgConnected,
		"data": map[string]interface{}{
			"connectionId": client.id,
			"time":         time.Now().Unix(),
		},
	})
	client.send <- welcome

	go client.writePump()
	go client.readPump()

	log.Printf("WebSocket client %s connected", client.id)
}

// writeJSON 输出JSON响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError 输出与前端约定的错误结构 {"message": ...}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
