// Package api is the HTTP/WebSocket collaborator surface (spec §6 EXTERNAL
// INTERFACES): three inbound endpoints wrapping World.EnqueueExternalMessage,
// World.InjectEvent, and World.SetTimeSpeed, a GET /status read model, and a
// /ws feed broadcasting one JSON frame per tick. Grounded on the teacher's
// server/unified/unified_server.go for the gin+gin-contrib/cors route style.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Vik0t/ai-agent-autonomous-life/internal/world"
)

// Server wires World's external interfaces to gin routes and a websocket
// broadcast hub.
type Server struct {
	engine *gin.Engine
	hub    *wsHub
	world  *world.World
	logger *zap.Logger
}

// New builds a Server for w. Call Engine().Run(addr) or use httptest against
// Engine() directly; New also installs w's tick observer so every completed
// tick is broadcast to connected /ws clients.
func New(w *world.World, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"*"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	engine.Use(cors.New(corsCfg))

	s := &Server{
		engine: engine,
		hub:    newWSHub(logger),
		world:  w,
		logger: logger,
	}

	w.SetTickObserver(s.onTick)
	s.routes()
	go s.hub.run()
	return s
}

// Engine exposes the underlying gin.Engine, e.g. for http.Server.Handler.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) onTick(summary world.TickSummary) {
	s.hub.Broadcast(Frame{Type: "tick", Tick: summary.Tick, Data: summary.Events})
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleHealth)
	s.engine.GET("/status", s.handleStatus)
	s.engine.POST("/events", s.handleInjectEvent)
	s.engine.POST("/messages", s.handleEnqueueMessage)
	s.engine.POST("/speed", s.handleSetSpeed)
	s.engine.GET("/ws", s.hub.handleWS)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "running", "tick": s.world.TickCount()})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tick":   s.world.TickCount(),
		"agents": s.world.Snapshot(),
	})
}

type injectEventRequest struct {
	Description string   `json:"description" binding:"required"`
	AgentIDs    []string `json:"agent_ids"`
}

func (s *Server) handleInjectEvent(c *gin.Context) {
	var req injectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.world.InjectEvent(req.Description, req.AgentIDs)
	c.JSON(http.StatusAccepted, gin.H{"status": "injected"})
}

type enqueueMessageRequest struct {
	SenderID         string `json:"sender_id" binding:"required"`
	ReceiverID       string `json:"receiver_id" binding:"required"`
	Content          string `json:"content" binding:"required"`
	Topic            string `json:"topic"`
	RequiresResponse bool   `json:"requires_response"`
}

func (s *Server) handleEnqueueMessage(c *gin.Context) {
	var req enqueueMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.world.EnqueueExternalMessage(req.SenderID, req.ReceiverID, req.Content, req.Topic, req.RequiresResponse)
	c.JSON(http.StatusAccepted, gin.H{"status": "enqueued"})
}

type setSpeedRequest struct {
	Multiplier float64 `json:"multiplier" binding:"required"`
}

func (s *Server) handleSetSpeed(c *gin.Context) {
	var req setSpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.world.SetTimeSpeed(req.Multiplier)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "multiplier": req.Multiplier, "applied_at": time.Now()})
}
