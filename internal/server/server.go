package server

import (
	"context"
	"net/http"

	"gsr_go/internal/app"
	"gsr_go/internal/domain"
	"gsr_go/internal/infra"
	"gsr_go/internal/service"

	"github.com/gin-gonic/gin"
)

// Server is the thin HTTP/WebSocket shell around the engine. It holds no
// domain logic: every handler either reads the orchestrator's view or
// forwards an edit to the state container.
type Server struct {
	cfg    *infra.Config
	orch   *app.Orchestrator
	states *service.StateService
	engine *gin.Engine
	httpd  *http.Server

	// WebSocket hub
	clients    map[*Client]struct{}
	broadcast  chan app.View
	register   chan *Client
	unregister chan *Client
}

// New builds the server and registers routes.
func New(cfg *infra.Config, orch *app.Orchestrator, states *service.StateService) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:        cfg,
		orch:       orch,
		states:     states,
		engine:     gin.New(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan app.View, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/state", s.getState)
		api.GET("/bands", s.getBands)
		api.GET("/metrics", s.getMetrics)
		api.GET("/health", s.getHealth)

		api.PUT("/holdings", s.putHoldings)
		api.PUT("/overrides", s.putOverrides)
		api.PUT("/interval", s.putInterval)

		api.POST("/refresh", s.postRefresh)
		api.POST("/snapshots/clear", s.postClearSnapshots)
		api.POST("/reset", s.postReset)
	}

	s.engine.GET("/ws", s.handleWebSocket)
}

// Start runs the hub loop and the HTTP listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.runHub(ctx)

	s.httpd = &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpd.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.httpd.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// ---------------------------------------------------------------------------
// Read endpoints
// ---------------------------------------------------------------------------

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.orch.View())
}

func (s *Server) getBands(c *gin.Context) {
	c.JSON(http.StatusOK, domain.DefaultBands())
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, infra.GlobalMetrics.Snapshot())
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"name":    s.cfg.App.Name,
		"version": s.cfg.App.Version,
	})
}

// ---------------------------------------------------------------------------
// Edit endpoints
// ---------------------------------------------------------------------------

func (s *Server) putHoldings(c *gin.Context) {
	var h domain.Holdings
	if err := c.ShouldBindJSON(&h); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.states.UpdateHoldings(h); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.orch.View())
}

func (s *Server) putOverrides(c *gin.Context) {
	var body struct {
		GoldUsd   *float64 `json:"goldUsd"`
		SilverUsd *float64 `json:"silverUsd"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.states.SetOverrides(body.GoldUsd, body.SilverUsd); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.orch.View())
}

func (s *Server) putInterval(c *gin.Context) {
	var body struct {
		Minutes int `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.states.SetRefreshMinutes(body.Minutes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.orch.Reschedule(body.Minutes)
	c.JSON(http.StatusOK, s.orch.View())
}

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

func (s *Server) postRefresh(c *gin.Context) {
	triggered := s.orch.TriggerNow()
	c.JSON(http.StatusAccepted, gin.H{"triggered": triggered})
}

func (s *Server) postClearSnapshots(c *gin.Context) {
	if err := s.states.ClearSnapshots(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.orch.View())
}

func (s *Server) postReset(c *gin.Context) {
	if err := s.states.Reset(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.orch.NoteStateReset()
	c.JSON(http.StatusOK, s.orch.View())
}
