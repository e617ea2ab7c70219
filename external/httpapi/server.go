package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/relaylabs/relay/internal/config"
	"github.com/relaylabs/relay/internal/eventbus"
	"github.com/relaylabs/relay/internal/store"
)

// CaseService is the slice of the session manager the API depends on.
type CaseService interface {
	CreateCase(ctx context.Context) (*store.Case, error)
	GetCase(ctx context.Context, caseID string) (*store.Case, error)
	ListActiveCases(ctx context.Context) ([]store.Case, error)
	ListTranscripts(ctx context.Context, caseID string) ([]store.TranscriptSegment, error)
	StartStream(ctx context.Context, caseID string) error
	SendAudio(caseID string, chunk []byte)
	StopStream(caseID string)
	CompleteCase(ctx context.Context, caseID string) error
}

type Server struct {
	cases    CaseService
	bus      *eventbus.Bus
	engine   *gin.Engine
	upgrader websocket.Upgrader
}

func NewServer(cfg *config.Config, cases CaseService, bus *eventbus.Bus) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cases:  cases,
		bus:    bus,
		engine: gin.New(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.POST("/cases", s.handleCreateCase)
	api.GET("/cases", s.handleListCases)
	api.GET("/cases/:id", s.handleGetCase)
	api.GET("/cases/:id/nemsis", s.handleGetRecord)
	api.GET("/cases/:id/transcripts", s.handleListTranscripts)
	api.PATCH("/cases/:id/status", s.handleUpdateStatus)

	s.engine.GET("/ws/stream/:id", s.handleStreamSocket)
	s.engine.GET("/ws/hospital", s.handleHospitalSocket)
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
