package server

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	shelfsense "github.com/egorairo/ShelfSense"
)

//go:embed static/index.html
var indexHTML []byte

// Server exposes the chat coordinator over HTTP.
type Server struct {
	coordinator shelfsense.Coordinator
	cfg         shelfsense.ServerConfig
	tracer      trace.Tracer
}

func New(coordinator shelfsense.Coordinator, cfg shelfsense.ServerConfig) *Server {
	return &Server{
		coordinator: coordinator,
		cfg:         cfg,
		tracer:      otel.Tracer(shelfsense.TracerNameServer),
	}
}

// Router builds the gin engine with every route and middleware attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(s.cfg.Origins()))

	router.GET("/", s.Index)
	router.GET("/health", s.HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/chat", TimeoutMiddleware(s.cfg.RequestTimeout), s.Chat)
		api.POST("/sales/parse", s.ParseSales)
	}

	return router
}

func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shelfsense",
	})
}

// Index serves the single page chat UI.
func (s *Server) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
