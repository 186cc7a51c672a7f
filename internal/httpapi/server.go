// Package httpapi is the JSON surface of the backoffice: thin gin handlers
// that resolve the requesting user, lease a bound database session, and
// delegate to the domain services.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/credfolha/planos-backoffice/internal/planos"
	"github.com/credfolha/planos-backoffice/internal/treatment"
)

const ctxRequestID = "request_id"

// Options wires a Server.
type Options struct {
	Sessions         SessionSource
	Planos           *planos.Service
	Tratamento       *treatment.Service
	Log              *logrus.Entry
	DefaultPrincipal string
	Debug            bool
}

// Server owns the router and the handler dependencies.
type Server struct {
	router           *gin.Engine
	sessions         SessionSource
	planoSvc         *planos.Service
	tratSvc          *treatment.Service
	log              *logrus.Entry
	defaultPrincipal string
}

func NewServer(opts Options) *Server {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:           gin.New(),
		sessions:         opts.Sessions,
		planoSvc:         opts.Planos,
		tratSvc:          opts.Tratamento,
		log:              opts.Log,
		defaultPrincipal: opts.DefaultPrincipal,
	}

	s.router.Use(requestID(), requestLogger(opts.Log), gin.CustomRecovery(s.recovered))

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		api.GET("/planos", s.handleListPlanos)
		api.POST("/planos/:id/bloquear", s.handleBloquear)
		api.POST("/planos/:id/desbloquear", s.handleDesbloquear)

		api.GET("/tratamento/lote", s.handleEstadoLote)
		api.POST("/tratamento/migrar", s.handleMigrar)
		api.GET("/tratamento/lote/:id/itens", s.handleListItens)
		api.POST("/tratamento/lote/:id/itens/:planoId/rescindir", s.handleRescindir)
		api.POST("/tratamento/lote/:id/itens/:planoId/pular", s.handlePular)
		api.POST("/tratamento/lote/:id/fechar", s.handleFechar)
	}

	return s
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) recovered(c *gin.Context, v any) {
	s.log.WithFields(logrus.Fields{
		"request_id": requestIDFrom(c),
		"path":       c.Request.URL.Path,
		"panic":      v,
	}).Error("request panicked")
	c.AbortWithStatusJSON(http.StatusInternalServerError, &APIError{
		Code:    "erro_interno",
		Message: "erro interno",
	})
}

// requestID tags every request with an id, honoring one supplied by the
// gateway, and echoes it back on the response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"request_id": requestIDFrom(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duracao_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	}
}
