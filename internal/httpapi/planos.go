package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListPlanos(c *gin.Context) {
	raw := rawFiltersFromQuery(c)
	args, displayPage := pageArgsFromQuery(c)

	s.withSession(c, func(sess Session) error {
		res, err := s.planoSvc.List(c.Request.Context(), sess, raw, args)
		if err != nil {
			return err
		}
		if !args.OffsetMode() {
			fillShowingRange(&res.Meta, displayPage, len(res.Planos))
		}
		c.JSON(http.StatusOK, res)
		return nil
	})
}

type bloquearRequest struct {
	Motivo   string     `json:"motivo"`
	Validade *time.Time `json:"validade"`
}

func (s *Server) handleBloquear(c *gin.Context) {
	var req bloquearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, badRequest("corpo da requisição inválido"))
		return
	}
	if strings.TrimSpace(req.Motivo) == "" {
		s.respondError(c, badRequest("motivo é obrigatório"))
		return
	}

	s.withSession(c, func(sess Session) error {
		res, err := s.planoSvc.Block(c.Request.Context(), sess, c.Param("id"), req.Motivo, req.Validade)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, res)
		return nil
	})
}

func (s *Server) handleDesbloquear(c *gin.Context) {
	s.withSession(c, func(sess Session) error {
		if err := s.planoSvc.Unblock(c.Request.Context(), sess, c.Param("id")); err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"desbloqueado": true})
		return nil
	})
}
