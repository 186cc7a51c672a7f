package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/credfolha/planos-backoffice/internal/planos"
	"github.com/credfolha/planos-backoffice/internal/treatment"
)

func normalizedGrade(raw string) string {
	grade := strings.ToUpper(strings.TrimSpace(raw))
	if grade == "" {
		return treatment.GradePassiveisRescisao
	}
	return grade
}

func (s *Server) handleEstadoLote(c *gin.Context) {
	grade := normalizedGrade(c.Query("grade"))

	s.withSession(c, func(sess Session) error {
		res, err := s.tratSvc.Estado(c.Request.Context(), sess, grade)
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, res)
		return nil
	})
}

type migrarFiltros struct {
	Situacoes  []string    `json:"situacoes"`
	DiasMin    json.Number `json:"dias_min"`
	FaixaSaldo string      `json:"faixa_saldo"`
	SaldoMin   json.Number `json:"saldo_min"`
	Periodo    string      `json:"periodo"`
	Busca      string      `json:"busca"`
}

type migrarRequest struct {
	Grade   string         `json:"grade"`
	Filtros *migrarFiltros `json:"filtros"`
}

func (r migrarRequest) rawFilters() planos.RawFilters {
	if r.Filtros == nil {
		return planos.RawFilters{}
	}
	return planos.RawFilters{
		Situacoes:  r.Filtros.Situacoes,
		DiasMin:    r.Filtros.DiasMin.String(),
		SaldoFaixa: r.Filtros.FaixaSaldo,
		SaldoMin:   r.Filtros.SaldoMin.String(),
		Periodo:    r.Filtros.Periodo,
		Busca:      r.Filtros.Busca,
	}
}

func (s *Server) handleMigrar(c *gin.Context) {
	var req migrarRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			s.respondError(c, badRequest("corpo da requisição inválido"))
			return
		}
	}
	grade := normalizedGrade(req.Grade)

	payload, err := planos.ParseFilters(req.rawFilters()).ToJSON()
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.withSession(c, func(sess Session) error {
		res, err := s.tratSvc.Migrar(c.Request.Context(), sess, grade, payload)
		if err != nil {
			return err
		}
		status := http.StatusOK
		if res.Criado {
			status = http.StatusCreated
		}
		c.JSON(status, res)
		return nil
	})
}

func (s *Server) handleListItens(c *gin.Context) {
	var status treatment.ItemStatus
	if raw := c.Query("status"); raw != "" {
		parsed, ok := treatment.ParseItemStatus(raw)
		if !ok {
			s.respondError(c, badRequest("status de item desconhecido"))
			return
		}
		status = parsed
	}
	args, displayPage := pageArgsFromQuery(c)

	s.withSession(c, func(sess Session) error {
		res, err := s.tratSvc.ListarItens(c.Request.Context(), sess, c.Param("id"), status, args)
		if err != nil {
			return err
		}
		fillShowingRange(&res.Meta, displayPage, len(res.Itens))
		c.JSON(http.StatusOK, res)
		return nil
	})
}

func (s *Server) handleRescindir(c *gin.Context) {
	s.withSession(c, func(sess Session) error {
		if err := s.tratSvc.Rescindir(c.Request.Context(), sess, c.Param("id"), c.Param("planoId")); err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"processado": true})
		return nil
	})
}

func (s *Server) handlePular(c *gin.Context) {
	s.withSession(c, func(sess Session) error {
		if err := s.tratSvc.Pular(c.Request.Context(), sess, c.Param("id"), c.Param("planoId")); err != nil {
			return err
		}
		c.JSON(http.StatusOK, gin.H{"pulado": true})
		return nil
	})
}

func (s *Server) handleFechar(c *gin.Context) {
	s.withSession(c, func(sess Session) error {
		res, err := s.tratSvc.Fechar(c.Request.Context(), sess, c.Param("id"))
		if err != nil {
			return err
		}
		c.JSON(http.StatusOK, res)
		return nil
	})
}
