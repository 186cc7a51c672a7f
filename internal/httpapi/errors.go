package httpapi

import (
	"net/http"

	"github.com/friendsofgo/errors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/credfolha/planos-backoffice/internal/pgdb"
	"github.com/credfolha/planos-backoffice/internal/planos"
	"github.com/credfolha/planos-backoffice/internal/treatment"
)

// APIError is an error the HTTP layer knows how to present: a status, a
// stable machine code, and a human message in the dashboard's language.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"erro"`
	Message string `json:"mensagem"`
}

func (e *APIError) Error() string {
	return e.Message
}

func badRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "requisicao_invalida", Message: message}
}

var errMissingPrincipal = &APIError{
	Status:  http.StatusUnauthorized,
	Code:    "usuario_ausente",
	Message: "nenhum usuário identificado na requisição",
}

// respondError translates service errors into the response taxonomy. Domain
// sentinels map to specific statuses; anything unexpected is logged with its
// request id and answered as a generic 500 so internals never leak.
func (s *Server) respondError(c *gin.Context, err error) {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):

	case errors.Is(err, pgdb.ErrSessionRejected):
		apiErr = &APIError{
			Status:  http.StatusUnauthorized,
			Code:    "sessao_rejeitada",
			Message: "usuário não autorizado pelo banco",
		}

	case errors.Is(err, planos.ErrPlanoNotFound),
		errors.Is(err, treatment.ErrLoteNotFound),
		errors.Is(err, treatment.ErrItemNotFound):
		apiErr = &APIError{
			Status:  http.StatusNotFound,
			Code:    "nao_encontrado",
			Message: "registro não encontrado ou fora do estado esperado",
		}

	case errors.Is(err, planos.ErrBloqueioRecusado),
		errors.Is(err, treatment.ErrRescisaoRecusada):
		apiErr = &APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "operacao_recusada",
			Message: "operação recusada pelas regras do banco",
		}

	default:
		s.log.WithFields(logrus.Fields{
			"request_id": requestIDFrom(c),
			"path":       c.Request.URL.Path,
		}).WithError(err).Error("request failed")
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "erro_interno",
			Message: "erro interno",
		}
	}

	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}
