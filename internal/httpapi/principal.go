package httpapi

import (
	"context"
	"database/sql"
	"strings"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/gin-gonic/gin"
)

// Session is the per-request database lease the handlers pass down to the
// services. *pgdb.Session is the production implementation.
type Session interface {
	boil.ContextExecutor
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Principal() string
	Release() error
}

// SessionSource acquires a session bound to the given principal.
type SessionSource func(ctx context.Context, principal string) (Session, error)

// principalHeaders are checked in order; the gateway sets the first one, the
// legacy intranet proxy the second, ad hoc tooling the third.
var principalHeaders = []string{"X-Usuario", "X-Usuario-Matricula", "X-Forwarded-User"}

// resolvePrincipal extracts the requesting user from the gateway headers,
// falling back to the configured default. The second return is false when no
// principal can be resolved at all.
func (s *Server) resolvePrincipal(c *gin.Context) (string, bool) {
	for _, header := range principalHeaders {
		if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
			return v, true
		}
	}
	if s.defaultPrincipal != "" {
		return s.defaultPrincipal, true
	}
	return "", false
}

// withSession resolves the principal, leases a bound session, and runs fn
// with it, releasing the lease afterwards. Requests without a resolvable
// principal are refused before any database work.
func (s *Server) withSession(c *gin.Context, fn func(sess Session) error) {
	principal, ok := s.resolvePrincipal(c)
	if !ok {
		s.respondError(c, errMissingPrincipal)
		return
	}

	sess, err := s.sessions(c.Request.Context(), principal)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer sess.Release()

	if err := fn(sess); err != nil {
		s.respondError(c, err)
	}
}
