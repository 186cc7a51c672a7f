package pgdb

import (
	"github.com/friendsofgo/errors"
	"github.com/lib/pq"
)

// ErrSessionRejected reports that the database refused to bind a session to
// the requested user. The HTTP layer maps it to an authentication failure.
var ErrSessionRejected = errors.New("session user rejected by database")

// PostgreSQL error codes this layer gives meaning to.
const (
	codeUniqueViolation       = "23505"
	codeQueryCanceled         = "57014"
	codeRaiseException        = "P0001"
	codeInsufficientPrivilege = "42501"
	codeInvalidAuthorization  = "28000"
)

func pgCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsQueryCanceled reports whether the server canceled the statement, which
// is how a blown statement_timeout surfaces through the driver.
func IsQueryCanceled(err error) bool {
	return pgCode(err) == codeQueryCanceled
}

// sessionRejection classifies binding failures that mean "this user may not
// open a session" rather than an infrastructure fault: an explicit raise
// inside core_definir_sessao or a privilege refusal.
func sessionRejection(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", false
	}
	switch pqErr.Code {
	case codeRaiseException, codeInsufficientPrivilege, codeInvalidAuthorization:
		return pqErr.Message, true
	}
	return "", false
}
