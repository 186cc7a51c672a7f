package pgdb

import (
	"context"
	"database/sql"

	"github.com/friendsofgo/errors"
	"github.com/sirupsen/logrus"
)

// AcquireSession leases one connection from the pool and binds it to
// principal through core_definir_sessao, the hook the row level security
// policies read the current user from. Every statement of a request must run
// on the session it acquired; a statement on any other pool connection would
// run with no user bound.
func (d *DB) AcquireSession(ctx context.Context, principal string) (*Session, error) {
	conn, err := d.pool.Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "leasing connection")
	}

	if _, err := conn.ExecContext(ctx, "SELECT core_definir_sessao($1)", principal); err != nil {
		conn.Close()
		if reason, rejected := sessionRejection(err); rejected {
			d.log.WithFields(logrus.Fields{
				"usuario": principal,
				"motivo":  reason,
			}).Warn("session binding rejected")
			return nil, errors.Wrap(ErrSessionRejected, reason)
		}
		return nil, errors.Wrap(err, "binding session user")
	}

	return &Session{conn: conn, principal: principal}, nil
}

// Session is a single leased connection bound to one user. It satisfies
// sqlboiler's executor contract so repositories can query it directly, and
// hands out transactions for multi-statement operations. Sessions are not
// safe for concurrent use; one request owns one session.
type Session struct {
	conn      *sql.Conn
	principal string
}

// Principal returns the user this session is bound to.
func (s *Session) Principal() string {
	return s.principal
}

// Release returns the connection to the pool. The session must not be used
// afterwards.
func (s *Session) Release() error {
	return s.conn.Close()
}

// BeginTx opens a transaction on the leased connection.
func (s *Session) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return s.conn.BeginTx(ctx, opts)
}

func (s *Session) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.conn.ExecContext(ctx, query, args...)
}

func (s *Session) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.conn.QueryContext(ctx, query, args...)
}

func (s *Session) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.conn.QueryRowContext(ctx, query, args...)
}

// The context-free methods exist only to complete sqlboiler's Executor
// interface; they delegate with a background context.

func (s *Session) Exec(query string, args ...interface{}) (sql.Result, error) {
	return s.conn.ExecContext(context.Background(), query, args...)
}

func (s *Session) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return s.conn.QueryContext(context.Background(), query, args...)
}

func (s *Session) QueryRow(query string, args ...interface{}) *sql.Row {
	return s.conn.QueryRowContext(context.Background(), query, args...)
}
