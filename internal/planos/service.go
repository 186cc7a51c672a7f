package planos

import (
	"context"
	"time"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/friendsofgo/errors"
	"github.com/sirupsen/logrus"

	"github.com/credfolha/planos-backoffice/internal/paging"
	"github.com/credfolha/planos-backoffice/internal/pgdb"
)

// Session is the database access a request handler hands the service: one
// leased connection already bound to the requesting user.
type Session interface {
	boil.ContextExecutor
	TxBeginner
	Principal() string
}

// ErrPlanoNotFound reports that an operation targeted a plan the session
// cannot see or that is not in the required state.
var ErrPlanoNotFound = errors.New("plan not found")

// ErrBloqueioRecusado reports that the blocking procedure explicitly refused
// the operation.
var ErrBloqueioRecusado = errors.New("plan block refused by database procedure")

// Service implements the management listing and the plan block operations.
type Service struct {
	fetcher *PageFetcher
	counter *Counter
	log     *logrus.Entry
	dryRun  bool
}

func NewService(fetcher *PageFetcher, counter *Counter, log *logrus.Entry, dryRun bool) *Service {
	return &Service{fetcher: fetcher, counter: counter, log: log, dryRun: dryRun}
}

// ListResult is one page of the management listing together with its paging
// envelope.
type ListResult struct {
	Planos []*Plan     `json:"items"`
	Meta   paging.Meta `json:"paging"`
}

// List runs one page of the management listing. The raw filters are
// normalized, translated into a single predicate, and that same predicate
// feeds both the page query and the count query, so the total always
// describes the same result set as the rows.
func (s *Service) List(ctx context.Context, sess Session, raw RawFilters, args paging.PageArgs) (*ListResult, error) {
	filters := ParseFilters(raw)
	pred := BuildPredicate(filters, viewAlias, time.Now().UTC())

	var (
		page *Page
		err  error
	)
	if args.OffsetMode() {
		page, err = s.fetcher.FetchOffset(ctx, sess, pred, args)
	} else {
		page, err = s.fetcher.FetchKeyset(ctx, sess, pred, args)
	}
	if err != nil {
		return nil, err
	}

	countKey := sess.Principal() + "|" + filters.Signature()
	total := s.counter.Count(ctx, sess, pred, countKey)

	var meta paging.Meta
	if args.OffsetMode() {
		meta = paging.NewOffsetMeta(args.EffectivePage(), args.EffectiveLimit(), len(page.Rows), page.HasMore, total)
	} else {
		var first, last *paging.Cursor
		if len(page.Rows) > 0 {
			f := page.Rows[0].KeysetCursor()
			l := page.Rows[len(page.Rows)-1].KeysetCursor()
			first, last = &f, &l
		}
		meta = paging.NewKeysetMeta(args.EffectiveLimit(), page.HasMore, first, last, total)
	}

	items := make([]*Plan, len(page.Rows))
	for i, row := range page.Rows {
		items[i] = row.Project()
	}

	return &ListResult{Planos: items, Meta: meta}, nil
}

// BlockResult reports what the block call did.
type BlockResult struct {
	// JaBloqueado is set when the plan was already blocked and the call
	// became a no-op instead of an error.
	JaBloqueado bool `json:"ja_bloqueado"`
}

// Block marks a plan blocked through fn_bloquear_plano. Two users blocking
// the same plan race inside the procedure; the loser's unique violation is
// reported as success with JaBloqueado set, since the plan ends up in the
// state both were asking for.
func (s *Service) Block(ctx context.Context, sess Session, planoID, motivo string, validade *time.Time) (*BlockResult, error) {
	if s.dryRun {
		s.log.WithFields(logrus.Fields{
			"plano_id": planoID,
			"usuario":  sess.Principal(),
		}).Info("dry-run: fn_bloquear_plano suppressed")
		return &BlockResult{}, nil
	}

	var resultado any
	err := sess.QueryRowContext(ctx, "SELECT fn_bloquear_plano($1, $2, $3)", planoID, motivo, validade).Scan(&resultado)
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			s.log.WithField("plano_id", planoID).Info("plan already blocked")
			return &BlockResult{JaBloqueado: true}, nil
		}
		return nil, errors.Wrap(err, "blocking plan")
	}

	if !pgdb.CoerceSuccess(resultado) {
		return nil, ErrBloqueioRecusado
	}

	return &BlockResult{}, nil
}

// Unblock lifts a plan's block through fn_desbloquear_plano. The procedure
// reports how many plans changed; zero means the plan does not exist, is not
// visible to this session, or was not blocked.
func (s *Service) Unblock(ctx context.Context, sess Session, planoID string) error {
	if s.dryRun {
		s.log.WithFields(logrus.Fields{
			"plano_id": planoID,
			"usuario":  sess.Principal(),
		}).Info("dry-run: fn_desbloquear_plano suppressed")
		return nil
	}

	var resultado any
	err := sess.QueryRowContext(ctx, "SELECT fn_desbloquear_plano($1)", planoID).Scan(&resultado)
	if err != nil {
		return errors.Wrap(err, "unblocking plan")
	}

	if !pgdb.CoerceSuccess(resultado) {
		return ErrPlanoNotFound
	}

	return nil
}
