package treatment

import (
	"context"
	"database/sql"
	"time"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/friendsofgo/errors"
	"github.com/sirupsen/logrus"

	"github.com/credfolha/planos-backoffice/internal/paging"
	"github.com/credfolha/planos-backoffice/internal/pgdb"
	"github.com/credfolha/planos-backoffice/internal/planos"
)

// Session is the database access a request handler hands the service: one
// leased connection already bound to the requesting user.
type Session interface {
	boil.ContextExecutor
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Principal() string
}

// ErrLoteNotFound reports that a batch does not exist or is not visible to
// the session user.
var ErrLoteNotFound = errors.New("treatment batch not found")

// ErrItemNotFound reports that an item does not exist in the batch or
// already left the pending state.
var ErrItemNotFound = errors.New("treatment item not found")

// ErrRescisaoRecusada reports that the rescission procedure explicitly
// refused the plan.
var ErrRescisaoRecusada = errors.New("rescission refused by database procedure")

// store is the repository surface the service consumes, split out so suites
// can drive the state machine without a database.
type store interface {
	OpenLote(ctx context.Context, exec boil.ContextExecutor, grade string) (*Lote, error)
	GetLote(ctx context.Context, exec boil.ContextExecutor, loteID string) (*Lote, error)
	Migrar(ctx context.Context, exec boil.ContextExecutor, grade string, filtros []byte) (*MigrateResult, error)
	ContarPorStatus(ctx context.Context, exec boil.ContextExecutor, loteID string) (Tally, error)
	ListItems(ctx context.Context, exec boil.ContextExecutor, loteID string, status ItemStatus, args paging.PageArgs) (*ItemPage, error)
	MarcarProcessado(ctx context.Context, exec boil.ContextExecutor, loteID, planoID string, quando time.Time) (int64, error)
	MarcarPulado(ctx context.Context, exec boil.ContextExecutor, loteID, planoID string, quando time.Time) (int64, error)
	PularPendentes(ctx context.Context, exec boil.ContextExecutor, loteID string, quando time.Time) (int64, error)
	FecharLote(ctx context.Context, exec boil.ContextExecutor, loteID string, quando time.Time) (int64, error)
	RepararItensFechados(ctx context.Context, exec boil.ContextExecutor, quando time.Time) (int64, error)
	RescindirPlano(ctx context.Context, exec boil.ContextExecutor, loteID, planoID string, quando time.Time) (bool, error)
}

// TxFunc opens a transaction on the session, runs fn on it, and commits,
// rolling back when fn fails. The default uses real transactions; suites
// swap in a pass-through.
type TxFunc func(ctx context.Context, sess Session, fn func(tx boil.ContextExecutor) error) error

// Service drives the treatment batch lifecycle: no batch, then ABERTO while
// the user works the items, then FECHADO.
type Service struct {
	store  store
	inTx   TxFunc
	log    *logrus.Entry
	dryRun bool
}

func NewService(log *logrus.Entry, dryRun bool) *Service {
	return &Service{store: Repository{}, inTx: emTransacao, log: log, dryRun: dryRun}
}

// WithStore replaces the repository and returns the service. Suites use it
// to script batch states.
func (s *Service) WithStore(st store) *Service {
	s.store = st
	return s
}

// WithTx replaces the transaction wrapper and returns the service.
func (s *Service) WithTx(f TxFunc) *Service {
	s.inTx = f
	return s
}

// EstadoResult is the treatment state of one grid for the session user: the
// open batch with its per-state tallies, or no batch at all.
type EstadoResult struct {
	Lote   *Lote  `json:"lote"`
	Resumo *Tally `json:"resumo,omitempty"`
}

// Estado reports whether the session user has an open batch for grade and,
// when there is one, how far along it is. The front end chooses between
// filter browsing and batch processing based on this answer.
func (s *Service) Estado(ctx context.Context, sess Session, grade string) (*EstadoResult, error) {
	lote, err := s.store.OpenLote(ctx, sess, grade)
	if err != nil {
		return nil, err
	}
	if lote == nil {
		return &EstadoResult{}, nil
	}

	tally, err := s.store.ContarPorStatus(ctx, sess, lote.ID)
	if err != nil {
		return nil, err
	}
	return &EstadoResult{Lote: lote, Resumo: &tally}, nil
}

// Migrar snapshots the plans matching the grid criteria plus the caller's
// filters into a treatment batch. Calling it again without closing reuses
// the open batch and seeds nothing. Two sessions migrating the same grid at
// once race past the procedure's open-batch lookup; the partial unique index
// lets exactly one insert through, and the loser adopts the winner's batch
// as a reuse.
func (s *Service) Migrar(ctx context.Context, sess Session, grade string, filtros []byte) (*MigrateResult, error) {
	if len(filtros) == 0 {
		filtros = []byte("{}")
	}

	res, err := s.store.Migrar(ctx, sess, grade, filtros)
	if err != nil {
		if !pgdb.IsUniqueViolation(err) {
			return nil, errors.Wrap(err, "migrating plans")
		}
		lote, lerr := s.store.OpenLote(ctx, sess, grade)
		if lerr != nil {
			return nil, lerr
		}
		if lote == nil {
			return nil, errors.Wrap(err, "migrating plans")
		}
		res = &MigrateResult{LoteID: lote.ID}
	}

	s.log.WithFields(logrus.Fields{
		"lote_id": res.LoteID,
		"grade":   grade,
		"usuario": sess.Principal(),
		"criado":  res.Criado,
		"itens":   res.Itens,
	}).Info("treatment batch ready")
	return res, nil
}

// ItemListResult is one page of batch items with its paging envelope. The
// total is exact here: batches are frozen snapshots, so the tally query is
// cheap and never budgeted.
type ItemListResult struct {
	Itens []*Item     `json:"items"`
	Meta  paging.Meta `json:"paging"`
	Total Tally       `json:"resumo"`
}

// ListarItens returns one keyset page of a batch's items, optionally inside
// a single state bucket.
func (s *Service) ListarItens(ctx context.Context, sess Session, loteID string, status ItemStatus, args paging.PageArgs) (*ItemListResult, error) {
	if _, err := s.store.GetLote(ctx, sess, loteID); err != nil {
		return nil, err
	}

	page, err := s.store.ListItems(ctx, sess, loteID, status, args)
	if err != nil {
		return nil, err
	}

	tally, err := s.store.ContarPorStatus(ctx, sess, loteID)
	if err != nil {
		return nil, err
	}

	total := tally.Total()
	if status != "" {
		total = tally.Of(status)
	}

	var first, last *paging.Cursor
	if len(page.Rows) > 0 {
		f := page.Rows[0].KeysetCursor()
		l := page.Rows[len(page.Rows)-1].KeysetCursor()
		first, last = &f, &l
	}
	meta := paging.NewKeysetMeta(args.EffectiveLimit(), page.HasMore, first, last, &total)

	itens := make([]*Item, len(page.Rows))
	for i, row := range page.Rows {
		itens[i] = row.Project()
	}

	return &ItemListResult{Itens: itens, Meta: meta, Total: tally}, nil
}

// Rescindir rescinds one pending item's plan: the item moves to PROCESSADO
// and fn_rescindir_item effects the rescission, both inside one transaction
// so a refusal or failure leaves the item pending. The pending-state guard
// runs first; an item that already left the state never reaches the
// procedure.
func (s *Service) Rescindir(ctx context.Context, sess Session, loteID, planoID string) error {
	if _, err := s.store.GetLote(ctx, sess, loteID); err != nil {
		return err
	}

	log := s.log.WithFields(logrus.Fields{
		"lote_id":  loteID,
		"plano_id": planoID,
		"usuario":  sess.Principal(),
	})

	if s.dryRun {
		log.Info("dry-run: fn_rescindir_item suppressed")
		return nil
	}

	quando := time.Now().UTC()
	err := s.inTx(ctx, sess, func(tx boil.ContextExecutor) error {
		afetados, err := s.store.MarcarProcessado(ctx, tx, loteID, planoID, quando)
		if err != nil {
			return err
		}
		if afetados == 0 {
			return ErrItemNotFound
		}

		ok, err := s.store.RescindirPlano(ctx, tx, loteID, planoID, quando)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRescisaoRecusada
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"audit":    "ocorrencia",
		"situacao": string(planos.SituacaoRescindido),
	}).Info("plan rescinded")
	return nil
}

// Pular marks one pending item skipped. The state guard makes a repeat, or
// a skip of an already processed item, a not-found instead of a silent
// success.
func (s *Service) Pular(ctx context.Context, sess Session, loteID, planoID string) error {
	if _, err := s.store.GetLote(ctx, sess, loteID); err != nil {
		return err
	}

	quando := time.Now().UTC()
	return s.inTx(ctx, sess, func(tx boil.ContextExecutor) error {
		afetados, err := s.store.MarcarPulado(ctx, tx, loteID, planoID, quando)
		if err != nil {
			return err
		}
		if afetados == 0 {
			return ErrItemNotFound
		}
		return nil
	})
}

// CloseResult reports what closing did.
type CloseResult struct {
	// JaFechado is set when the batch was already closed and the call became
	// a no-op.
	JaFechado bool `json:"ja_fechado"`
	// ItensPulados is how many pending items the close swept to PULADO.
	ItensPulados int64 `json:"itens_pulados"`
}

// Fechar closes a batch: whatever is still pending is swept to PULADO and
// the batch goes to FECHADO, in one transaction. Closing an already closed
// batch changes nothing and reports JaFechado.
func (s *Service) Fechar(ctx context.Context, sess Session, loteID string) (*CloseResult, error) {
	lote, err := s.store.GetLote(ctx, sess, loteID)
	if err != nil {
		return nil, err
	}
	if !lote.Aberto() {
		return &CloseResult{JaFechado: true}, nil
	}

	quando := time.Now().UTC()
	res := &CloseResult{}
	err = s.inTx(ctx, sess, func(tx boil.ContextExecutor) error {
		pulados, err := s.store.PularPendentes(ctx, tx, loteID, quando)
		if err != nil {
			return err
		}

		fechados, err := s.store.FecharLote(ctx, tx, loteID, quando)
		if err != nil {
			return err
		}
		if fechados == 0 {
			// Lost a close race since the read above.
			res.JaFechado = true
			return nil
		}

		res.ItensPulados = pulados
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.JaFechado {
		return res, nil
	}

	s.log.WithFields(logrus.Fields{
		"lote_id":       loteID,
		"usuario":       sess.Principal(),
		"itens_pulados": res.ItensPulados,
	}).Info("treatment batch closed")
	return res, nil
}

// RepararItensFechadosPendentes sweeps items left PENDENTE under batches
// that are already FECHADO, the leftovers of a close interrupted between its
// two statements before transactions fenced them. Safe to run repeatedly.
func (s *Service) RepararItensFechadosPendentes(ctx context.Context, sess Session) (int64, error) {
	var reparados int64
	err := s.inTx(ctx, sess, func(tx boil.ContextExecutor) error {
		n, err := s.store.RepararItensFechados(ctx, tx, time.Now().UTC())
		if err != nil {
			return err
		}
		reparados = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if reparados > 0 {
		s.log.WithField("itens", reparados).Warn("repaired pending items under closed batches")
	}
	return reparados, nil
}

func emTransacao(ctx context.Context, sess Session, fn func(tx boil.ContextExecutor) error) error {
	tx, err := sess.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "opening transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
