package treatment

import (
	"context"
	"fmt"
	"time"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/friendsofgo/errors"

	"github.com/credfolha/planos-backoffice/internal/paging"
	"github.com/credfolha/planos-backoffice/internal/pgdb"
)

// itemOrder is the fixed listing order of batch items, mirroring the
// management listing.
var itemOrder = paging.KeysetOrder{
	SaldoExpr:  "COALESCE(i.saldo, 0)",
	NumeroExpr: "i.numero_plano",
}

const loteColumns = "l.id, l.usuario, l.grade, l.status, l.filtro_origem, l.criado_em, l.fechado_em"

const itemColumns = "i.id, i.lote_id, i.plano_id, i.numero_plano, i.saldo, i.status, i.processado_em"

// usuarioSessao is the SQL expression for the user bound to the session.
// Row level security already scopes what the session can see; the explicit
// comparison keeps ownership checks visible in the statements that demand
// them.
const usuarioSessao = "core_usuario_sessao()"

// Repository runs the treatment SQL on a caller-provided executor, so the
// service can route reads through the session and writes through its
// transactions.
type Repository struct{}

// OpenLote returns the session user's open batch for grade, or nil when
// there is none.
func (Repository) OpenLote(ctx context.Context, exec boil.ContextExecutor, grade string) (*Lote, error) {
	query := "SELECT " + loteColumns + " FROM tratamento_lotes l" +
		" WHERE l.usuario = " + usuarioSessao + " AND l.grade = $1 AND l.status = $2"

	var lotes []*Lote
	if err := queries.Raw(query, grade, string(LoteAberto)).Bind(ctx, exec, &lotes); err != nil {
		return nil, errors.Wrap(err, "loading open batch")
	}
	if len(lotes) == 0 {
		return nil, nil
	}
	return lotes[0], nil
}

// GetLote loads one batch by id, scoped to the session user.
func (Repository) GetLote(ctx context.Context, exec boil.ContextExecutor, loteID string) (*Lote, error) {
	query := "SELECT " + loteColumns + " FROM tratamento_lotes l" +
		" WHERE l.id = $1 AND l.usuario = " + usuarioSessao

	var lotes []*Lote
	if err := queries.Raw(query, loteID).Bind(ctx, exec, &lotes); err != nil {
		return nil, errors.Wrap(err, "loading batch")
	}
	if len(lotes) == 0 {
		return nil, ErrLoteNotFound
	}
	return lotes[0], nil
}

// Migrar snapshots the eligible plans into a treatment batch through
// fn_migrar_planos. The procedure applies the grid's implicit criteria on
// top of the caller's filters, reuses an open batch when one exists, and
// settles concurrent calls on the open-batch unique index.
func (Repository) Migrar(ctx context.Context, exec boil.ContextExecutor, grade string, filtros []byte) (*MigrateResult, error) {
	var res MigrateResult
	err := queries.Raw("SELECT * FROM fn_migrar_planos($1, $2::jsonb)", grade, string(filtros)).
		Bind(ctx, exec, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ContarPorStatus tallies a batch's items per state.
func (Repository) ContarPorStatus(ctx context.Context, exec boil.ContextExecutor, loteID string) (Tally, error) {
	var linhas []*struct {
		Status ItemStatus `boil:"status"`
		Total  int        `boil:"total"`
	}

	query := "SELECT i.status, count(*) AS total FROM tratamento_itens i WHERE i.lote_id = $1 GROUP BY i.status"
	if err := queries.Raw(query, loteID).Bind(ctx, exec, &linhas); err != nil {
		return Tally{}, errors.Wrap(err, "tallying batch items")
	}

	var tally Tally
	for _, linha := range linhas {
		switch linha.Status {
		case ItemPendente:
			tally.Pendentes = linha.Total
		case ItemProcessado:
			tally.Processados = linha.Total
		case ItemPulado:
			tally.Pulados = linha.Total
		}
	}
	return tally, nil
}

// ItemPage is one fetched page of batch items in display order.
type ItemPage struct {
	Rows    []*ItemRow
	HasMore bool
}

// ListItems returns one keyset page of a batch's items, optionally filtered
// by state. It over-fetches one sentinel row for has_more and restores
// display order on backward walks, exactly like the management listing.
func (Repository) ListItems(ctx context.Context, exec boil.ContextExecutor, loteID string, status ItemStatus, args paging.PageArgs) (*ItemPage, error) {
	limit := args.EffectiveLimit()

	where := "i.lote_id = $1"
	queryArgs := []any{loteID}

	if status != "" {
		queryArgs = append(queryArgs, string(status))
		where += fmt.Sprintf(" AND i.status = $%d", len(queryArgs))
	}

	if cur, ok := paging.DecodeCursor(args.Cursor); ok {
		seek, seekArgs := itemOrder.SeekClause(cur, args.Direction, len(queryArgs)+1)
		where += " AND " + seek
		queryArgs = append(queryArgs, seekArgs...)
	}

	query := "SELECT " + itemColumns + " FROM tratamento_itens i WHERE " + where +
		" ORDER BY " + itemOrder.OrderClause(args.Direction) +
		fmt.Sprintf(" LIMIT %d", limit+1)

	var rows []*ItemRow
	if err := queries.Raw(query, queryArgs...).Bind(ctx, exec, &rows); err != nil {
		return nil, errors.Wrap(err, "listing batch items")
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	if args.Direction == paging.Backward {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	return &ItemPage{Rows: rows, HasMore: hasMore}, nil
}

// MarcarProcessado transitions one pending item to processed. The pending
// guard makes the update a no-op when the item already left the state, and
// the returned count tells the caller which case it hit.
func (Repository) MarcarProcessado(ctx context.Context, exec boil.ContextExecutor, loteID, planoID string, quando time.Time) (int64, error) {
	res, err := exec.ExecContext(ctx,
		"UPDATE tratamento_itens SET status = $1, processado_em = $2 WHERE lote_id = $3 AND plano_id = $4 AND status = $5",
		string(ItemProcessado), quando, loteID, planoID, string(ItemPendente),
	)
	if err != nil {
		return 0, errors.Wrap(err, "marking item processed")
	}
	return res.RowsAffected()
}

// MarcarPulado transitions one pending item to skipped.
func (Repository) MarcarPulado(ctx context.Context, exec boil.ContextExecutor, loteID, planoID string, quando time.Time) (int64, error) {
	res, err := exec.ExecContext(ctx,
		"UPDATE tratamento_itens SET status = $1, processado_em = $2 WHERE lote_id = $3 AND plano_id = $4 AND status = $5",
		string(ItemPulado), quando, loteID, planoID, string(ItemPendente),
	)
	if err != nil {
		return 0, errors.Wrap(err, "marking item skipped")
	}
	return res.RowsAffected()
}

// PularPendentes skips everything still pending in a batch, returning how
// many items moved.
func (Repository) PularPendentes(ctx context.Context, exec boil.ContextExecutor, loteID string, quando time.Time) (int64, error) {
	res, err := exec.ExecContext(ctx,
		"UPDATE tratamento_itens SET status = $1, processado_em = $2 WHERE lote_id = $3 AND status = $4",
		string(ItemPulado), quando, loteID, string(ItemPendente),
	)
	if err != nil {
		return 0, errors.Wrap(err, "skipping pending items")
	}
	return res.RowsAffected()
}

// FecharLote closes an open batch owned by the session user. Zero rows means
// the batch is already closed or not owned.
func (Repository) FecharLote(ctx context.Context, exec boil.ContextExecutor, loteID string, quando time.Time) (int64, error) {
	res, err := exec.ExecContext(ctx,
		"UPDATE tratamento_lotes SET status = $1, fechado_em = $2"+
			" WHERE id = $3 AND usuario = "+usuarioSessao+" AND status = $4",
		string(LoteFechado), quando, loteID, string(LoteAberto),
	)
	if err != nil {
		return 0, errors.Wrap(err, "closing batch")
	}
	return res.RowsAffected()
}

// RepararItensFechados skips every pending item that belongs to an already
// closed batch. Interrupted closes leave this inconsistency behind; the
// repair is idempotent and visibility is scoped by the session it runs on.
func (Repository) RepararItensFechados(ctx context.Context, exec boil.ContextExecutor, quando time.Time) (int64, error) {
	res, err := exec.ExecContext(ctx,
		"UPDATE tratamento_itens i SET status = $1, processado_em = $2"+
			" FROM tratamento_lotes l WHERE i.lote_id = l.id AND l.status = $3 AND i.status = $4",
		string(ItemPulado), quando, string(LoteFechado), string(ItemPendente),
	)
	if err != nil {
		return 0, errors.Wrap(err, "repairing closed batches")
	}
	return res.RowsAffected()
}

// RescindirPlano runs the rescission procedure for one batch item. The
// procedure's return shape varies across schema versions, so the scalar goes
// through the success coercion; only an explicit refusal comes back false.
func (Repository) RescindirPlano(ctx context.Context, exec boil.ContextExecutor, loteID, planoID string, quando time.Time) (bool, error) {
	var resultado any
	err := exec.QueryRowContext(ctx, "SELECT fn_rescindir_item($1, $2, $3)", loteID, planoID, quando).Scan(&resultado)
	if err != nil {
		return false, errors.Wrap(err, "calling rescission procedure")
	}
	return pgdb.CoerceSuccess(resultado), nil
}
