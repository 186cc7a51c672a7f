package planos

import (
	"context"
	"fmt"

	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/friendsofgo/errors"

	"github.com/credfolha/planos-backoffice/internal/paging"
)

// viewAlias is the alias the listing queries give the management view.
const viewAlias = "t"

// ListingOrder is the fixed keyset order of the management listing: balance
// descending with the plan number breaking ties ascending. Null balances are
// coalesced to zero so they sort together at the tail.
var ListingOrder = paging.KeysetOrder{
	SaldoExpr:  "COALESCE(t.saldo_total, 0)",
	NumeroExpr: "t.numero_plano",
}

const planColumns = "t.plano_id, t.numero_plano, t.documento, t.tipo_inscricao, t.razao_social, " +
	"t.situacao, t.dias_atraso, t.saldo_total, t.data_situacao, t.fila_rescisao, t.fila_bloqueio, " +
	"t.fila_notificacao, t.bloqueado, t.data_bloqueio, t.data_desbloqueio, t.motivo_bloqueio"

const planBaseQuery = "SELECT " + planColumns + " FROM vw_planos_gestao t"

// RowQuerier runs a listing query and binds the result set. The default goes
// through sqlboiler's raw binding; tests swap in canned rows.
type RowQuerier func(ctx context.Context, exec boil.ContextExecutor, query string, args ...any) ([]*PlanRow, error)

func bindPlanRows(ctx context.Context, exec boil.ContextExecutor, query string, args ...any) ([]*PlanRow, error) {
	var rows []*PlanRow
	if err := queries.Raw(query, args...).Bind(ctx, exec, &rows); err != nil {
		return nil, errors.Wrap(err, "listing plans")
	}
	return rows, nil
}

// Page is one fetched page of view rows, always in display order.
type Page struct {
	Rows    []*PlanRow
	HasMore bool
}

// PageFetcher runs the listing queries for both paging modes.
type PageFetcher struct {
	querier RowQuerier
}

func NewPageFetcher() *PageFetcher {
	return &PageFetcher{querier: bindPlanRows}
}

// WithQuerier replaces the row querier and returns the fetcher. Tests use it
// to capture the generated SQL and feed canned rows.
func (f *PageFetcher) WithQuerier(q RowQuerier) *PageFetcher {
	f.querier = q
	return f
}

// FetchKeyset returns one keyset page for pred starting at the request's
// cursor. It fetches one row beyond the page size; that sentinel row only
// signals that another page exists and is trimmed from the result. Backward
// requests run with the sort inverted and the batch is reversed in memory
// afterwards, so callers always receive display order.
//
// A missing or malformed cursor starts from the beginning of the walk: the
// first page forward, the last page backward.
func (f *PageFetcher) FetchKeyset(ctx context.Context, exec boil.ContextExecutor, pred *Predicate, args paging.PageArgs) (*Page, error) {
	limit := args.EffectiveLimit()

	where := pred.Clause()
	queryArgs := append([]any{}, pred.Args()...)

	if cur, ok := paging.DecodeCursor(args.Cursor); ok {
		seek, seekArgs := ListingOrder.SeekClause(cur, args.Direction, pred.NextIndex())
		if where == "" {
			where = seek
		} else {
			where += " AND " + seek
		}
		queryArgs = append(queryArgs, seekArgs...)
	}

	query := planBaseQuery
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY " + ListingOrder.OrderClause(args.Direction)
	query += fmt.Sprintf(" LIMIT %d", limit+1)

	rows, err := f.querier(ctx, exec, query, queryArgs...)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	if args.Direction == paging.Backward {
		inverterLinhas(rows)
	}

	return &Page{Rows: rows, HasMore: hasMore}, nil
}

// FetchOffset returns one legacy offset page. The sentinel row plays the
// same role as in keyset mode, so has_more never depends on the count query.
func (f *PageFetcher) FetchOffset(ctx context.Context, exec boil.ContextExecutor, pred *Predicate, args paging.PageArgs) (*Page, error) {
	limit := args.EffectiveLimit()

	query := planBaseQuery
	if clause := pred.Clause(); clause != "" {
		query += " WHERE " + clause
	}
	query += " ORDER BY " + ListingOrder.OrderClause(paging.Forward)
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit+1, args.Offset())

	rows, err := f.querier(ctx, exec, query, pred.Args()...)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	return &Page{Rows: rows, HasMore: hasMore}, nil
}

func inverterLinhas(rows []*PlanRow) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}
