package paging

import (
	"fmt"
	"strings"
)

// Direction selects which way a keyset fetch walks the listing order.
type Direction int

const (
	// Forward fetches the rows that follow the cursor in display order.
	Forward Direction = iota

	// Backward fetches the rows that precede the cursor. The physical query
	// runs with the sort inverted, and the fetcher reverses the batch in
	// memory to restore display order.
	Backward
)

// ParseDirection maps the direcao query parameter onto a Direction.
// Anything other than "anterior" walks forward.
func ParseDirection(raw string) Direction {
	if strings.EqualFold(strings.TrimSpace(raw), "anterior") {
		return Backward
	}
	return Forward
}

// KeysetOrder names the SQL expressions of the two-column listing order.
// The expressions are embedded verbatim in ORDER BY and in the seek
// comparison, so they may carry a table alias or a COALESCE wrapper.
type KeysetOrder struct {
	SaldoExpr  string
	NumeroExpr string
}

// OrderClause renders the ORDER BY expression for dir. Display order is
// balance descending, plan number ascending; Backward flips both so the
// query walks toward earlier pages.
func (o KeysetOrder) OrderClause(dir Direction) string {
	if dir == Backward {
		return fmt.Sprintf("%s ASC, %s DESC", o.SaldoExpr, o.NumeroExpr)
	}
	return fmt.Sprintf("%s DESC, %s ASC", o.SaldoExpr, o.NumeroExpr)
}

// SeekClause renders the keyset comparison that resumes a walk at cur.
//
// The expanded form is used rather than a tuple comparison because the two
// order columns sort in opposite directions:
//
//	forward:  (saldo < $n OR (saldo = $n AND numero > $n))
//	backward: (saldo > $n OR (saldo = $n AND numero < $n))
//
// Placeholders are numbered starting at startIndex so the clause can be
// appended after a filter predicate that already bound $1..$(startIndex-1).
func (o KeysetOrder) SeekClause(cur Cursor, dir Direction, startIndex int) (string, []any) {
	saldoOp, numeroOp := "<", ">"
	if dir == Backward {
		saldoOp, numeroOp = ">", "<"
	}

	clause := fmt.Sprintf("(%s %s $%d OR (%s = $%d AND %s %s $%d))",
		o.SaldoExpr, saldoOp, startIndex,
		o.SaldoExpr, startIndex+1,
		o.NumeroExpr, numeroOp, startIndex+2,
	)
	args := []any{cur.Saldo, cur.Saldo, cur.Numero}

	return clause, args
}
