package httpapi

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/credfolha/planos-backoffice/internal/paging"
	"github.com/credfolha/planos-backoffice/internal/planos"
)

func rawFiltersFromQuery(c *gin.Context) planos.RawFilters {
	return planos.RawFilters{
		Situacoes:  c.QueryArray("situacao"),
		DiasMin:    c.Query("dias_min"),
		SaldoFaixa: c.Query("faixa_saldo"),
		SaldoMin:   c.Query("saldo_min"),
		Periodo:    c.Query("periodo"),
		Busca:      c.Query("busca"),
	}
}

// pageArgsFromQuery reads the paging controls. A cursor always wins: the
// page number then only describes where the client believes it is, returned
// as displayPage so keyset responses can keep the visible range counter
// running.
func pageArgsFromQuery(c *gin.Context) (args paging.PageArgs, displayPage int) {
	args = paging.PageArgs{
		PageSize:  atoiOrZero(c.Query("page_size")),
		Cursor:    c.Query("cursor"),
		Direction: paging.ParseDirection(c.Query("direcao")),
	}

	displayPage = atoiOrZero(c.Query("page"))
	if args.Cursor == "" {
		args.Page = displayPage
	}
	return args, displayPage
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// fillShowingRange back-fills the 1-based display ordinals on a keyset page
// from the client-reported page number.
func fillShowingRange(meta *paging.Meta, page, rowCount int) {
	if page <= 0 || rowCount == 0 {
		return
	}
	from := (page-1)*meta.PageSize + 1
	to := from + rowCount - 1
	meta.ShowingFrom = &from
	meta.ShowingTo = &to
}
