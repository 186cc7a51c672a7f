package planos

import (
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/strmangle"
)

// Predicate is a parameterized WHERE fragment plus its bound arguments, with
// placeholders numbered from $1. The page query and the count query embed
// the same Predicate, so both bind exactly the same argument list in the
// same order.
type Predicate struct {
	clauses []string
	args    []any
}

// Clause returns the AND-joined fragment. It is empty when no filter
// survived normalization, in which case callers omit the WHERE entirely.
func (p *Predicate) Clause() string {
	return strings.Join(p.clauses, " AND ")
}

// Args returns the bound arguments in placeholder order.
func (p *Predicate) Args() []any {
	return p.args
}

// NextIndex returns the number of the next free placeholder so follow-up
// clauses, like the keyset seek, can continue the numbering.
func (p *Predicate) NextIndex() int {
	return len(p.args) + 1
}

// bind appends one argument and returns its placeholder.
func (p *Predicate) bind(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

func (p *Predicate) add(clause string) {
	p.clauses = append(p.clauses, clause)
}

// BuildPredicate translates a normalized filter set into SQL conditions over
// the management view aliased as alias. now anchors the relative date
// filters; callers pass one instant per request so the page and count
// queries see the same cutoffs.
func BuildPredicate(f FilterSet, alias string, now time.Time) *Predicate {
	p := &Predicate{}
	col := func(name string) string { return alias + "." + name }

	if f.Busca != nil {
		switch f.Busca.Tipo {
		case BuscaDocumento:
			cond := fmt.Sprintf("regexp_replace(%s, '[^0-9]', '', 'g') = %s",
				col("documento"), p.bind(f.Busca.Termo))
			if f.Busca.TipoInscricao != "" {
				cond = fmt.Sprintf("(%s AND %s = %s)", cond, col("tipo_inscricao"), p.bind(f.Busca.TipoInscricao))
			}
			p.add(cond)
		case BuscaNumero:
			numero := col("numero_plano")
			p.add(fmt.Sprintf("(%s = %s OR %s LIKE %s)",
				numero, p.bind(f.Busca.Termo), numero, p.bind(f.Busca.Termo+"%")))
		case BuscaNome:
			p.add(fmt.Sprintf("%s ILIKE %s", col("razao_social"), p.bind("%"+f.Busca.Termo+"%")))
		}
	}

	if len(f.Situacoes) > 0 {
		placeholders := strmangle.Placeholders(true, len(f.Situacoes), p.NextIndex(), 1)
		for _, s := range f.Situacoes {
			p.args = append(p.args, string(s))
		}
		p.add(fmt.Sprintf("%s IN (%s)", col("situacao"), placeholders))
	}

	if f.DiasMin > 0 {
		cutoff := inicioDoDia(now).AddDate(0, 0, -f.DiasMin)
		p.add(fmt.Sprintf("%s <= %s", col("data_situacao"), p.bind(cutoff)))
	}

	if f.Faixa != nil {
		saldo := fmt.Sprintf("COALESCE(%s, 0)", col("saldo_total"))
		cond := fmt.Sprintf("%s >= %s", saldo, p.bind(f.Faixa.Min))
		if f.Faixa.HasMax {
			cond = fmt.Sprintf("(%s AND %s < %s)", cond, saldo, p.bind(f.Faixa.Max))
		}
		p.add(cond)
	}

	if f.Periodo != "" {
		data := col("data_situacao")
		inicioMes := inicioDoMes(now)
		switch f.Periodo {
		case PeriodoMesAtual:
			p.add(fmt.Sprintf("%s >= %s", data, p.bind(inicioMes)))
		case PeriodoUltimoMes:
			p.add(fmt.Sprintf("(%s >= %s AND %s < %s)",
				data, p.bind(inicioMes.AddDate(0, -1, 0)), data, p.bind(inicioMes)))
		case PeriodoUltimos2Meses:
			p.add(fmt.Sprintf("%s >= %s", data, p.bind(inicioMes.AddDate(0, -2, 0))))
		case PeriodoUltimos3Meses:
			p.add(fmt.Sprintf("%s >= %s", data, p.bind(inicioMes.AddDate(0, -3, 0))))
		}
	}

	return p
}

func inicioDoDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func inicioDoMes(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
