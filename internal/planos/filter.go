package planos

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RawFilters carries the listing filters exactly as the transport received
// them. Every field is optional; normalization decides what survives.
type RawFilters struct {
	Situacoes  []string
	DiasMin    string
	SaldoFaixa string
	SaldoMin   string
	Periodo    string
	Busca      string
}

// TipoBusca tells which column family a free-text search targets.
type TipoBusca string

const (
	BuscaDocumento TipoBusca = "documento"
	BuscaNumero    TipoBusca = "numero"
	BuscaNome      TipoBusca = "nome"
)

// Registry types inferred from a document's digit count.
const (
	InscricaoCPF  = "CPF"
	InscricaoCEI  = "CEI"
	InscricaoCNPJ = "CNPJ"
)

// Busca is a normalized free-text search term.
type Busca struct {
	Tipo  TipoBusca
	Termo string

	// TipoInscricao is set on document searches whose digit count pins the
	// registry type, narrowing the match further.
	TipoInscricao string
}

// FaixaSaldo is a normalized balance range. Max only applies when HasMax is
// set; the top bucket and the minimum-floor filter are open ended.
type FaixaSaldo struct {
	Chave  string
	Min    decimal.Decimal
	Max    decimal.Decimal
	HasMax bool
}

// Periodo enumerates the relative date windows of the listing.
type Periodo string

const (
	PeriodoUltimos3Meses Periodo = "ULTIMOS_3_MESES"
	PeriodoUltimos2Meses Periodo = "ULTIMOS_2_MESES"
	PeriodoUltimoMes     Periodo = "ULTIMO_MES"
	PeriodoMesAtual      Periodo = "MES_ATUAL"
)

var periodosValidos = map[Periodo]struct{}{
	PeriodoUltimos3Meses: {},
	PeriodoUltimos2Meses: {},
	PeriodoUltimoMes:     {},
	PeriodoMesAtual:      {},
}

// faixasSaldo maps the balance bucket keys the dashboard offers onto their
// half-open ranges.
var faixasSaldo = map[string]FaixaSaldo{
	"ATE_10K":    {Chave: "ATE_10K", Min: decimal.Zero, Max: decimal.NewFromInt(10_000), HasMax: true},
	"10_50K":     {Chave: "10_50K", Min: decimal.NewFromInt(10_000), Max: decimal.NewFromInt(50_000), HasMax: true},
	"50_150K":    {Chave: "50_150K", Min: decimal.NewFromInt(50_000), Max: decimal.NewFromInt(150_000), HasMax: true},
	"150_500K":   {Chave: "150_500K", Min: decimal.NewFromInt(150_000), Max: decimal.NewFromInt(500_000), HasMax: true},
	"ACIMA_500K": {Chave: "ACIMA_500K", Min: decimal.NewFromInt(500_000)},
}

// diasMinPermitidos are the only overdue thresholds the days filter accepts,
// matching the options the dashboard offers.
var diasMinPermitidos = map[int]struct{}{90: {}, 100: {}, 120: {}}

// saldoMinPermitidos are the only floor values the minimum-balance filter
// accepts. Anything else is dropped rather than rejected.
var saldoMinPermitidos = []decimal.Decimal{
	decimal.NewFromInt(10_000),
	decimal.NewFromInt(50_000),
	decimal.NewFromInt(150_000),
	decimal.NewFromInt(500_000),
	decimal.NewFromInt(1_000_000),
}

// FilterSet is the normalized form of a listing request's filters. Zero
// values mean "not filtered".
type FilterSet struct {
	Situacoes []Situacao
	DiasMin   int
	Faixa     *FaixaSaldo
	Periodo   Periodo
	Busca     *Busca
}

// ParseFilters normalizes raw filter input. Unknown or out-of-range values
// are dropped silently; a filter that survives always has a well-defined SQL
// translation. When both a balance bucket and a minimum floor arrive, the
// bucket wins and the floor is ignored.
func ParseFilters(raw RawFilters) FilterSet {
	var f FilterSet

	seen := map[Situacao]struct{}{}
	for _, s := range raw.Situacoes {
		code, ok := ParseSituacao(s)
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		f.Situacoes = append(f.Situacoes, code)
	}

	if dias, err := strconv.Atoi(strings.TrimSpace(raw.DiasMin)); err == nil {
		if _, ok := diasMinPermitidos[dias]; ok {
			f.DiasMin = dias
		}
	}

	if faixa, ok := faixasSaldo[normalizarChave(raw.SaldoFaixa)]; ok {
		f.Faixa = &faixa
	} else if min, ok := parseSaldoMin(raw.SaldoMin); ok {
		f.Faixa = &FaixaSaldo{Chave: "MIN_" + min.String(), Min: min}
	}

	if periodo := Periodo(normalizarChave(raw.Periodo)); periodo != "" {
		if _, ok := periodosValidos[periodo]; ok {
			f.Periodo = periodo
		}
	}

	f.Busca = parseBusca(raw.Busca)

	return f
}

func normalizarChave(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func parseSaldoMin(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, false
	}
	min, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	for _, permitido := range saldoMinPermitidos {
		if min.Equal(permitido) {
			return permitido, true
		}
	}
	return decimal.Decimal{}, false
}

// parseBusca classifies a free-text term by its digit content: registry
// document digit counts (11 CPF, 12 CEI, 14 CNPJ) target the document
// column, other all-digit terms target the plan number, and the rest match
// the company name.
func parseBusca(raw string) *Busca {
	termo := strings.TrimSpace(raw)
	if termo == "" {
		return nil
	}

	digits := somenteDigitos(termo)
	switch len(digits) {
	case 11:
		return &Busca{Tipo: BuscaDocumento, Termo: digits, TipoInscricao: InscricaoCPF}
	case 12:
		return &Busca{Tipo: BuscaDocumento, Termo: digits, TipoInscricao: InscricaoCEI}
	case 14:
		return &Busca{Tipo: BuscaDocumento, Termo: digits, TipoInscricao: InscricaoCNPJ}
	}

	if digits != "" && len(digits) == len(termo) {
		return &Busca{Tipo: BuscaNumero, Termo: termo}
	}

	return &Busca{Tipo: BuscaNome, Termo: termo}
}

func somenteDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsZero reports whether no filter survived normalization.
func (f FilterSet) IsZero() bool {
	return len(f.Situacoes) == 0 && f.DiasMin == 0 && f.Faixa == nil && f.Periodo == "" && f.Busca == nil
}

// Signature renders a canonical key for the filter set. Equal filter sets
// produce equal signatures regardless of input order, which keys the count
// cache and tags log lines.
func (f FilterSet) Signature() string {
	var parts []string

	if len(f.Situacoes) > 0 {
		codes := make([]string, len(f.Situacoes))
		for i, s := range f.Situacoes {
			codes[i] = string(s)
		}
		sort.Strings(codes)
		parts = append(parts, "sit="+strings.Join(codes, ","))
	}
	if f.DiasMin > 0 {
		parts = append(parts, fmt.Sprintf("dias=%d", f.DiasMin))
	}
	if f.Faixa != nil {
		parts = append(parts, "saldo="+f.Faixa.Chave)
	}
	if f.Periodo != "" {
		parts = append(parts, "periodo="+string(f.Periodo))
	}
	if f.Busca != nil {
		parts = append(parts, fmt.Sprintf("busca=%s:%s", f.Busca.Tipo, f.Busca.Termo))
	}

	if len(parts) == 0 {
		return "sem_filtros"
	}
	return strings.Join(parts, "|")
}

type filtroJSON struct {
	Situacoes []Situacao       `json:"situacoes,omitempty"`
	DiasMin   int              `json:"dias_min,omitempty"`
	SaldoMin  *decimal.Decimal `json:"saldo_min,omitempty"`
	SaldoMax  *decimal.Decimal `json:"saldo_max,omitempty"`
	Periodo   Periodo          `json:"periodo,omitempty"`
	Busca     *buscaJSON       `json:"busca,omitempty"`
}

type buscaJSON struct {
	Tipo          TipoBusca `json:"tipo"`
	Termo         string    `json:"termo"`
	TipoInscricao string    `json:"tipo_inscricao,omitempty"`
}

// ToJSON serializes the filter set in the shape stored as a treatment
// batch's originating filters and passed to the migration procedure.
func (f FilterSet) ToJSON() ([]byte, error) {
	out := filtroJSON{
		Situacoes: f.Situacoes,
		DiasMin:   f.DiasMin,
		Periodo:   f.Periodo,
	}
	if f.Faixa != nil {
		min := f.Faixa.Min
		out.SaldoMin = &min
		if f.Faixa.HasMax {
			max := f.Faixa.Max
			out.SaldoMax = &max
		}
	}
	if f.Busca != nil {
		out.Busca = &buscaJSON{
			Tipo:          f.Busca.Tipo,
			Termo:         f.Busca.Termo,
			TipoInscricao: f.Busca.TipoInscricao,
		}
	}
	return json.Marshal(out)
}
