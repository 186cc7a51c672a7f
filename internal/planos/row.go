package planos

import (
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"github.com/credfolha/planos-backoffice/internal/paging"
)

// PlanRow is the raw shape of one row of the management view
// vw_planos_gestao. Bind tags follow the view's column names.
type PlanRow struct {
	PlanoID         string              `boil:"plano_id"`
	NumeroPlano     string              `boil:"numero_plano"`
	Documento       null.String         `boil:"documento"`
	TipoInscricao   null.String         `boil:"tipo_inscricao"`
	RazaoSocial     null.String         `boil:"razao_social"`
	Situacao        null.String         `boil:"situacao"`
	DiasAtraso      null.Int            `boil:"dias_atraso"`
	SaldoTotal      decimal.NullDecimal `boil:"saldo_total"`
	DataSituacao    null.Time           `boil:"data_situacao"`
	FilaRescisao    null.Bool           `boil:"fila_rescisao"`
	FilaBloqueio    null.Bool           `boil:"fila_bloqueio"`
	FilaNotificacao null.Bool           `boil:"fila_notificacao"`
	Bloqueado       null.Bool           `boil:"bloqueado"`
	DataBloqueio    null.Time           `boil:"data_bloqueio"`
	DataDesbloqueio null.Time           `boil:"data_desbloqueio"`
	MotivoBloqueio  null.String         `boil:"motivo_bloqueio"`
}

// KeysetCursor returns the row's position in the listing order. Rows without
// a balance take the zero position, mirroring the COALESCE in the ORDER BY.
func (r *PlanRow) KeysetCursor() paging.Cursor {
	saldo := decimal.Zero
	if r.SaldoTotal.Valid {
		saldo = r.SaldoTotal.Decimal
	}
	return paging.Cursor{Saldo: saldo, Numero: r.NumeroPlano}
}

// Plan is the presentation shape of one listing row. Nullable columns stay
// nullable in JSON; the dashboard decides how to render the gaps.
type Plan struct {
	PlanoID         string           `json:"plano_id"`
	NumeroPlano     string           `json:"numero_plano"`
	Documento       *string          `json:"documento"`
	TipoInscricao   *string          `json:"tipo_inscricao"`
	RazaoSocial     *string          `json:"razao_social"`
	Situacao        string           `json:"situacao"`
	Ocorrencia      bool             `json:"ocorrencia"`
	DiasAtraso      *int             `json:"dias_atraso"`
	SaldoTotal      *decimal.Decimal `json:"saldo_total"`
	DataSituacao    *time.Time       `json:"data_situacao"`
	FilaRescisao    bool             `json:"fila_rescisao"`
	FilaBloqueio    bool             `json:"fila_bloqueio"`
	FilaNotificacao bool             `json:"fila_notificacao"`
	EmTratamento    bool             `json:"em_tratamento"`
	Bloqueado       bool             `json:"bloqueado"`
	DataBloqueio    *time.Time       `json:"data_bloqueio"`
	DataDesbloqueio *time.Time       `json:"data_desbloqueio"`
	MotivoBloqueio  *string          `json:"motivo_bloqueio"`
}

// Project converts a view row into its presentation shape: situation text is
// classified onto the canonical codes, documents are reduced to digits, day
// counts outside the valid range become null and timestamps are normalized
// to UTC.
func (r *PlanRow) Project() *Plan {
	p := &Plan{
		PlanoID:     r.PlanoID,
		NumeroPlano: strings.TrimSpace(r.NumeroPlano),
	}

	p.Documento = projetarDocumento(r.Documento)
	p.TipoInscricao = textoOuNulo(r.TipoInscricao)
	p.RazaoSocial = textoOuNulo(r.RazaoSocial)

	if r.Situacao.Valid {
		p.Situacao = ClassificarSituacao(r.Situacao.String)
		p.Ocorrencia = EhOcorrencia(r.Situacao.String)
	}

	if r.DiasAtraso.Valid && r.DiasAtraso.Int >= 0 {
		dias := r.DiasAtraso.Int
		p.DiasAtraso = &dias
	}

	if r.SaldoTotal.Valid {
		saldo := r.SaldoTotal.Decimal
		p.SaldoTotal = &saldo
	}

	p.DataSituacao = dataUTCOuNula(r.DataSituacao)
	p.FilaRescisao = r.FilaRescisao.Valid && r.FilaRescisao.Bool
	p.FilaBloqueio = r.FilaBloqueio.Valid && r.FilaBloqueio.Bool
	p.FilaNotificacao = r.FilaNotificacao.Valid && r.FilaNotificacao.Bool
	// Membership in any of the three work queues marks the plan as under
	// treatment.
	p.EmTratamento = p.FilaRescisao || p.FilaBloqueio || p.FilaNotificacao
	p.Bloqueado = r.Bloqueado.Valid && r.Bloqueado.Bool
	p.DataBloqueio = dataUTCOuNula(r.DataBloqueio)
	p.DataDesbloqueio = dataUTCOuNula(r.DataDesbloqueio)
	p.MotivoBloqueio = textoOuNulo(r.MotivoBloqueio)

	return p
}

// projetarDocumento keeps the digits of a stored document. Documents with no
// digits at all fall back to the trimmed raw text rather than disappearing.
func projetarDocumento(v null.String) *string {
	if !v.Valid {
		return nil
	}
	if digits := somenteDigitos(v.String); digits != "" {
		return &digits
	}
	if trimmed := strings.TrimSpace(v.String); trimmed != "" {
		return &trimmed
	}
	return nil
}

func textoOuNulo(v null.String) *string {
	if !v.Valid {
		return nil
	}
	s := strings.TrimSpace(v.String)
	if s == "" {
		return nil
	}
	return &s
}

func dataUTCOuNula(v null.Time) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}
