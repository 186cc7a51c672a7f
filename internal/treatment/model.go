// Package treatment implements the rescission work queues: batches of plans
// snapshotted per user and grid, and the item state machine operators walk
// while working through them.
package treatment

import (
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"github.com/credfolha/planos-backoffice/internal/paging"
)

// GradePassiveisRescisao is the grid of plans eligible for rescission, the
// only grid the backoffice operates today.
const GradePassiveisRescisao = "PASSIVEIS_RESCISAO"

// LoteStatus is the lifecycle state of a treatment batch.
type LoteStatus string

const (
	LoteAberto  LoteStatus = "ABERTO"
	LoteFechado LoteStatus = "FECHADO"
)

// ItemStatus is the state of one item inside a batch. Items start pending
// and leave through exactly one of the terminal states.
type ItemStatus string

const (
	ItemPendente   ItemStatus = "PENDENTE"
	ItemProcessado ItemStatus = "PROCESSADO"
	ItemPulado     ItemStatus = "PULADO"
)

// ParseItemStatus normalizes a status filter value. It reports false for
// values outside the known set.
func ParseItemStatus(raw string) (ItemStatus, bool) {
	switch ItemStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case ItemPendente:
		return ItemPendente, true
	case ItemProcessado:
		return ItemProcessado, true
	case ItemPulado:
		return ItemPulado, true
	}
	return "", false
}

// Lote is one treatment batch: a frozen snapshot of plans taken for one user
// and grid, with the filters that produced it kept for provenance.
type Lote struct {
	ID           string     `boil:"id" json:"id"`
	Usuario      string     `boil:"usuario" json:"usuario"`
	Grade        string     `boil:"grade" json:"grade"`
	Status       LoteStatus `boil:"status" json:"status"`
	FiltroOrigem null.JSON  `boil:"filtro_origem" json:"filtro_origem"`
	CriadoEm     time.Time  `boil:"criado_em" json:"criado_em"`
	FechadoEm    null.Time  `boil:"fechado_em" json:"fechado_em"`
}

// Aberto reports whether the batch still accepts item transitions.
func (l *Lote) Aberto() bool {
	return l.Status == LoteAberto
}

// ItemRow is the raw shape of one batch item as stored.
type ItemRow struct {
	ID           string              `boil:"id"`
	LoteID       string              `boil:"lote_id"`
	PlanoID      string              `boil:"plano_id"`
	NumeroPlano  string              `boil:"numero_plano"`
	Saldo        decimal.NullDecimal `boil:"saldo"`
	Status       ItemStatus          `boil:"status"`
	ProcessadoEm null.Time           `boil:"processado_em"`
}

// KeysetCursor returns the item's position in the batch listing order, which
// mirrors the management listing: balance descending, plan number ascending,
// null balances at the zero position.
func (r *ItemRow) KeysetCursor() paging.Cursor {
	saldo := decimal.Zero
	if r.Saldo.Valid {
		saldo = r.Saldo.Decimal
	}
	return paging.Cursor{Saldo: saldo, Numero: r.NumeroPlano}
}

// Item is the presentation shape of one batch item.
type Item struct {
	ID           string           `json:"id"`
	LoteID       string           `json:"lote_id"`
	PlanoID      string           `json:"plano_id"`
	NumeroPlano  string           `json:"numero_plano"`
	Saldo        *decimal.Decimal `json:"saldo"`
	Status       ItemStatus       `json:"status"`
	ProcessadoEm *time.Time       `json:"processado_em"`
}

// Project converts a stored item into its presentation shape.
func (r *ItemRow) Project() *Item {
	item := &Item{
		ID:          r.ID,
		LoteID:      r.LoteID,
		PlanoID:     r.PlanoID,
		NumeroPlano: strings.TrimSpace(r.NumeroPlano),
		Status:      r.Status,
	}

	if r.Saldo.Valid {
		saldo := r.Saldo.Decimal
		item.Saldo = &saldo
	}
	if r.ProcessadoEm.Valid {
		quando := r.ProcessadoEm.Time.UTC()
		item.ProcessadoEm = &quando
	}

	return item
}

// Tally counts a batch's items per state.
type Tally struct {
	Pendentes   int `json:"pendentes"`
	Processados int `json:"processados"`
	Pulados     int `json:"pulados"`
}

// Total returns the number of items in the batch.
func (t Tally) Total() int {
	return t.Pendentes + t.Processados + t.Pulados
}

// Of returns the tally for one state.
func (t Tally) Of(status ItemStatus) int {
	switch status {
	case ItemPendente:
		return t.Pendentes
	case ItemProcessado:
		return t.Processados
	case ItemPulado:
		return t.Pulados
	}
	return 0
}

// MigrateResult reports what a migration call did. Criado distinguishes a
// batch created by this call from an open batch that was reused.
type MigrateResult struct {
	LoteID string `boil:"lote_id" json:"lote_id"`
	Criado bool   `boil:"criado" json:"criado"`
	Itens  int    `boil:"itens" json:"itens"`
}
