package treatment_test

import (
	"time"

	"github.com/aarondl/null/v8"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/credfolha/planos-backoffice/internal/treatment"
)

var _ = Describe("Batch model", func() {
	DescribeTable("parsing item status filters",
		func(raw string, want treatment.ItemStatus, ok bool) {
			got, gotOK := treatment.ParseItemStatus(raw)
			Expect(gotOK).To(Equal(ok))
			Expect(got).To(Equal(want))
		},
		Entry("canonical", "PENDENTE", treatment.ItemPendente, true),
		Entry("lower case", "processado", treatment.ItemProcessado, true),
		Entry("padded", "  pulado  ", treatment.ItemPulado, true),
		Entry("unknown", "cancelado", treatment.ItemStatus(""), false),
		Entry("empty", "", treatment.ItemStatus(""), false),
	)

	It("reports whether a batch is still open", func() {
		aberto := &treatment.Lote{Status: treatment.LoteAberto}
		fechado := &treatment.Lote{Status: treatment.LoteFechado}

		Expect(aberto.Aberto()).To(BeTrue())
		Expect(fechado.Aberto()).To(BeFalse())
	})

	Describe("item projection", func() {
		It("keeps the stored values and normalizes timestamps to UTC", func() {
			saoPaulo := time.FixedZone("America/Sao_Paulo", -3*60*60)
			row := &treatment.ItemRow{
				ID:           "i1",
				LoteID:       "l1",
				PlanoID:      "p1",
				NumeroPlano:  "  0012345678  ",
				Saldo:        decimal.NewNullDecimal(decimal.RequireFromString("1234.56")),
				Status:       treatment.ItemProcessado,
				ProcessadoEm: null.TimeFrom(time.Date(2025, 7, 15, 10, 30, 0, 0, saoPaulo)),
			}

			item := row.Project()

			Expect(item.NumeroPlano).To(Equal("0012345678"))
			Expect(item.Saldo).ToNot(BeNil())
			Expect(item.Saldo.String()).To(Equal("1234.56"))
			Expect(item.ProcessadoEm).ToNot(BeNil())
			Expect(item.ProcessadoEm.Location()).To(Equal(time.UTC))
			Expect(item.ProcessadoEm.Hour()).To(Equal(13))
		})

		It("leaves absent balance and timestamp as nulls", func() {
			item := (&treatment.ItemRow{Status: treatment.ItemPendente}).Project()

			Expect(item.Saldo).To(BeNil())
			Expect(item.ProcessadoEm).To(BeNil())
		})
	})

	Describe("keyset position", func() {
		It("uses the stored balance and plan number", func() {
			row := &treatment.ItemRow{
				NumeroPlano: "0099",
				Saldo:       decimal.NewNullDecimal(decimal.NewFromInt(500)),
			}

			cur := row.KeysetCursor()
			Expect(cur.Saldo.Equal(decimal.NewFromInt(500))).To(BeTrue())
			Expect(cur.Numero).To(Equal("0099"))
		})

		It("places a null balance at the zero position", func() {
			cur := (&treatment.ItemRow{NumeroPlano: "0100"}).KeysetCursor()
			Expect(cur.Saldo.IsZero()).To(BeTrue())
		})
	})

	Describe("tallies", func() {
		tally := treatment.Tally{Pendentes: 3, Processados: 2, Pulados: 1}

		It("totals across states", func() {
			Expect(tally.Total()).To(Equal(6))
		})

		It("answers per state", func() {
			Expect(tally.Of(treatment.ItemPendente)).To(Equal(3))
			Expect(tally.Of(treatment.ItemProcessado)).To(Equal(2))
			Expect(tally.Of(treatment.ItemPulado)).To(Equal(1))
			Expect(tally.Of(treatment.ItemStatus("OUTRO"))).To(BeZero())
		})
	})
})
