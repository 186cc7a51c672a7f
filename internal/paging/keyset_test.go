package paging_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/credfolha/planos-backoffice/internal/paging"
)

var _ = Describe("Keyset clauses", func() {
	order := paging.KeysetOrder{
		SaldoExpr:  "COALESCE(t.saldo_total, 0)",
		NumeroExpr: "t.numero_plano",
	}

	Describe("OrderClause", func() {
		It("renders display order when walking forward", func() {
			clause := order.OrderClause(paging.Forward)
			Expect(clause).To(Equal("COALESCE(t.saldo_total, 0) DESC, t.numero_plano ASC"))
		})

		It("inverts both directions when walking backward", func() {
			clause := order.OrderClause(paging.Backward)
			Expect(clause).To(Equal("COALESCE(t.saldo_total, 0) ASC, t.numero_plano DESC"))
		})
	})

	Describe("SeekClause", func() {
		cur := paging.Cursor{
			Saldo:  decimal.RequireFromString("75000.50"),
			Numero: "0001112223",
		}

		It("builds the expanded comparison for a forward walk", func() {
			clause, args := order.SeekClause(cur, paging.Forward, 1)

			Expect(clause).To(Equal(
				"(COALESCE(t.saldo_total, 0) < $1 OR (COALESCE(t.saldo_total, 0) = $2 AND t.numero_plano > $3))",
			))
			Expect(args).To(HaveLen(3))
			Expect(args[0]).To(Equal(cur.Saldo))
			Expect(args[1]).To(Equal(cur.Saldo))
			Expect(args[2]).To(Equal(cur.Numero))
		})

		It("flips both comparison operators for a backward walk", func() {
			clause, _ := order.SeekClause(cur, paging.Backward, 1)

			Expect(clause).To(Equal(
				"(COALESCE(t.saldo_total, 0) > $1 OR (COALESCE(t.saldo_total, 0) = $2 AND t.numero_plano < $3))",
			))
		})

		It("continues placeholder numbering after an existing predicate", func() {
			clause, args := order.SeekClause(cur, paging.Forward, 5)

			Expect(clause).To(ContainSubstring("$5"))
			Expect(clause).To(ContainSubstring("$6"))
			Expect(clause).To(ContainSubstring("$7"))
			Expect(clause).ToNot(ContainSubstring("$1 "))
			Expect(args).To(HaveLen(3))
		})
	})

	Describe("ParseDirection", func() {
		It("maps anterior onto a backward walk", func() {
			Expect(paging.ParseDirection("anterior")).To(Equal(paging.Backward))
			Expect(paging.ParseDirection(" Anterior ")).To(Equal(paging.Backward))
		})

		It("defaults everything else to forward", func() {
			Expect(paging.ParseDirection("")).To(Equal(paging.Forward))
			Expect(paging.ParseDirection("proxima")).To(Equal(paging.Forward))
			Expect(paging.ParseDirection("sideways")).To(Equal(paging.Forward))
		})
	})
})
