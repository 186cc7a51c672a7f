package planos_test

import (
	"regexp"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/credfolha/planos-backoffice/internal/planos"
)

var _ = Describe("Predicate building", func() {
	now := time.Date(2025, 7, 15, 14, 30, 0, 0, time.UTC)

	It("produces an empty clause for an empty filter set", func() {
		p := planos.BuildPredicate(planos.FilterSet{}, "t", now)

		Expect(p.Clause()).To(BeEmpty())
		Expect(p.Args()).To(BeEmpty())
		Expect(p.NextIndex()).To(Equal(1))
	})

	It("binds one argument per placeholder, in placeholder order", func() {
		f := planos.ParseFilters(planos.RawFilters{
			Situacoes:  []string{"EM_ATRASO", "EM_DIA"},
			DiasMin:    "90",
			SaldoFaixa: "50_150K",
			Periodo:    "ULTIMO_MES",
			Busca:      "Construtora Silva",
		})

		p := planos.BuildPredicate(f, "t", now)

		matches := regexp.MustCompile(`\$(\d+)`).FindAllStringSubmatch(p.Clause(), -1)
		seen := map[int]bool{}
		max := 0
		for _, m := range matches {
			n, err := strconv.Atoi(m[1])
			Expect(err).ToNot(HaveOccurred())
			seen[n] = true
			if n > max {
				max = n
			}
		}

		Expect(max).To(Equal(len(p.Args())))
		for i := 1; i <= max; i++ {
			Expect(seen[i]).To(BeTrue(), "placeholder $%d should appear in the clause", i)
		}
		Expect(p.NextIndex()).To(Equal(len(p.Args()) + 1))
	})

	It("is deterministic for the same filters and instant", func() {
		f := planos.ParseFilters(planos.RawFilters{Situacoes: []string{"EM_ATRASO"}, DiasMin: "90"})

		a := planos.BuildPredicate(f, "t", now)
		b := planos.BuildPredicate(f, "t", now)

		Expect(a.Clause()).To(Equal(b.Clause()))
		Expect(a.Args()).To(Equal(b.Args()))
	})

	Describe("situation filter", func() {
		It("renders a numbered IN list", func() {
			f := planos.ParseFilters(planos.RawFilters{Situacoes: []string{"EM_ATRASO", "GRDE"}})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal("t.situacao IN ($1,$2)"))
			Expect(p.Args()).To(Equal([]any{"EM_ATRASO", "GRDE"}))
		})
	})

	Describe("overdue days filter", func() {
		It("anchors the cutoff to the given instant's date", func() {
			f := planos.ParseFilters(planos.RawFilters{Situacoes: []string{"EM_ATRASO"}, DiasMin: "90"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal("t.situacao IN ($1) AND t.data_situacao <= $2"))
			Expect(p.Args()).To(HaveLen(2))
			Expect(p.Args()[0]).To(Equal("EM_ATRASO"))

			cutoff, ok := p.Args()[1].(time.Time)
			Expect(ok).To(BeTrue())
			Expect(cutoff).To(Equal(time.Date(2025, 4, 16, 0, 0, 0, 0, time.UTC)))
		})
	})

	Describe("balance filter", func() {
		It("coalesces null balances to zero in both comparisons", func() {
			f := planos.ParseFilters(planos.RawFilters{SaldoFaixa: "10_50K"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal(
				"(COALESCE(t.saldo_total, 0) >= $1 AND COALESCE(t.saldo_total, 0) < $2)",
			))
			Expect(p.Args()).To(HaveLen(2))
		})

		It("renders the open-ended floor with a single bind", func() {
			f := planos.ParseFilters(planos.RawFilters{SaldoMin: "500000"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal("COALESCE(t.saldo_total, 0) >= $1"))
			Expect(p.Args()).To(HaveLen(1))
		})
	})

	Describe("period filter", func() {
		It("renders the current month as a single lower bound", func() {
			f := planos.ParseFilters(planos.RawFilters{Periodo: "MES_ATUAL"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal("t.data_situacao >= $1"))
			Expect(p.Args()[0]).To(Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("renders last month as a half-open window", func() {
			f := planos.ParseFilters(planos.RawFilters{Periodo: "ULTIMO_MES"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal("(t.data_situacao >= $1 AND t.data_situacao < $2)"))
			Expect(p.Args()[0]).To(Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
			Expect(p.Args()[1]).To(Equal(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("renders the rolling windows from their month boundary", func() {
			f := planos.ParseFilters(planos.RawFilters{Periodo: "ULTIMOS_3_MESES"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Args()[0]).To(Equal(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)))
		})
	})

	Describe("search filter", func() {
		It("matches documents on stripped digits plus registry type", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "123.456.789-01"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal(
				"(regexp_replace(t.documento, '[^0-9]', '', 'g') = $1 AND t.tipo_inscricao = $2)",
			))
			Expect(p.Args()).To(Equal([]any{"12345678901", "CPF"}))
		})

		It("matches plan numbers exactly or by prefix", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "123456"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal("(t.numero_plano = $1 OR t.numero_plano LIKE $2)"))
			Expect(p.Args()).To(Equal([]any{"123456", "123456%"}))
		})

		It("matches names case-insensitively on a contained term", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "Silva"})
			p := planos.BuildPredicate(f, "t", now)

			Expect(p.Clause()).To(Equal("t.razao_social ILIKE $1"))
			Expect(p.Args()).To(Equal([]any{"%Silva%"}))
		})
	})

	It("prefixes every column with the given alias", func() {
		f := planos.ParseFilters(planos.RawFilters{Situacoes: []string{"EM_DIA"}, Busca: "Silva"})
		p := planos.BuildPredicate(f, "v", now)

		Expect(p.Clause()).To(ContainSubstring("v.situacao"))
		Expect(p.Clause()).To(ContainSubstring("v.razao_social"))
		Expect(p.Clause()).ToNot(ContainSubstring("t."))
	})
})
