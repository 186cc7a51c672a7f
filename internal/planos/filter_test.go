package planos_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/credfolha/planos-backoffice/internal/planos"
)

var _ = Describe("Filter normalization", func() {
	Describe("situation filters", func() {
		It("normalizes casing and drops unknown codes", func() {
			f := planos.ParseFilters(planos.RawFilters{
				Situacoes: []string{"em_dia", "EM_ATRASO", "CANCELADO", ""},
			})

			Expect(f.Situacoes).To(Equal([]planos.Situacao{planos.SituacaoEmDia, planos.SituacaoEmAtraso}))
		})

		It("deduplicates repeated codes keeping first occurrence", func() {
			f := planos.ParseFilters(planos.RawFilters{
				Situacoes: []string{"GRDE", "grde", " GRDE "},
			})

			Expect(f.Situacoes).To(Equal([]planos.Situacao{planos.SituacaoGRDE}))
		})
	})

	Describe("minimum overdue days", func() {
		It("accepts the offered thresholds", func() {
			Expect(planos.ParseFilters(planos.RawFilters{DiasMin: "90"}).DiasMin).To(Equal(90))
			Expect(planos.ParseFilters(planos.RawFilters{DiasMin: "100"}).DiasMin).To(Equal(100))
			Expect(planos.ParseFilters(planos.RawFilters{DiasMin: " 120 "}).DiasMin).To(Equal(120))
		})

		It("drops non-numeric values and thresholds not offered", func() {
			Expect(planos.ParseFilters(planos.RawFilters{DiasMin: "abc"}).DiasMin).To(Equal(0))
			Expect(planos.ParseFilters(planos.RawFilters{DiasMin: "0"}).DiasMin).To(Equal(0))
			Expect(planos.ParseFilters(planos.RawFilters{DiasMin: "-5"}).DiasMin).To(Equal(0))
			Expect(planos.ParseFilters(planos.RawFilters{DiasMin: "45"}).DiasMin).To(Equal(0))
		})
	})

	Describe("balance filters", func() {
		It("resolves bucket keys onto half-open ranges", func() {
			f := planos.ParseFilters(planos.RawFilters{SaldoFaixa: "50_150k"})

			Expect(f.Faixa).ToNot(BeNil())
			Expect(f.Faixa.Chave).To(Equal("50_150K"))
			Expect(f.Faixa.Min.Equal(decimal.NewFromInt(50_000))).To(BeTrue())
			Expect(f.Faixa.HasMax).To(BeTrue())
			Expect(f.Faixa.Max.Equal(decimal.NewFromInt(150_000))).To(BeTrue())
		})

		It("leaves the top bucket open ended", func() {
			f := planos.ParseFilters(planos.RawFilters{SaldoFaixa: "ACIMA_500K"})

			Expect(f.Faixa).ToNot(BeNil())
			Expect(f.Faixa.HasMax).To(BeFalse())
			Expect(f.Faixa.Min.Equal(decimal.NewFromInt(500_000))).To(BeTrue())
		})

		It("lets a bucket win over a minimum floor sent together", func() {
			f := planos.ParseFilters(planos.RawFilters{SaldoFaixa: "ATE_10K", SaldoMin: "50000"})

			Expect(f.Faixa).ToNot(BeNil())
			Expect(f.Faixa.Chave).To(Equal("ATE_10K"))
			Expect(f.Faixa.HasMax).To(BeTrue())
		})

		It("accepts only the allowed floor values", func() {
			f := planos.ParseFilters(planos.RawFilters{SaldoMin: "150000"})
			Expect(f.Faixa).ToNot(BeNil())
			Expect(f.Faixa.Min.Equal(decimal.NewFromInt(150_000))).To(BeTrue())
			Expect(f.Faixa.HasMax).To(BeFalse())

			Expect(planos.ParseFilters(planos.RawFilters{SaldoMin: "123"}).Faixa).To(BeNil())
			Expect(planos.ParseFilters(planos.RawFilters{SaldoMin: "abc"}).Faixa).To(BeNil())
		})

		It("drops unknown bucket keys", func() {
			Expect(planos.ParseFilters(planos.RawFilters{SaldoFaixa: "MUITO_ALTO"}).Faixa).To(BeNil())
		})
	})

	Describe("period filters", func() {
		It("normalizes known period keys", func() {
			f := planos.ParseFilters(planos.RawFilters{Periodo: "mes_atual"})
			Expect(f.Periodo).To(Equal(planos.PeriodoMesAtual))
		})

		It("drops unknown periods", func() {
			Expect(planos.ParseFilters(planos.RawFilters{Periodo: "SEMPRE"}).Periodo).To(BeEmpty())
		})
	})

	Describe("search classification", func() {
		It("classifies eleven digits as a CPF document search", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "123.456.789-01"})

			Expect(f.Busca).ToNot(BeNil())
			Expect(f.Busca.Tipo).To(Equal(planos.BuscaDocumento))
			Expect(f.Busca.Termo).To(Equal("12345678901"))
			Expect(f.Busca.TipoInscricao).To(Equal(planos.InscricaoCPF))
		})

		It("classifies twelve digits as a CEI document search", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "123456789012"})

			Expect(f.Busca.Tipo).To(Equal(planos.BuscaDocumento))
			Expect(f.Busca.TipoInscricao).To(Equal(planos.InscricaoCEI))
		})

		It("classifies fourteen digits as a CNPJ document search", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "12.345.678/0001-95"})

			Expect(f.Busca.Tipo).To(Equal(planos.BuscaDocumento))
			Expect(f.Busca.Termo).To(Equal("12345678000195"))
			Expect(f.Busca.TipoInscricao).To(Equal(planos.InscricaoCNPJ))
		})

		It("classifies other all-digit terms as plan number searches", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "123456"})

			Expect(f.Busca.Tipo).To(Equal(planos.BuscaNumero))
			Expect(f.Busca.Termo).To(Equal("123456"))
		})

		It("classifies everything else as a name search", func() {
			f := planos.ParseFilters(planos.RawFilters{Busca: "Construtora Silva"})

			Expect(f.Busca.Tipo).To(Equal(planos.BuscaNome))
			Expect(f.Busca.Termo).To(Equal("Construtora Silva"))
		})

		It("drops blank terms", func() {
			Expect(planos.ParseFilters(planos.RawFilters{Busca: "   "}).Busca).To(BeNil())
		})
	})

	Describe("Signature", func() {
		It("is stable across situation input order", func() {
			a := planos.ParseFilters(planos.RawFilters{Situacoes: []string{"EM_DIA", "EM_ATRASO"}, DiasMin: "90"})
			b := planos.ParseFilters(planos.RawFilters{Situacoes: []string{"EM_ATRASO", "EM_DIA"}, DiasMin: "90"})

			Expect(a.Signature()).To(Equal(b.Signature()))
		})

		It("distinguishes different filter sets", func() {
			a := planos.ParseFilters(planos.RawFilters{DiasMin: "90"})
			b := planos.ParseFilters(planos.RawFilters{DiasMin: "120"})

			Expect(a.Signature()).ToNot(Equal(b.Signature()))
		})

		It("names the empty set", func() {
			Expect(planos.FilterSet{}.Signature()).To(Equal("sem_filtros"))
		})
	})

	Describe("IsZero", func() {
		It("is true only when nothing survived", func() {
			Expect(planos.ParseFilters(planos.RawFilters{}).IsZero()).To(BeTrue())
			Expect(planos.ParseFilters(planos.RawFilters{Busca: "x"}).IsZero()).To(BeFalse())
			Expect(planos.ParseFilters(planos.RawFilters{Situacoes: []string{"INVALIDA"}}).IsZero()).To(BeTrue())
		})
	})

	Describe("ToJSON", func() {
		It("serializes the normalized filters for batch provenance", func() {
			f := planos.ParseFilters(planos.RawFilters{
				Situacoes:  []string{"EM_ATRASO"},
				DiasMin:    "90",
				SaldoFaixa: "10_50K",
				Busca:      "12345678901",
			})

			raw, err := f.ToJSON()
			Expect(err).ToNot(HaveOccurred())

			var decoded map[string]any
			Expect(json.Unmarshal(raw, &decoded)).To(Succeed())
			Expect(decoded).To(HaveKeyWithValue("dias_min", BeNumerically("==", 90)))
			Expect(decoded).To(HaveKey("situacoes"))
			Expect(decoded).To(HaveKey("saldo_min"))
			Expect(decoded).To(HaveKey("saldo_max"))
			Expect(decoded["busca"]).To(HaveKeyWithValue("tipo", "documento"))
		})

		It("omits what was not filtered", func() {
			raw, err := planos.FilterSet{}.ToJSON()
			Expect(err).ToNot(HaveOccurred())
			Expect(string(raw)).To(Equal("{}"))
		})
	})
})
