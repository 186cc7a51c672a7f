package pgdb_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/credfolha/planos-backoffice/internal/pgdb"
)

var _ = Describe("CoerceSuccess", func() {
	It("treats explicit falsy scalars as failure", func() {
		falsos := []any{
			false,
			0,
			int32(0),
			int64(0),
			float64(0),
			"0",
			"f",
			"false",
			"FALSE",
			" n ",
			"nao",
			"não",
			[]byte("0"),
			[]byte("f"),
			"0.0",
		}

		for _, v := range falsos {
			Expect(pgdb.CoerceSuccess(v)).To(BeFalse(), "value %#v should coerce to failure", v)
		}
	})

	It("treats explicit truthy scalars as success", func() {
		verdadeiros := []any{
			true,
			1,
			int32(7),
			int64(42),
			float64(0.5),
			"1",
			"t",
			"true",
			"ok",
			[]byte("1"),
			[]byte("t"),
		}

		for _, v := range verdadeiros {
			Expect(pgdb.CoerceSuccess(v)).To(BeTrue(), "value %#v should coerce to success", v)
		}
	})

	It("defaults ambiguous shapes to success", func() {
		ambiguos := []any{
			nil,
			"",
			"concluido",
			struct{ X int }{X: 0},
			[]byte("resultado"),
		}

		for _, v := range ambiguos {
			Expect(pgdb.CoerceSuccess(v)).To(BeTrue(), "value %#v should default to success", v)
		}
	})
})
