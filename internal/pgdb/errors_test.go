package pgdb_test

import (
	"github.com/friendsofgo/errors"
	"github.com/lib/pq"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/credfolha/planos-backoffice/internal/pgdb"
)

var _ = Describe("Driver error classification", func() {
	Describe("IsUniqueViolation", func() {
		It("recognizes the unique violation code", func() {
			err := &pq.Error{Code: "23505", Message: "duplicate key value"}
			Expect(pgdb.IsUniqueViolation(err)).To(BeTrue())
		})

		It("sees through wrapping", func() {
			err := errors.Wrap(&pq.Error{Code: "23505"}, "opening batch")
			Expect(pgdb.IsUniqueViolation(err)).To(BeTrue())
		})

		It("rejects other codes and other error types", func() {
			Expect(pgdb.IsUniqueViolation(&pq.Error{Code: "57014"})).To(BeFalse())
			Expect(pgdb.IsUniqueViolation(errors.New("plain"))).To(BeFalse())
			Expect(pgdb.IsUniqueViolation(nil)).To(BeFalse())
		})
	})

	Describe("IsQueryCanceled", func() {
		It("recognizes a statement timeout cancellation", func() {
			err := &pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"}
			Expect(pgdb.IsQueryCanceled(err)).To(BeTrue())
		})

		It("sees through wrapping and rejects other codes", func() {
			Expect(pgdb.IsQueryCanceled(errors.Wrap(&pq.Error{Code: "57014"}, "counting"))).To(BeTrue())
			Expect(pgdb.IsQueryCanceled(&pq.Error{Code: "23505"})).To(BeFalse())
		})
	})
})
