package repository

import (
	"context"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

var _ = Describe("ReviewRepository", func() {
	var (
		mockDB *sqlx.DB
		mock   sqlmock.Sqlmock
		repo   *ReviewRepository
		ctx    context.Context
	)

	BeforeEach(func() {
		mockDB, mock = newMockDB()
		repo = &ReviewRepository{DB: mockDB}
		ctx = context.Background()
	})

	AfterEach(func() {
		mockDB.Close()
	})

	It("enqueues a new review case", func() {
		mock.ExpectExec("INSERT INTO review_cases").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.Enqueue(ctx, domain.ReviewCase{CaseID: "case-1", FileID: "file-1", Reason: "low confidence", Status: domain.ReviewOpen})
		Expect(err).NotTo(HaveOccurred())
	})

	It("updates status for an existing case", func() {
		mock.ExpectExec("UPDATE review_cases SET status").
			WithArgs(string(domain.ReviewResolved), "case-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, "case-1", domain.ReviewResolved)
		Expect(err).NotTo(HaveOccurred())
	})

	It("errors when UpdateStatus affects no rows", func() {
		mock.ExpectExec("UPDATE review_cases SET status").
			WithArgs(string(domain.ReviewResolved), "missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, "missing", domain.ReviewResolved)
		Expect(err).To(HaveOccurred())
	})

	It("saves a closing decision", func() {
		mock.ExpectExec("INSERT INTO review_decisions").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveDecision(ctx, domain.ReviewDecision{DecisionID: "dec-1", CaseID: "case-1", FileID: "file-1", DecisionType: "approve", ReviewerID: "u-1"})
		Expect(err).NotTo(HaveOccurred())
	})
})
