package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hebelmx/veriqan/pkg/domain"
)

var _ = Describe("SLARepository", func() {
	var (
		mockDB *sqlx.DB
		mock   sqlmock.Sqlmock
		repo   *SLARepository
		ctx    context.Context
	)

	BeforeEach(func() {
		mockDB, mock = newMockDB()
		repo = &SLARepository{DB: mockDB}
		ctx = context.Background()
	})

	AfterEach(func() {
		mockDB.Close()
	})

	It("returns found=false when no row exists", func() {
		mock.ExpectQuery("SELECT (.+) FROM sla_status WHERE file_id").
			WithArgs("file-1").
			WillReturnError(sql.ErrNoRows)

		_, found, err := repo.Get(ctx, "file-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("maps a found row back to domain.SLAStatus", func() {
		rows := sqlmock.NewRows([]string{"file_id", "intake_date", "deadline", "remaining_millis", "escalation_level", "is_at_risk", "is_breached"}).
			AddRow("file-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC), int64(3600_000), "critical", true, false)
		mock.ExpectQuery("SELECT (.+) FROM sla_status WHERE file_id").
			WithArgs("file-1").
			WillReturnRows(rows)

		status, found, err := repo.Get(ctx, "file-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(status.EscalationLevel).To(Equal(domain.EscalationCritical))
		Expect(status.RemainingTime).To(Equal(time.Hour))
	})

	It("upserts on Save", func() {
		mock.ExpectExec("INSERT INTO sla_status").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Save(ctx, domain.SLAStatus{FileID: "file-1", EscalationLevel: domain.EscalationNone})
		Expect(err).NotTo(HaveOccurred())
	})

	It("lists all tracked cases ordered by deadline", func() {
		rows := sqlmock.NewRows([]string{"file_id", "intake_date", "deadline", "remaining_millis", "escalation_level", "is_at_risk", "is_breached"}).
			AddRow("file-1", time.Now(), time.Now(), int64(0), "breached", true, true).
			AddRow("file-2", time.Now(), time.Now(), int64(0), "none", false, false)
		mock.ExpectQuery("SELECT (.+) FROM sla_status ORDER BY deadline").
			WillReturnRows(rows)

		cases, err := repo.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(cases).To(HaveLen(2))
	})
})
