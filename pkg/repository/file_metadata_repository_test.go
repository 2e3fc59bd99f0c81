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

var _ = Describe("FileMetadataRepository", func() {
	var (
		mockDB *sqlx.DB
		mock   sqlmock.Sqlmock
		repo   *FileMetadataRepository
		ctx    context.Context
	)

	BeforeEach(func() {
		mockDB, mock = newMockDB()
		repo = &FileMetadataRepository{DB: mockDB}
		ctx = context.Background()
	})

	AfterEach(func() {
		mockDB.Close()
	})

	It("logs file metadata", func() {
		mock.ExpectExec("INSERT INTO file_metadata").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.LogFileMetadata(ctx, domain.FileMetadata{
			FileID:            "file-1",
			FileName:          "oficio.pdf",
			FilePath:          "/data/oficio.pdf",
			Checksum:          "abc123",
			DownloadTimestamp: time.Now(),
			Format:            domain.FormatPDF,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns found=false when checksum isn't known", func() {
		mock.ExpectQuery("SELECT (.+) FROM file_metadata WHERE checksum").
			WithArgs("unknown").
			WillReturnError(sql.ErrNoRows)

		_, found, err := repo.GetByChecksum(ctx, "unknown")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("maps a found row by checksum", func() {
		rows := sqlmock.NewRows([]string{"file_id", "file_name", "file_path", "source_url", "download_timestamp", "checksum", "file_size_bytes", "format"}).
			AddRow("file-1", "oficio.pdf", "/data/oficio.pdf", "", sql.NullTime{Time: time.Now(), Valid: true}, "abc123", int64(2048), "pdf")
		mock.ExpectQuery("SELECT (.+) FROM file_metadata WHERE checksum").
			WithArgs("abc123").
			WillReturnRows(rows)

		meta, found, err := repo.GetByChecksum(ctx, "abc123")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(meta.FileID).To(Equal("file-1"))
		Expect(meta.Format).To(Equal(domain.FormatPDF))
	})
})
