package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/storage"
)

type historyStub struct {
	rows       []models.ReplyHistoryRow
	lastStatus models.PendingReplyStatus
}

func (h *historyStub) History(ctx context.Context, status models.PendingReplyStatus, locationID string) ([]models.ReplyHistoryRow, error) {
	h.lastStatus = status
	return h.rows, nil
}

func newTestExportService(t *testing.T, history *historyStub) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSigner("export-secret", time.Hour)
	return NewExportService(history, store, signer, nil, nil, nil, ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour})
}

func sampleHistory() []models.ReplyHistoryRow {
	comment := "Lovely, coffee"
	processed := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	return []models.ReplyHistoryRow{{
		PendingReplyID: "p-1",
		Status:         models.PendingReplyStatusApproved,
		LocationName:   "Cafe Luna",
		ReviewAuthor:   "Jane",
		ReviewRating:   5,
		ReviewComment:  &comment,
		Reply:          "Thanks Jane at Cafe Luna!",
		CreatedAt:      time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
		ProcessedAt:    &processed,
	}}
}

func TestExportRepliesCSVRoundTrip(t *testing.T) {
	history := &historyStub{rows: sampleHistory()}
	svc := newTestExportService(t, history)

	resp, err := svc.ExportReplies(context.Background(), dto.ExportRepliesRequest{Status: models.PendingReplyStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, "csv", resp.Format)
	assert.Equal(t, 1, resp.Rows)
	assert.Equal(t, models.PendingReplyStatusApproved, history.lastStatus)
	require.True(t, strings.HasPrefix(resp.DownloadURL, "/api/v1/exports/download/"))

	token := strings.TrimPrefix(resp.DownloadURL, "/api/v1/exports/download/")
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "text/csv; charset=utf-8", download.ContentType)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))

	body, err := io.ReadAll(download.File)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "Location,Author,Rating")
	assert.Contains(t, text, `"Lovely, coffee"`)
	assert.Contains(t, text, "2024-05-02 10:00")
}

func TestExportRepliesPDF(t *testing.T) {
	svc := newTestExportService(t, &historyStub{rows: sampleHistory()})

	resp, err := svc.ExportReplies(context.Background(), dto.ExportRepliesRequest{Format: "pdf"})
	require.NoError(t, err)
	token := strings.TrimPrefix(resp.DownloadURL, "/api/v1/exports/download/")
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "application/pdf", download.ContentType)
}

func TestExportRepliesValidation(t *testing.T) {
	svc := newTestExportService(t, &historyStub{})

	_, err := svc.ExportReplies(context.Background(), dto.ExportRepliesRequest{Format: "xlsx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.ExportReplies(context.Background(), dto.ExportRepliesRequest{Status: "DONE"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestResolveDownloadRejectsBadToken(t *testing.T) {
	svc := newTestExportService(t, &historyStub{})
	_, err := svc.ResolveDownload(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
