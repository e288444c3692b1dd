package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/models"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
	"github.com/noah-isme/review-desk-api/pkg/export"
	"github.com/noah-isme/review-desk-api/pkg/storage"
)

const exportTimeLayout = "2006-01-02 15:04"

type replyHistorySource interface {
	History(ctx context.Context, status models.PendingReplyStatus, locationID string) ([]models.ReplyHistoryRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(id, path string) (string, storage.Ticket, error)
	Verify(token string, allowExpired bool) (storage.Ticket, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is an opened export file ready to stream.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportService renders the reply history and hands out signed download links.
type ExportService struct {
	history   replyHistorySource
	storage   fileStorage
	signer    downloadSigner
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(history replyHistorySource, storage fileStorage, signer downloadSigner, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &ExportService{
		history:   history,
		storage:   storage,
		signer:    signer,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// ExportReplies renders the matching reply history and returns a signed download link.
func (s *ExportService) ExportReplies(ctx context.Context, req dto.ExportRepliesRequest) (*dto.ExportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	format := export.Format(req.Format)
	if format == "" {
		format = export.FormatCSV
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	rows, err := s.history.History(ctx, req.Status, req.LocationID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reply history")
	}

	payload, err := renderer.Render(buildReplyDataset(rows, req.Status))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	id := uuid.NewString()
	filename := fmt.Sprintf("replies_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), id[:8], renderer.Extension())
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, ticket, err := s.signer.Sign(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export")
	}

	s.metrics.RecordExport(string(format))
	s.logger.Info("reply export generated", zap.String("export_id", id), zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return &dto.ExportResponse{
		ID:          id,
		Format:      string(format),
		Rows:        len(rows),
		DownloadURL: s.downloadURL(token),
		ExpiresAt:   ticket.ExpiresAt,
	}, nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	ticket, err := s.signer.Verify(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	file, err := s.storage.Open(ticket.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	contentType := "text/csv; charset=utf-8"
	if strings.EqualFold(filepath.Ext(ticket.Path), ".pdf") {
		contentType = "application/pdf"
	}
	s.logger.Debug("export downloaded", zap.String("export_id", ticket.ID))
	return &ExportDownload{
		File:        file,
		Filename:    filepath.Base(ticket.Path),
		ContentType: contentType,
		ExpiresAt:   ticket.ExpiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ExportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanup()
			}
		}
	}()
}

func (s *ExportService) cleanup() {
	removed, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) downloadURL(token string) string {
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return prefix + "/exports/download/" + token
}

func buildReplyDataset(rows []models.ReplyHistoryRow, status models.PendingReplyStatus) export.Dataset {
	title := "Reply history"
	if status != "" {
		title += " (" + strings.ToLower(string(status)) + ")"
	}
	data := export.Dataset{
		Title:   title,
		Headers: []string{"Location", "Author", "Rating", "Review", "Reply", "Template", "Status", "Created", "Processed"},
		Widths:  []float64{1.2, 1, 0.5, 2.2, 2.5, 1, 0.8, 1, 1},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Location":  row.LocationName,
			"Author":    row.ReviewAuthor,
			"Rating":    strconv.Itoa(row.ReviewRating),
			"Review":    deref(row.ReviewComment),
			"Reply":     row.Reply,
			"Template":  deref(row.TemplateName),
			"Status":    string(row.Status),
			"Created":   row.CreatedAt.UTC().Format(exportTimeLayout),
			"Processed": formatOptionalTime(row.ProcessedAt),
		})
	}
	return data
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(exportTimeLayout)
}
