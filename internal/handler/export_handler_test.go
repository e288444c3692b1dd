package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/review-desk-api/internal/dto"
	"github.com/noah-isme/review-desk-api/internal/service"
	appErrors "github.com/noah-isme/review-desk-api/pkg/errors"
)

type exportServiceMock struct {
	path    string
	lastReq dto.ExportRepliesRequest
}

func (m *exportServiceMock) ExportReplies(ctx context.Context, req dto.ExportRepliesRequest) (*dto.ExportResponse, error) {
	m.lastReq = req
	return &dto.ExportResponse{ID: "exp-1", Format: "csv", DownloadURL: "/api/v1/exports/download/token"}, nil
}

func (m *exportServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	if token != "token" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download token")
	}
	file, err := os.Open(m.path)
	if err != nil {
		return nil, err
	}
	return &service.ExportDownload{File: file, Filename: "replies.csv", ContentType: "text/csv; charset=utf-8", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func TestExportHandlerCreate(t *testing.T) {
	svc := &exportServiceMock{}
	handler := NewExportHandler(svc)

	c, w := newJSONContext(http.MethodPost, "/exports/replies", dto.ExportRepliesRequest{Format: "pdf"})
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pdf", svc.lastReq.Format)

	c, w = newJSONContext(http.MethodPost, "/exports/replies", nil)
	handler.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replies.csv")
	require.NoError(t, os.WriteFile(path, []byte("Location,Author\nCafe Luna,Jane\n"), 0o600))
	handler := NewExportHandler(&exportServiceMock{path: path})

	c, w := newJSONContext(http.MethodGet, "/exports/download/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}
	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="replies.csv"`)
	assert.Contains(t, w.Body.String(), "Cafe Luna,Jane")

	c, w = newJSONContext(http.MethodGet, "/exports/download/forged", nil)
	c.Params = gin.Params{{Key: "token", Value: "forged"}}
	handler.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
