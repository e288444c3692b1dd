package dto

import (
	"time"

	"github.com/noah-isme/review-desk-api/internal/models"
)

// ExportRepliesRequest is the payload of POST /exports/replies.
type ExportRepliesRequest struct {
	Status     models.PendingReplyStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
	LocationID string                    `json:"location_id,omitempty" validate:"omitempty,uuid"`
	Format     string                    `json:"format,omitempty" validate:"omitempty,oneof=csv pdf"`
}

// ExportResponse points to the signed download of a generated export.
type ExportResponse struct {
	ID          string    `json:"id"`
	Format      string    `json:"format"`
	Rows        int       `json:"rows"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
