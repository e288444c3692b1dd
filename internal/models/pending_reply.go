package models

import "time"

// PendingReplyStatus is the approval state of a suggested reply.
type PendingReplyStatus string

const (
	PendingReplyStatusPending  PendingReplyStatus = "PENDING"
	PendingReplyStatusApproved PendingReplyStatus = "APPROVED"
	PendingReplyStatusRejected PendingReplyStatus = "REJECTED"
)

// PendingReply is the single approval record of a review.
type PendingReply struct {
	ID             string             `db:"id" json:"id"`
	ReviewID       string             `db:"review_id" json:"review_id"`
	TemplateID     *string            `db:"template_id" json:"template_id,omitempty"`
	SuggestedReply string             `db:"suggested_reply" json:"suggested_reply"`
	Status         PendingReplyStatus `db:"status" json:"status"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
	ProcessedAt    *time.Time         `db:"processed_at" json:"processed_at,omitempty"`
}

// PendingReplyView enriches a record with its review and location for the approval queue.
type PendingReplyView struct {
	PendingReply
	ReviewAuthor  string  `db:"review_author" json:"review_author"`
	ReviewRating  int     `db:"review_rating" json:"review_rating"`
	ReviewComment *string `db:"review_comment" json:"review_comment,omitempty"`
	LocationName  string  `db:"location_name" json:"location_name"`
}

// PendingReplyFilter pages the approval queue. Status defaults to PENDING.
type PendingReplyFilter struct {
	Status     PendingReplyStatus
	LocationID string
	Limit      int
	Offset     int
}

// ReplyHistoryRow is one line of a reply export.
type ReplyHistoryRow struct {
	PendingReplyID string             `db:"pending_reply_id"`
	Status         PendingReplyStatus `db:"status"`
	LocationName   string             `db:"location_name"`
	ReviewAuthor   string             `db:"review_author"`
	ReviewRating   int                `db:"review_rating"`
	ReviewComment  *string            `db:"review_comment"`
	Reply          string             `db:"reply"`
	TemplateName   *string            `db:"template_name"`
	CreatedAt      time.Time          `db:"created_at"`
	ProcessedAt    *time.Time         `db:"processed_at"`
}
