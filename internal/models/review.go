package models

import (
	"strings"
	"time"
)

const AnonymousAuthor = "Anonymous"

// Review mirrors a Google review. CreatedAt is Google's createTime, SyncedAt the last local refresh.
type Review struct {
	ID         string     `db:"id" json:"id"`
	LocationID string     `db:"location_id" json:"location_id"`
	ReviewID   string     `db:"review_id" json:"review_id"`
	AuthorName string     `db:"author_name" json:"author_name"`
	Rating     int        `db:"rating" json:"rating"`
	Comment    *string    `db:"comment" json:"comment,omitempty"`
	Reply      *string    `db:"reply" json:"reply,omitempty"`
	ReplyTime  *time.Time `db:"reply_time" json:"reply_time,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	SyncedAt   time.Time  `db:"synced_at" json:"synced_at"`
}

// HasReply reports whether Google already shows an owner reply.
func (r *Review) HasReply() bool {
	return r.Reply != nil && strings.TrimSpace(*r.Reply) != ""
}

// ReviewFilter pages reviews of one location.
type ReviewFilter struct {
	LocationID string
	Unreplied  bool
	Limit      int
	Offset     int
}
