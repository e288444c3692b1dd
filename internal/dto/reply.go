package dto

// SuggestReplyResponse is returned by POST /replies/reviews/:reviewId/suggest.
type SuggestReplyResponse struct {
	PendingReplyID string  `json:"pending_reply_id"`
	SuggestedReply string  `json:"suggested_reply"`
	TemplateID     *string `json:"template_id,omitempty"`
	TemplateName   *string `json:"template_name,omitempty"`
}

// ApproveReplyRequest optionally overrides the suggested text.
type ApproveReplyRequest struct {
	EditedReply *string `json:"edited_reply,omitempty"`
}

// RejectReplyRequest carries an optional reason, recorded in logs only.
type RejectReplyRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

// EditReplyRequest replaces the suggested text of a pending reply.
type EditReplyRequest struct {
	SuggestedReply string `json:"suggested_reply"`
}

// PendingReplyQuery mirrors GET /replies/pending filters.
type PendingReplyQuery struct {
	LocationID string
	Page       int
	PageSize   int
}
