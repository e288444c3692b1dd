package dto

// CreateTemplateRequest is the payload of POST /templates.
type CreateTemplateRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Content   string `json:"content" validate:"required,min=1"`
	RatingMin int    `json:"rating_min" validate:"required,min=1,max=5"`
	RatingMax int    `json:"rating_max" validate:"required,min=1,max=5"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

// UpdateTemplateRequest is a partial update; nil fields are left unchanged.
type UpdateTemplateRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Content   *string `json:"content,omitempty" validate:"omitempty,min=1"`
	RatingMin *int    `json:"rating_min,omitempty" validate:"omitempty,min=1,max=5"`
	RatingMax *int    `json:"rating_max,omitempty" validate:"omitempty,min=1,max=5"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// TemplatePreviewRequest renders content with sample values. Empty values fall back to defaults.
type TemplatePreviewRequest struct {
	Content      string `json:"content" validate:"required,min=1"`
	AuthorName   string `json:"author_name,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	Rating       int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// TemplatePreviewResponse is the rendered preview.
type TemplatePreviewResponse struct {
	RenderedContent string   `json:"rendered_content"`
	VariablesUsed   []string `json:"variables_used"`
	IsValid         bool     `json:"is_valid"`
	Unresolved      []string `json:"unresolved"`
}

// TemplateValidateRequest is the payload of POST /templates/validate.
type TemplateValidateRequest struct {
	Content string `json:"content"`
}

// TemplateValidationResponse lists the placeholders found in content.
type TemplateValidationResponse struct {
	IsValid       bool     `json:"is_valid"`
	VariablesUsed []string `json:"variables_used"`
}

// UnknownVariableDetails is attached to UNKNOWN_VARIABLE errors.
type UnknownVariableDetails struct {
	Unknown   []string `json:"unknown_variables"`
	Available []string `json:"available_variables"`
}
