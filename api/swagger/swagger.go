package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Review Desk API",
        "description": "Template based replies to Google reviews with operator approval",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Google OAuth and connected accounts"},
        {"name": "Locations", "description": "Synced Business Profile locations and reviews"},
        {"name": "Sync", "description": "Location and review synchronisation"},
        {"name": "Templates", "description": "Reply templates"},
        {"name": "Replies", "description": "Suggestion and approval workflow"},
        {"name": "Exports", "description": "Reply history exports"}
    ],
    "paths": {
        "/auth/login": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Start Google authorization",
                "parameters": [
                    {"name": "redirect", "in": "query", "type": "string"},
                    {"name": "mode", "in": "query", "type": "string", "enum": ["json"]}
                ],
                "responses": {
                    "200": {"description": "Authorization URL", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "302": {"description": "Redirect to Google consent"}
                }
            }
        },
        "/auth/callback": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Complete Google authorization",
                "parameters": [
                    {"name": "code", "in": "query", "required": true, "type": "string"},
                    {"name": "state", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Operator session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid state or code", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Google unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/accounts": {
            "get": {
                "tags": ["Authentication"],
                "summary": "List connected accounts",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/accounts/{id}": {
            "delete": {
                "tags": ["Authentication"],
                "summary": "Disconnect account",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Disconnected"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/accounts/{id}/locations/sync": {
            "post": {
                "tags": ["Sync"],
                "summary": "Import locations of an account",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Sync result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Google unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/locations": {
            "get": {
                "tags": ["Locations"],
                "summary": "List locations",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "account_id", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/locations/{id}": {
            "get": {
                "tags": ["Locations"],
                "summary": "Get location",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "include_reviews", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/locations/{id}/reviews": {
            "get": {
                "tags": ["Locations"],
                "summary": "List reviews of a location",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "unreplied", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/locations/{id}/reviews/sync": {
            "post": {
                "tags": ["Sync"],
                "summary": "Import reviews of a location",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "Sync result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/locations/reviews/sync": {
            "post": {
                "tags": ["Sync"],
                "summary": "Queue a review sync for every location",
                "security": [{"BearerAuth": []}],
                "responses": {"202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/templates": {
            "get": {
                "tags": ["Templates"],
                "summary": "List templates",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "active_only", "in": "query", "type": "boolean"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Templates"],
                "summary": "Create template",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error or unknown variable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/{id}": {
            "get": {
                "tags": ["Templates"],
                "summary": "Get template",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Templates"],
                "summary": "Update template",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Templates"],
                "summary": "Delete template",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/templates/preview": {
            "post": {
                "tags": ["Templates"],
                "summary": "Render template content with sample values",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TemplatePreviewRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/templates/validate": {
            "post": {
                "tags": ["Templates"],
                "summary": "List the placeholders of template content",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TemplateValidateRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/replies/reviews/{reviewId}/suggest": {
            "post": {
                "tags": ["Replies"],
                "summary": "Suggest a reply",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "reviewId", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "201": {"description": "Pending reply stored", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Review not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already replied or pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No template available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/replies/pending": {
            "get": {
                "tags": ["Replies"],
                "summary": "List pending replies",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "location_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/replies/{id}/approve": {
            "post": {
                "tags": ["Replies"],
                "summary": "Approve and publish",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ApproveReplyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Submission failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/replies/{id}/reject": {
            "post": {
                "tags": ["Replies"],
                "summary": "Reject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/RejectReplyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/replies/{id}/edit": {
            "post": {
                "tags": ["Replies"],
                "summary": "Replace the suggested text",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditReplyRequest"}}
                ],
                "responses": {
                    "200": {"description": "Edited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/replies": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export reply history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ExportRepliesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Signed download link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download export",
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired link", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Export removed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateTemplateRequest": {
            "type": "object",
            "required": ["name", "content", "rating_min", "rating_max"],
            "properties": {
                "name": {"type": "string"},
                "content": {"type": "string", "example": "Thanks {author_name} for visiting {location_name}!"},
                "rating_min": {"type": "integer", "minimum": 1, "maximum": 5},
                "rating_max": {"type": "integer", "minimum": 1, "maximum": 5},
                "is_active": {"type": "boolean"}
            }
        },
        "TemplatePreviewRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "content": {"type": "string"},
                "author_name": {"type": "string"},
                "location_name": {"type": "string"},
                "rating": {"type": "integer"}
            }
        },
        "TemplateValidateRequest": {
            "type": "object",
            "properties": {"content": {"type": "string"}}
        },
        "ApproveReplyRequest": {
            "type": "object",
            "properties": {"edited_reply": {"type": "string"}}
        },
        "RejectReplyRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string"}}
        },
        "EditReplyRequest": {
            "type": "object",
            "required": ["suggested_reply"],
            "properties": {"suggested_reply": {"type": "string"}}
        },
        "ExportRepliesRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                "location_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
