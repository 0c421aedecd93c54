package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Club Enrollment API",
        "description": "Club enrollment and fee payment wizard service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Clubs", "description": "Club catalogue and rosters"},
        {"name": "Enrollment Wizard", "description": "Multi-step club enrollment"},
        {"name": "Payment Wizard", "description": "Multi-step fee payment"},
        {"name": "Receipts", "description": "Signed receipt downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/clubs": {
            "get": {
                "tags": ["Clubs"],
                "summary": "List clubs",
                "parameters": [
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clubs/{id}": {
            "get": {
                "tags": ["Clubs"],
                "summary": "Get club detail with live enrollment count",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/clubs/{id}/roster": {
            "get": {
                "tags": ["Clubs"],
                "summary": "Export club roster as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/enrollments/wizard": {
            "post": {
                "tags": ["Enrollment Wizard"],
                "summary": "Start a club enrollment wizard session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/WizardState"}}
                }
            }
        },
        "/enrollments/wizard/resume": {
            "post": {
                "tags": ["Enrollment Wizard"],
                "summary": "Reopen a saved enrollment draft in a new session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResumeDraftRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/WizardState"}},
                    "404": {"description": "Draft not found"},
                    "412": {"description": "Enrollment is no longer a draft"}
                }
            }
        },
        "/enrollments/wizard/{sessionId}": {
            "get": {
                "tags": ["Enrollment Wizard"],
                "summary": "Get the current session snapshot",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardState"}},
                    "404": {"description": "Session not found"},
                    "410": {"description": "Session expired"}
                }
            }
        },
        "/enrollments/wizard/{sessionId}/club": {
            "put": {
                "tags": ["Enrollment Wizard"],
                "summary": "Select the club for the session",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectClubRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardState"}},
                    "409": {"description": "Club at capacity"}
                }
            }
        },
        "/enrollments/wizard/{sessionId}/students": {
            "get": {
                "tags": ["Enrollment Wizard"],
                "summary": "List students eligible for the selected club",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/wizard/{sessionId}/student": {
            "put": {
                "tags": ["Enrollment Wizard"],
                "summary": "Select the student for the session",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardState"}}
                }
            }
        },
        "/enrollments/wizard/{sessionId}/payment": {
            "patch": {
                "tags": ["Enrollment Wizard"],
                "summary": "Merge a partial payment update",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardState"}}
                }
            }
        },
        "/enrollments/wizard/{sessionId}/proration": {
            "get": {
                "tags": ["Enrollment Wizard"],
                "summary": "Preview the month-by-month fee projection",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/wizard/{sessionId}/next": {
            "post": {
                "tags": ["Enrollment Wizard"],
                "summary": "Advance one step, saving the draft",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/WizardState"}},
                    "409": {"description": "Draft modified by another session"}
                }
            }
        },
        "/enrollments/wizard/{sessionId}/submit": {
            "post": {
                "tags": ["Enrollment Wizard"],
                "summary": "Finalize the enrollment",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SubmitResponse"}},
                    "409": {"description": "Club at capacity"},
                    "412": {"description": "Enrollment incomplete"}
                }
            }
        },
        "/payments/wizard": {
            "post": {
                "tags": ["Payment Wizard"],
                "summary": "Start a payment wizard session",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/WizardState"}}
                }
            }
        },
        "/payments/wizard/{sessionId}/receipt-number": {
            "post": {
                "tags": ["Payment Wizard"],
                "summary": "Pre-fill the next receipt number",
                "parameters": [
                    {"name": "sessionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "412": {"description": "Payment method not chosen"}
                }
            }
        },
        "/payments/{id}": {
            "get": {
                "tags": ["Payment Wizard"],
                "summary": "Get a payment with its display context",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Payment not found"}
                }
            }
        },
        "/payments/{id}/receipt-link": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Get a signed download link for a receipt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Receipt not generated yet"}
                }
            }
        },
        "/receipts/download": {
            "get": {
                "tags": ["Receipts"],
                "summary": "Download a receipt PDF with a signed token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF receipt"},
                    "403": {"description": "Invalid or expired link"}
                }
            }
        }
    },
    "definitions": {
        "SelectClubRequest": {
            "type": "object",
            "required": ["club_id"],
            "properties": {
                "club_id": {"type": "string"}
            }
        },
        "ResumeDraftRequest": {
            "type": "object",
            "required": ["draft_id"],
            "properties": {
                "draft_id": {"type": "string"}
            }
        },
        "SelectStudentRequest": {
            "type": "object",
            "required": ["student_id"],
            "properties": {
                "student_id": {"type": "string"}
            }
        },
        "UpdatePaymentRequest": {
            "type": "object",
            "properties": {
                "amount": {"type": "number"},
                "method": {"type": "string", "enum": ["cash", "bank_transfer", "mobile_money"]},
                "receipt_number": {"type": "string"},
                "transaction_ref": {"type": "string"},
                "notes": {"type": "string"},
                "payer_type": {"type": "string", "enum": ["father", "mother", "enrolling_person", "other"]},
                "payer_name": {"type": "string"},
                "payer_phone": {"type": "string"},
                "payer_email": {"type": "string"},
                "custom_total": {"type": "number"},
                "is_prorated": {"type": "boolean"}
            }
        },
        "WizardState": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "current_step": {"type": "integer"},
                "completed_steps": {"type": "array", "items": {"type": "integer"}},
                "can_proceed": {"type": "boolean"},
                "data": {"type": "object"},
                "is_dirty": {"type": "boolean"},
                "is_submitting": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "SubmitResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "number": {"type": "string"},
                "status": {"type": "string"}
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
                "status": {"type": "integer"}
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
