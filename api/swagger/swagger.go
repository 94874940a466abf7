package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Lifecycle API",
        "description": "Enrollment, renewal and churn analytics over spreadsheet-sourced student records",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Metrics", "description": "Lifecycle metrics over a date range"},
        {"name": "Dataset", "description": "Dataset ingestion and quality"},
        {"name": "Reports", "description": "Downloadable report exports"}
    ],
    "paths": {
        "/metrics/snapshot": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Headline lifecycle metrics for a date range",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/monthly": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Month-by-month lifecycle trend for a date range",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/categories": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Per-category enrollment, renewal and churn counts",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "top", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/students": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Students behind one headline metric",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "metric", "in": "query", "required": true, "type": "string", "enum": ["new_enrollments", "eligible", "renewed", "churned", "in_grace", "multi_activity"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dataset/refresh": {
            "post": {
                "tags": ["Dataset"],
                "summary": "Re-fetch all source tabs and rebuild the dataset",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dataset/diagnostics": {
            "get": {
                "tags": ["Dataset"],
                "summary": "Row-level quality counters for the current dataset",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the lifecycle report for a date range",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "UnifiedMetrics": {
            "type": "object",
            "properties": {
                "range": {"type": "object"},
                "new_enrollments": {"type": "integer"},
                "eligible_for_renewal": {"type": "integer"},
                "renewed_students": {"type": "integer"},
                "churned_students": {"type": "integer"},
                "in_grace_students": {"type": "integer"},
                "multi_activity_students": {"type": "integer"},
                "active_at_start": {"type": "integer"},
                "active_at_end": {"type": "integer"},
                "renewal_percentage": {"type": "number"},
                "churn_percentage": {"type": "number"},
                "retention_percentage": {"type": "number"},
                "net_growth_percentage": {"type": "number"},
                "lifetime_value": {"type": "string"}
            }
        },
        "MonthlyMetrics": {
            "type": "object",
            "properties": {
                "month": {"type": "string"},
                "period_start": {"type": "string"},
                "period_end": {"type": "string"},
                "active_at_start": {"type": "integer"},
                "new_enrollments": {"type": "integer"},
                "renewals": {"type": "integer"},
                "churned": {"type": "integer"},
                "active_at_end": {"type": "integer"},
                "renewal_rate": {"type": "number"},
                "churn_rate": {"type": "number"}
            }
        },
        "CategoryMetrics": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "enrollments": {"type": "integer"},
                "renewals": {"type": "integer"},
                "churned": {"type": "integer"}
            }
        },
        "Diagnostics": {
            "type": "object",
            "properties": {
                "rows_seen": {"type": "integer"},
                "missing_ids": {"type": "integer"},
                "invalid_dates": {"type": "integer"},
                "invalid_rows": {"type": "integer"},
                "struck_off": {"type": "integer"},
                "unmatched_renewals": {"type": "integer"},
                "duplicate_renewal_dates": {"type": "integer"}
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
