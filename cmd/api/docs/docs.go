// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o cmd/api/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "description": "Check if the API is running and which features are enabled",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/analyze": {
            "post": {
                "description": "Upload a CSV or XLSX file and get per-column types, statistics, data quality and likely report types",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Profile a dataset",
                "parameters": [
                    {"type": "file", "description": "CSV or XLSX dataset", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "413": {"description": "Request Entity Too Large", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "415": {"description": "Unsupported Media Type", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/suggest": {
            "post": {
                "description": "Deterministic report specification derived from the dataset profile",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Suggest a report specification",
                "parameters": [
                    {"type": "file", "description": "CSV or XLSX dataset", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/plan": {
            "post": {
                "description": "Ask the configured planning service for a specification; optionally fall back to the heuristic suggestion",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Plan a report specification with AI",
                "parameters": [
                    {"type": "file", "description": "CSV or XLSX dataset", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "What the report should show", "name": "intent", "in": "formData"},
                    {"type": "boolean", "description": "Use the heuristic suggestion when planning fails", "name": "fallback", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "504": {"description": "Gateway Timeout", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/render": {
            "post": {
                "description": "Render the dataset with a supplied, AI-planned or suggested specification. Without a format the rendered document is returned as JSON.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json", "application/pdf", "text/html"],
                "tags": ["Reports"],
                "summary": "Render a report",
                "parameters": [
                    {"type": "string", "description": "pdf, docx, html, xlsx or md", "name": "format", "in": "query"},
                    {"type": "file", "description": "CSV or XLSX dataset", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Report specification JSON", "name": "spec", "in": "formData"},
                    {"type": "string", "description": "What the report should show", "name": "intent", "in": "formData"},
                    {"type": "boolean", "description": "Plan with AI when no spec is supplied", "name": "use_ai", "in": "formData"},
                    {"type": "boolean", "description": "Use the heuristic suggestion when planning fails (default true)", "name": "fallback", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "GovReport API",
	Description:      "Turns uploaded tabular data into validated, rendered reports (PDF, DOCX, HTML, XLSX, Markdown)",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
