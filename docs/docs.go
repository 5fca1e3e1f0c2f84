// Package docs registers the Swagger 2.0 document served under /swagger.
// It is maintained by hand next to the handlers; the router tests fail when a
// mounted route is missing from it.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Health of the service and its dependencies", "security": [], "responses": {"200": {"description": "healthy"}, "503": {"description": "a check failed"}}}
        },
        "/koudens/{kouden_id}/return-records": {
            "parameters": [{"$ref": "#/parameters/koudenID"}],
            "get": {"tags": ["return-records"], "summary": "List the ledger's return records", "responses": {"200": {"$ref": "#/responses/ok"}}},
            "post": {"tags": ["return-records"], "summary": "Create the return record of a gift entry", "parameters": [{"$ref": "#/parameters/body"}], "responses": {"201": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}, "404": {"$ref": "#/responses/error"}, "409": {"$ref": "#/responses/error"}}}
        },
        "/koudens/{kouden_id}/return-records/page": {
            "parameters": [{"$ref": "#/parameters/koudenID"}],
            "get": {"tags": ["return-records"], "summary": "One cursor page of return records, newest first", "parameters": [
                {"name": "limit", "in": "query", "type": "integer"},
                {"name": "cursor", "in": "query", "type": "string"},
                {"name": "search", "in": "query", "type": "string"},
                {"name": "status", "in": "query", "type": "string"}
            ], "responses": {"200": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}}}
        },
        "/koudens/{kouden_id}/return-records/bulk-update": {
            "parameters": [{"$ref": "#/parameters/koudenID"}],
            "post": {"tags": ["return-records"], "summary": "Apply one update to every record matching a filter", "parameters": [{"$ref": "#/parameters/body"}], "responses": {"200": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}}}
        },
        "/koudens/{kouden_id}/return-summaries": {
            "parameters": [{"$ref": "#/parameters/koudenID"}],
            "get": {"tags": ["summaries"], "summary": "One summary per gift entry of the ledger", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/koudens/{kouden_id}/return-summaries/bulk-edit": {
            "parameters": [{"$ref": "#/parameters/koudenID"}],
            "get": {"tags": ["summaries"], "summary": "Every summary of the ledger, read fresh", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/koudens/{kouden_id}/return-statistics": {
            "parameters": [{"$ref": "#/parameters/koudenID"}],
            "get": {"tags": ["summaries"], "summary": "Status counts and return totals of the ledger", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/entries/{entry_id}/return-record": {
            "parameters": [{"$ref": "#/parameters/entryID"}],
            "get": {"tags": ["return-records"], "summary": "The entry's return record, or null", "responses": {"200": {"$ref": "#/responses/ok"}}},
            "delete": {"tags": ["return-records"], "summary": "Delete the entry's return record", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/entries/{entry_id}/return-record/field": {
            "parameters": [{"$ref": "#/parameters/entryID"}],
            "patch": {"tags": ["return-records"], "summary": "Update one field by entry id", "parameters": [{"$ref": "#/parameters/body"}], "responses": {"200": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}, "404": {"$ref": "#/responses/error"}}}
        },
        "/return-records/batch-delete": {
            "post": {"tags": ["return-records"], "summary": "Delete records by id across ledgers", "parameters": [{"$ref": "#/parameters/body"}], "responses": {"200": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}}}
        },
        "/return-records/{id}": {
            "parameters": [{"$ref": "#/parameters/recordID"}],
            "patch": {"tags": ["return-records"], "summary": "Update several allow-listed fields", "parameters": [{"$ref": "#/parameters/body"}], "responses": {"200": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}, "404": {"$ref": "#/responses/error"}}}
        },
        "/return-records/{id}/field": {
            "parameters": [{"$ref": "#/parameters/recordID"}],
            "patch": {"tags": ["return-records"], "summary": "Update one field", "parameters": [{"$ref": "#/parameters/body"}], "responses": {"200": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}, "404": {"$ref": "#/responses/error"}}}
        },
        "/return-records/{id}/items": {
            "parameters": [{"$ref": "#/parameters/recordID"}],
            "put": {"tags": ["return-records"], "summary": "Replace the return items and recompute their cost", "parameters": [{"$ref": "#/parameters/body"}], "responses": {"200": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}, "404": {"$ref": "#/responses/error"}}}
        }
    },
    "parameters": {
        "koudenID": {"name": "kouden_id", "in": "path", "required": true, "type": "string", "format": "uuid"},
        "entryID": {"name": "entry_id", "in": "path", "required": true, "type": "string", "format": "uuid"},
        "recordID": {"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"},
        "body": {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
    },
    "responses": {
        "ok": {"description": "success envelope", "schema": {"$ref": "#/definitions/Envelope"}},
        "error": {"description": "error envelope", "schema": {"$ref": "#/definitions/Envelope"}}
    },
    "definitions": {
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "requestId": {"type": "string"},
                        "details": {"type": "array", "items": {"type": "object"}}
                    }
                },
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Kouden Return Records API",
	Description:      "Return-gift tracking for condolence gift ledgers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
