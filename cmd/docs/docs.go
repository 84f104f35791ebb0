// Package docs registers the swagger document served under /swagger.
// Regenerate with: swag init -g cmd/rental_backoffice/serve.go -o cmd/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/projects": {
            "get": {
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "List projects",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["projects"],
                "summary": "Create a project",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}
            }
        },
        "/projects/{projectId}/rentals": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rentals"],
                "summary": "List a project's rentals",
                "parameters": [
                    {"type": "integer", "name": "projectId", "in": "path", "required": true},
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "integer", "name": "client_id", "in": "query"},
                    {"type": "integer", "name": "operator_id", "in": "query"},
                    {"type": "integer", "name": "equipment_id", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "nextToken", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/projects/{projectId}/payments": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["payments"],
                "summary": "Receive a general payment from a client",
                "parameters": [{"type": "integer", "name": "projectId", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Client owes nothing"}}
            }
        },
        "/jobs/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Current or last job",
                "responses": {"200": {"description": "OK"}}
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
	Title:            "Rental Back-office API",
	Description:      "Projects, equipment, rentals, payments and maintenance over the local or remote store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
