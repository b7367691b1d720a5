// Package docs holds the OpenAPI definition served by the swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{escape .Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/enrollments": {
            "get": {
                "summary": "List enrollment templates",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/enrollments/{name}": {
            "get": {
                "summary": "Get an enrollment template by slug",
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/enrollments/{name}/subscriptions": {
            "get": {
                "summary": "List subscriptions visible to the caller",
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Begin a subscription with initial attribute values",
                "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "422": {"description": "Validation Failed"}}
            }
        },
        "/subscriptions/{id}": {
            "get": {
                "summary": "Get a subscription with the caller's ACL",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "patch": {
                "summary": "Set field and scope values by name",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Validation Failed"}}
            },
            "delete": {
                "summary": "Withdraw a subscription",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/subscriptions/{id}/trigger": {
            "patch": {
                "summary": "Fire a named workflow event",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Rejected"}}
            }
        },
        "/subscriptions/{id}/documents": {
            "post": {
                "summary": "Upload a document into a typed slot",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/subscriptions/{id}/messages": {
            "get": {
                "summary": "List a subscription's messages",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "summary": "Author a message on a subscription",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Enrollment API",
	Description:      "Administrative enrollment workflow service",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
