// Package docs registers the OpenAPI document for the HTTP API with swag.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/state": {
            "post": {
                "summary": "Report the current state of a resource instance",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.OperationRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "400": {"description": "Invalid request or definition", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "409": {"description": "Indeterminate state", "schema": {"$ref": "#/definitions/dto.OperationResponse"}}
                }
            }
        },
        "/assert": {
            "post": {
                "summary": "Evaluate the assertions of the current state",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.OperationRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AssertResponse"}},
                    "409": {"description": "Indeterminate state", "schema": {"$ref": "#/definitions/dto.AssertResponse"}}
                }
            }
        },
        "/migrate": {
            "post": {
                "summary": "Migrate a resource instance to a target state",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.OperationRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "400": {"description": "Invalid target or definition", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "404": {"description": "Plugin not found", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "409": {"description": "No unique path to the target", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "422": {"description": "Assertion failed after a migration", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "500": {"description": "Migration failed", "schema": {"$ref": "#/definitions/dto.OperationResponse"}}
                }
            }
        },
        "/jumpstate": {
            "post": {
                "summary": "Record a target state without running migrations",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.OperationRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/dto.OperationResponse"}},
                    "422": {"description": "Target state assertions failed", "schema": {"$ref": "#/definitions/dto.OperationResponse"}}
                }
            }
        },
        "/plugins": {
            "get": {
                "summary": "List the registered plugin groups",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PluginsResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Health check",
                "security": [],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "dto.OperationRequest": {
            "type": "object",
            "properties": {
                "resource": {"type": "string", "description": "Resource document (YAML)"},
                "resource_path": {"type": "string"},
                "instance": {"type": "string", "description": "Instance document (YAML)"},
                "instance_path": {"type": "string"},
                "instance_name": {"type": "string", "description": "Instance configured through WB_INSTANCE_<NAME>_*"},
                "target": {"type": "string", "description": "Target state label or id"},
                "metadata": {"type": "object"}
            }
        },
        "dto.AssertionResult": {
            "type": "object",
            "properties": {
                "assertion_id": {"type": "string"},
                "description": {"type": "string"},
                "result": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "dto.OperationResponse": {
            "type": "object",
            "properties": {
                "job_id": {"type": "string"},
                "queued": {"type": "boolean"},
                "operation": {"type": "string"},
                "success": {"type": "boolean"},
                "state_id": {"type": "string"},
                "state_label": {"type": "string"},
                "applied": {"type": "array", "items": {"type": "string"}},
                "results": {"type": "array", "items": {"$ref": "#/definitions/dto.AssertionResult"}},
                "error_kind": {"type": "string"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.AssertResponse": {
            "type": "object",
            "properties": {
                "passed": {"type": "boolean"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/dto.AssertionResult"}},
                "error_kind": {"type": "string"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.PluginsResponse": {
            "type": "object",
            "properties": {
                "plugins": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "uri": {"type": "string"},
                            "name": {"type": "string"},
                            "description": {"type": "string"}
                        }
                    }
                }
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
	Title:            "Wildebeest API",
	Description:      "Drives resource instances through their declared state graphs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
