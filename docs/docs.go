// Package docs registers the OpenAPI description served by gin-swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@nexconsult.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/consult": {
            "post": {
                "description": "Consults the Receita Federal and returns a ZIP with Cartao_CNPJ.pdf and, when available, QSA.pdf",
                "consumes": ["application/json"],
                "produces": ["application/zip", "application/json"],
                "tags": ["Consult"],
                "summary": "Download the registration documents of a CNPJ",
                "parameters": [
                    {
                        "description": "CNPJ to consult",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.ConsultRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "ZIP archive", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "428": {"description": "Precondition Required", "schema": {"$ref": "#/definitions/models.ChallengeResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/consult/{cnpj}": {
            "get": {
                "description": "Same as POST /api/consult with the CNPJ in the path; punctuation is accepted",
                "produces": ["application/zip", "application/json"],
                "tags": ["Consult"],
                "summary": "Download the registration documents of a CNPJ",
                "parameters": [
                    {
                        "type": "string",
                        "example": "11222333000181",
                        "description": "CNPJ number",
                        "name": "cnpj",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "ZIP archive", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "428": {"description": "Precondition Required", "schema": {"$ref": "#/definitions/models.ChallengeResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "description": "Reports that the backend is running and which acquisition backend it uses",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Ping",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.PingResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Get the health status of the API and its dependencies",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "Check if the API is ready to serve requests",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/health/live": {
            "get": {
                "description": "Check if the API is alive and responding",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/metrics": {
            "get": {
                "description": "Outcome counters, session usage, cache counters and runtime statistics",
                "produces": ["application/json"],
                "tags": ["Metrics"],
                "summary": "Get application metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MetricsResponse"}}
                }
            }
        },
        "/api/v1/sessions/stats": {
            "get": {
                "description": "Concurrency cap, in-flight and queued consultations of the browser backends",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Get browser session statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/cache/stats": {
            "get": {
                "description": "Redis availability, memory tier size and hit counters of the registry payload cache",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Get cache statistics",
                "parameters": [
                    {"type": "string", "description": "Admin token, required when ADMIN_TOKEN is set", "name": "X-Admin-Token", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/cache/clear": {
            "delete": {
                "description": "Remove every cached registry payload",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Clear all cache",
                "parameters": [
                    {"type": "string", "description": "Admin token, required when ADMIN_TOKEN is set", "name": "X-Admin-Token", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/api/v1/cache/{cnpj}": {
            "delete": {
                "description": "Forget the cached registry payload of one CNPJ",
                "produces": ["application/json"],
                "tags": ["Cache"],
                "summary": "Delete specific CNPJ from cache",
                "parameters": [
                    {"type": "string", "description": "CNPJ number", "name": "cnpj", "in": "path", "required": true},
                    {"type": "string", "description": "Admin token, required when ADMIN_TOKEN is set", "name": "X-Admin-Token", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.ConsultRequest": {
            "type": "object",
            "properties": {
                "cnpj": {"type": "string", "example": "11.222.333/0001-81"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Invalid CNPJ"},
                "message": {"type": "string", "example": "CNPJ must have 14 digits, got 9"},
                "code": {"type": "string", "example": "INVALID_CNPJ"},
                "stage": {"type": "string", "example": "input"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string", "example": "2024-01-15T10:30:00Z"},
                "path": {"type": "string", "example": "/api/consult"}
            }
        },
        "models.ChallengeResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Challenge required"},
                "message": {"type": "string"},
                "code": {"type": "string", "example": "CHALLENGE_REQUIRED"},
                "challenge_image": {"type": "string", "description": "base64 encoded image"},
                "content_type": {"type": "string", "example": "image/png"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "models.PingResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "message": {"type": "string", "example": "Backend rodando! (chromedp)"}
            }
        },
        "models.ServiceInfo": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "last_check": {"type": "string"},
                "response_time_ms": {"type": "integer", "example": 2},
                "error": {"type": "string"}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "timestamp": {"type": "string"},
                "version": {"type": "string", "example": "1.0.0"},
                "backend": {"type": "string", "example": "chromedp"},
                "services": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/models.ServiceInfo"}
                },
                "uptime": {"type": "string", "example": "2h30m45s"}
            }
        },
        "models.MetricsResponse": {
            "type": "object",
            "properties": {
                "consultations": {"type": "object", "additionalProperties": true},
                "performance": {"type": "object", "additionalProperties": true},
                "cache": {"type": "object", "additionalProperties": true},
                "sessions": {"type": "object", "additionalProperties": true},
                "system": {"type": "object", "additionalProperties": true},
                "backend": {"type": "string", "example": "chromedp"},
                "timestamp": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "CNPJ Documents API",
	Description:      "Downloads the CNPJ registration card and partner roster (QSA) of Brazilian companies as a ZIP archive",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
