// Package docs holds the Swagger description served under /swagger/ when the
// binary is built with -tags=swagger. Regenerate with `swag init -g cmd/ttsloader/docs.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "ttsloader maintainers"
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
        "/healthz": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["system"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "ok", "schema": {"type": "string"}}}
            }
        },
        "/devices": {
            "get": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Default device request and its resolution",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}}}
            }
        },
        "/devices/reset": {
            "post": {
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Drop the cached auto device resolution and re-probe",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DeviceResponse"}}}
            }
        },
        "/engines": {
            "get": {
                "produces": ["application/json"],
                "tags": ["engines"],
                "summary": "Engine capability table",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EnginesResponse"}}}
            }
        },
        "/engines/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["engines"],
                "summary": "Capabilities of one engine",
                "parameters": [{"type": "string", "description": "engine id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EngineInfo"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Models discovered in the models directory",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Cache and loader status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/load": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Load a model through its fallback chain",
                "parameters": [{"description": "load request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.LoadRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.LoadResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/unload": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["models"],
                "summary": "Drop a cached model",
                "parameters": [{"description": "cache key", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.UnloadRequest"}}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.DeviceResponse": {
            "type": "object",
            "properties": {
                "requested": {"type": "string", "example": "auto"},
                "resolved": {"type": "string", "example": "cuda"},
                "cached": {"type": "boolean"},
                "valid": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.EngineInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "chatterbox"},
                "supports_voice_conversion": {"type": "boolean"},
                "multilingual_model_switching": {"type": "boolean"},
                "can_corrupt_on_reload": {"type": "boolean"},
                "requires_special_init": {"type": "boolean"},
                "has_recovery_handler": {"type": "boolean"},
                "fallback_languages": {"type": "array", "items": {"type": "string"}},
                "loadable": {"type": "boolean"}
            }
        },
        "types.EnginesResponse": {
            "type": "object",
            "properties": {
                "engines": {"type": "array", "items": {"$ref": "#/definitions/types.EngineInfo"}}
            }
        },
        "types.LocalModel": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "engine": {"type": "string"},
                "name": {"type": "string"},
                "path": {"type": "string"},
                "format": {"type": "string"},
                "languages": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.LocalModel"}}
            }
        },
        "types.LoadRequest": {
            "type": "object",
            "properties": {
                "engine": {"type": "string", "example": "f5tts"},
                "device": {"type": "string", "example": "auto"},
                "model": {"type": "string", "example": "local:F5TTS_v1_Base"},
                "model_type": {"type": "string", "example": "tts"},
                "language": {"type": "string", "example": "French"},
                "path": {"type": "string"},
                "repo_id": {"type": "string", "example": "SWivid/F5-TTS"},
                "params": {"type": "object", "additionalProperties": true}
            }
        },
        "types.LoadResponse": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "device": {"type": "string", "example": "cuda"},
                "loader": {"type": "string", "example": "English model"},
                "attempted": {"type": "array", "items": {"type": "string"}},
                "cached": {"type": "boolean"}
            }
        },
        "types.UnloadRequest": {
            "type": "object",
            "properties": {
                "key": {"type": "string"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400},
                "kind": {"type": "string", "example": "not_found"},
                "attempts": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "additionalProperties": true
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "ttsloader API",
	Description:      "HTTP API for TTS model loading: device resolution, engine capabilities and fallback loading.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
