// Package docs registers the OpenAPI document served under /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/api/modalities": {
            "get": {
                "produces": ["application/json"],
                "tags": ["assessment"],
                "summary": "List assessment modalities",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModalitiesResponse"}}
                }
            }
        },
        "/api/questionnaire": {
            "get": {
                "produces": ["application/json"],
                "tags": ["assessment"],
                "summary": "List questionnaire items",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.QuestionnaireResponse"}}
                }
            }
        },
        "/api/privacy": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Data handling statement",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/privacy.RetentionInfo"}}
                }
            }
        },
        "/api/assess/questionnaire": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["assessment"],
                "summary": "Estimate risk from symptom ratings",
                "parameters": [
                    {"description": "Ratings 0-10 keyed by symptom id", "name": "answers", "in": "body", "required": true,
                     "schema": {"type": "object", "additionalProperties": {"type": "integer"}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.Report"}},
                    "400": {"description": "Incomplete or invalid answers", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/assess/{modality}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["assessment"],
                "summary": "Simulated analysis of a captured clip",
                "parameters": [
                    {"type": "string", "enum": ["audio", "drawing"], "name": "modality", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.MediaAssessRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/analysis.Report"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Unknown clip", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/media/sessions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Start a recording session",
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.StartSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/types.SessionResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/media/sessions/{id}": {
            "delete": {
                "tags": ["media"],
                "summary": "Reset a recording session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Released"},
                    "404": {"description": "Unknown session", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/media/sessions/{id}/chunks": {
            "put": {
                "consumes": ["application/octet-stream"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Append a recorded chunk",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Position of the chunk in the recording, from 0", "name": "seq", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ChunkResponse"}},
                    "404": {"description": "Unknown session", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Chunk sent twice", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "413": {"description": "Recording too large", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/media/sessions/{id}/stop": {
            "post": {
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Stop recording and register the clip",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/media.ClipInfo"}},
                    "404": {"description": "Unknown session", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "422": {"description": "Empty or unsupported recording", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/media/uploads/{modality}": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["media"],
                "summary": "Upload a recording or drawing",
                "parameters": [
                    {"type": "string", "enum": ["audio", "drawing"], "name": "modality", "in": "path", "required": true},
                    {"type": "file", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/media.ClipInfo"}},
                    "415": {"description": "Unsupported media", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/api/media/clips/{id}": {
            "get": {
                "tags": ["media"],
                "summary": "Play back a clip",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Clip bytes"},
                    "404": {"description": "Unknown or revoked clip", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["media"],
                "summary": "Revoke a clip",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Released"},
                    "404": {"description": "Unknown clip", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "analysis.FeatureScore": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "score": {"type": "number"}}
        },
        "analysis.Report": {
            "type": "object",
            "properties": {
                "modality": {"type": "string"},
                "prediction": {"type": "string"},
                "is_positive": {"type": "boolean"},
                "confidence_percent": {"type": "number"},
                "healthy_percent": {"type": "number"},
                "disease_percent": {"type": "number"},
                "risk_tier": {"type": "string"},
                "features": {"type": "array", "items": {"$ref": "#/definitions/analysis.FeatureScore"}},
                "simulated": {"type": "boolean"},
                "disclaimer": {"type": "string"}
            }
        },
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "category": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "media.ClipInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "modality": {"type": "string"},
                "mime": {"type": "string"},
                "size": {"type": "integer"},
                "url": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "privacy.RetentionInfo": {
            "type": "object",
            "properties": {
                "ratings_stored": {"type": "boolean"},
                "results_stored": {"type": "boolean"},
                "capture_retention_seconds": {"type": "integer"},
                "response_cache_seconds": {"type": "integer"},
                "capture_released_on": {"type": "array", "items": {"type": "string"}},
                "anonymization_method": {"type": "string"}
            }
        },
        "types.ChunkResponse": {
            "type": "object",
            "properties": {"session_id": {"type": "string"}, "size": {"type": "integer"}}
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "version": {"type": "string"},
                "timestamp": {"type": "string"},
                "active_sessions": {"type": "integer"},
                "active_clips": {"type": "integer"},
                "redis": {"type": "string"}
            }
        },
        "types.MediaAssessRequest": {
            "type": "object",
            "required": ["clip_id"],
            "properties": {"clip_id": {"type": "string"}}
        },
        "types.ModalitiesResponse": {
            "type": "object",
            "properties": {"modalities": {"type": "array", "items": {"type": "object"}}}
        },
        "types.QuestionnaireResponse": {
            "type": "object",
            "properties": {"questions": {"type": "array", "items": {"type": "object"}}}
        },
        "types.SessionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "modality": {"type": "string"},
                "started_at": {"type": "string"},
                "max_clip_bytes": {"type": "integer"}
            }
        },
        "types.StartSessionRequest": {
            "type": "object",
            "required": ["modality"],
            "properties": {"modality": {"type": "string", "enum": ["audio", "drawing"]}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "NeuroPredict API",
	Description:      "Parkinson's symptom risk estimation. Voice and drawing results are simulated placeholders.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
