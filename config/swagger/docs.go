// Package swagger registers the API documentation served at /swagger.
// Regenerate with: swag init -o config/swagger
package swagger

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
        "/ping": {
            "get": {
                "description": "Returns a basic message",
                "produces": ["application/json"],
                "tags": ["test"],
                "summary": "Endpoint just pings the server",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/message"}}}
            }
        },
        "/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/error"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            },
            "delete": {
                "description": "Tears the local session down. Guests of a leaving host stop receiving updates.",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Leaves the session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/host": {
            "post": {
                "description": "Creates a session with the caller as host and returns its state",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Hosts a new session",
                "parameters": [{"description": "Display name of the host", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.hostRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/join": {
            "post": {
                "description": "Sends a join request for the given code. The returned state is pending until the host admits the guest.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Joins a session",
                "parameters": [{"description": "Display name and session code", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.joinRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/location": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Moves the session to location setup",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/lobby": {
            "post": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Goes back from location setup to the lobby",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/round": {
            "post": {
                "description": "Fetches candidates for a location and starts swiping on them. On discovery failure the session does not change.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Starts a round",
                "parameters": [{"description": "Location query and filters", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.roundRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/keep-swiping": {
            "post": {
                "description": "Resumes swiping over the same candidates as a new round. Earlier approvals are forgotten.",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Keeps swiping after a match",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/approve": {
            "post": {
                "description": "Swipe right. The host decides whether it completes a match.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Approves a candidate",
                "parameters": [{"description": "Candidate id", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.candidateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/message"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        },
        "/session/reject": {
            "post": {
                "description": "Swipe left. Kept in this process only, never shared with the group.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Rejects a candidate",
                "parameters": [{"description": "Candidate id", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.candidateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/node.State"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/error"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/error"}}
                }
            }
        }
    },
    "definitions": {
        "message": {"type": "object", "properties": {"message": {"type": "string"}}},
        "error": {"type": "object", "properties": {"error": {"type": "string"}}},
        "controllers.hostRequest": {"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}},
        "controllers.joinRequest": {"type": "object", "required": ["code", "name"], "properties": {"code": {"type": "string"}, "name": {"type": "string"}}},
        "controllers.roundRequest": {
            "type": "object",
            "required": ["location"],
            "properties": {
                "location": {"type": "string"},
                "radius": {"type": "number"},
                "prices": {"type": "array", "items": {"type": "string"}},
                "min_rating": {"type": "number"}
            }
        },
        "controllers.candidateRequest": {"type": "object", "required": ["candidate_id"], "properties": {"candidate_id": {"type": "string"}}},
        "session.Participant": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "displayName": {"type": "string"},
                "isHost": {"type": "boolean"},
                "activity": {"type": "string"}
            }
        },
        "session.Candidate": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "category": {"type": "string"},
                "priceTier": {"type": "string"},
                "rating": {"type": "number"},
                "proximity": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "imageRef": {"type": "string"},
                "externalMapRef": {"type": "string"},
                "reviews": {"type": "integer"}
            }
        },
        "session.Session": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "phase": {"type": "string"},
                "participants": {"type": "array", "items": {"$ref": "#/definitions/session.Participant"}},
                "candidates": {"type": "array", "items": {"$ref": "#/definitions/session.Candidate"}}
            }
        },
        "node.State": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "self": {"$ref": "#/definitions/session.Participant"},
                "joinState": {"type": "string"},
                "session": {"$ref": "#/definitions/session.Session"},
                "match": {"$ref": "#/definitions/session.Candidate"},
                "rejected": {"type": "array", "items": {"type": "string"}}
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
	Title:            "Dinder API",
	Description:      "Gin-Gonic server for the local side of a Dinder session",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
