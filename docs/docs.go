// Package docs registers the OpenAPI description served at /swagger/*any.
// Regenerate with `swag init -g cmd/api/main.go -o docs` after changing
// handler annotations.
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
        "/recommendations": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Matching"], "summary": "Recommend mentors", "operationId": "listRecommendations",
            "parameters": [
                {"type": "integer", "default": 5, "maximum": 50, "minimum": 1, "description": "Maximum candidates", "name": "top_k", "in": "query"},
                {"type": "number", "description": "Minimum score in [0,1]", "name": "min_score", "in": "query"}
            ],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RecommendationsResponse"}}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/skills": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Skills"], "summary": "List the skill catalog", "operationId": "listSkills",
            "responses": {"200": {"description": "OK"}}}},
        "/me/skills": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Skills"], "summary": "Get the caller's profile and skills", "operationId": "getMySkills",
            "responses": {"200": {"description": "OK"}, "404": {"description": "User not provisioned", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/me/skills/have": {"put": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "tags": ["Skills"], "summary": "Set a skill the caller can teach", "operationId": "setHaveSkill",
            "parameters": [{"description": "Skill and level", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SetHaveRequest"}}],
            "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "404": {"description": "Unknown skill", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/me/skills/have/{skill_id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["Skills"], "summary": "Remove a skill the caller can teach", "operationId": "removeHaveSkill",
            "parameters": [{"type": "integer", "description": "Skill ID", "name": "skill_id", "in": "path", "required": true}],
            "responses": {"204": {"description": "No Content"}}}},
        "/me/skills/want": {"put": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "tags": ["Skills"], "summary": "Add a skill the caller wants to learn", "operationId": "setWantSkill",
            "parameters": [{"description": "Skill", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SetWantRequest"}}],
            "responses": {"204": {"description": "No Content"}}}},
        "/me/skills/want/{skill_id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["Skills"], "summary": "Remove a skill the caller wants to learn", "operationId": "removeWantSkill",
            "parameters": [{"type": "integer", "description": "Skill ID", "name": "skill_id", "in": "path", "required": true}],
            "responses": {"204": {"description": "No Content"}}}},
        "/users/{id}": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Skills"], "summary": "Get a user's public profile", "operationId": "getUser",
            "parameters": [{"type": "integer", "description": "User ID", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "User not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/requests": {"post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Requests"], "summary": "Send a connection request", "operationId": "createRequest",
            "parameters": [
                {"type": "string", "description": "Idempotency key for safe retries", "name": "Idempotency-Key", "in": "header"},
                {"description": "Target user and note", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateRequestRequest"}}
            ],
            "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.RequestView"}}, "400": {"description": "Bad request or self-request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "404": {"description": "Unknown user", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "409": {"description": "Active request exists", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/requests/incoming": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Requests"], "summary": "List requests addressed to the caller", "operationId": "listIncomingRequests",
            "responses": {"200": {"description": "OK"}}}},
        "/requests/outgoing": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Requests"], "summary": "List requests the caller sent", "operationId": "listOutgoingRequests",
            "responses": {"200": {"description": "OK"}}}},
        "/requests/{id}": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Requests"], "summary": "Get a connection request", "operationId": "getRequest",
            "parameters": [{"type": "string", "format": "uuid", "description": "Request ID (UUID)", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RequestView"}}, "403": {"description": "Not a party", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/requests/{id}/action": {"post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["Requests"], "summary": "Accept, reject, or cancel a request", "operationId": "actOnRequest",
            "parameters": [
                {"type": "string", "format": "uuid", "description": "Request ID (UUID)", "name": "id", "in": "path", "required": true},
                {"description": "accept | reject | cancel", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ActionRequest"}}
            ],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid action", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "403": {"description": "Not allowed for this party", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "409": {"description": "Already processed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/connections": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Requests"], "summary": "List the caller's connections", "operationId": "listConnections",
            "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Conversations"], "summary": "Get a conversation", "operationId": "getConversation",
            "parameters": [{"type": "string", "format": "uuid", "description": "Conversation ID (UUID)", "name": "id", "in": "path", "required": true}],
            "responses": {"200": {"description": "OK"}, "403": {"description": "Not a participant", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}, "404": {"description": "Not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/chat/{room_id}/messages": {"get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["Chat"], "summary": "List chat history for a room", "operationId": "listRoomMessages",
            "parameters": [
                {"type": "string", "description": "Room ID", "name": "room_id", "in": "path", "required": true},
                {"type": "integer", "default": 1, "minimum": 1, "description": "Page number", "name": "page", "in": "query"},
                {"type": "integer", "default": 50, "maximum": 200, "minimum": 1, "description": "Items per page", "name": "page_size", "in": "query"}
            ],
            "responses": {"200": {"description": "OK"}, "304": {"description": "Not modified"}, "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/ws/chat/{room_id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Realtime"], "summary": "Join a chat room over websocket", "operationId": "chatSocket",
            "parameters": [
                {"type": "string", "description": "Room ID", "name": "room_id", "in": "path", "required": true},
                {"type": "string", "description": "Bearer token", "name": "token", "in": "query"}
            ],
            "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}},
        "/ws/video/{room_id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Realtime"], "summary": "Join a call-signaling room over websocket", "operationId": "videoSocket",
            "parameters": [
                {"type": "string", "description": "Room ID", "name": "room_id", "in": "path", "required": true},
                {"type": "string", "description": "Bearer token", "name": "token", "in": "query"}
            ],
            "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}}}}
    },
    "definitions": {
        "handlers.ErrorResponse": {"type": "object", "properties": {
            "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
            "code": {"type": "string", "example": "not_found"},
            "message": {"type": "string", "example": "resource not found"}}},
        "handlers.RecommendationsResponse": {"type": "object", "properties": {
            "candidates": {"type": "array", "items": {"type": "object", "properties": {
                "id": {"type": "integer"}, "name": {"type": "string"}, "score": {"type": "number"},
                "skills_have": {"type": "array", "items": {"type": "object"}},
                "skills_want": {"type": "array", "items": {"type": "string"}}}}}}},
        "handlers.SetHaveRequest": {"type": "object", "required": ["level", "skill_id"], "properties": {
            "skill_id": {"type": "integer", "example": 3}, "level": {"type": "string", "example": "advanced"}}},
        "handlers.SetWantRequest": {"type": "object", "required": ["skill_id"], "properties": {
            "skill_id": {"type": "integer", "example": 7}}},
        "handlers.CreateRequestRequest": {"type": "object", "required": ["to_user_id"], "properties": {
            "to_user_id": {"type": "integer", "example": 42}, "message": {"type": "string", "example": "Could you help me get started with Django?"}}},
        "handlers.ActionRequest": {"type": "object", "required": ["action"], "properties": {
            "action": {"type": "string", "example": "accept"}}},
        "handlers.RequestView": {"type": "object", "properties": {
            "id": {"type": "string"}, "from_user_id": {"type": "integer"}, "from_username": {"type": "string"},
            "to_user_id": {"type": "integer"}, "to_username": {"type": "string"}, "message": {"type": "string"},
            "status": {"type": "string"}, "created_at": {"type": "string"}, "updated_at": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "SkillSwap API",
	Description:      "Skill matching, connection requests, and realtime rooms for peer mentoring.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
