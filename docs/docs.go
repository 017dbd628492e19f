// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
            "email": "support@teacherportfolio.kz"
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {"200": {"description": "Signed in"}, "401": {"description": "Invalid IIN or password"}}
            }
        },
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Refresh session", "responses": {"200": {"description": "Session refreshed"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Sign out", "responses": {"200": {"description": "Signed out"}}}},
        "/auth/session": {"get": {"tags": ["auth"], "summary": "Current session", "responses": {"200": {"description": "Session state"}}}},
        "/auth/claim": {"post": {"tags": ["auth"], "summary": "Claim account", "responses": {"200": {"description": "Account claimed"}}}},
        "/auth/change-password": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Change password", "responses": {"200": {"description": "Password changed"}}}},
        "/reference": {"get": {"tags": ["reference"], "summary": "Reference data", "responses": {"200": {"description": "Reference data"}}}},
        "/teacher/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Teacher dashboard", "responses": {"200": {"description": "Dashboard"}}}},
        "/teacher/profile": {"put": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Update profile", "responses": {"200": {"description": "Profile updated"}}}},
        "/teacher/certifications": {"put": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Update certifications", "responses": {"200": {"description": "Certifications updated"}}}},
        "/teacher/results": {"post": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Add student result", "responses": {"201": {"description": "Result added"}}}},
        "/teacher/results/{id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Delete student result", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Result deleted"}}}},
        "/teacher/skills": {"post": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Start skill", "responses": {"201": {"description": "Skill started"}}}},
        "/teacher/skills/{id}": {"patch": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Update skill status", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Skill updated"}}}},
        "/teacher/goals": {"post": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Add goal", "responses": {"201": {"description": "Goal added"}}}},
        "/teacher/goals/{id}": {"patch": {"security": [{"BearerAuth": []}], "tags": ["teacher"], "summary": "Update goal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Goal updated"}}}},
        "/teacher/photo": {"post": {"security": [{"BearerAuth": []}], "consumes": ["multipart/form-data"], "tags": ["teacher"], "summary": "Upload profile photo", "parameters": [{"type": "file", "name": "photo", "in": "formData", "required": true}], "responses": {"200": {"description": "Photo uploaded"}}}},
        "/admin/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Admin dashboard", "responses": {"200": {"description": "Counters"}}}},
        "/admin/teachers": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List teachers", "responses": {"200": {"description": "Teachers"}}}},
        "/admin/teachers/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Teacher profile", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Portfolio"}}}},
        "/admin/skills": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List catalogue skills", "responses": {"200": {"description": "Skills"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create catalogue skill", "responses": {"201": {"description": "Skill created"}}}
        },
        "/admin/skills/{id}": {"put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Update catalogue skill", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Skill updated"}}}},
        "/admin/goals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List yearly goals", "responses": {"200": {"description": "Goals"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Create yearly goal", "responses": {"201": {"description": "Goal created"}}}
        },
        "/admin/goals/{id}": {"put": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Update yearly goal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Goal updated"}}}},
        "/admin/approvals": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Pending approvals", "responses": {"200": {"description": "Pending approvals"}}}},
        "/admin/approvals/skills/{id}": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Review skill", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Skill reviewed"}}}},
        "/admin/approvals/goals/{id}": {"post": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Review goal", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Goal reviewed"}}}}
    },
    "definitions": {
        "dto.LoginRequest": {
            "type": "object",
            "required": ["iin", "password"],
            "properties": {
                "iin": {"type": "string", "example": "900101300123"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token as \"Bearer <token>\"; browsers use the tp_access cookie",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Teacher Portfolio API",
	Description:      "Registration webhook, IIN sign-in and teacher portfolio management for schools.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
