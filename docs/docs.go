// Package docs holds the Swagger spec served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
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
                "summary": "User login",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {
                    "200": {"description": "Login successful"},
                    "400": {"description": "Invalid request format", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "User registered"},
                    "400": {"description": "Invalid request format", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Username or email already taken", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "Profile"},
                    "401": {"description": "Missing or invalid token", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/courses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "List courses",
                "responses": {"200": {"description": "Courses"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Create a new course",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.CourseRequest"}}],
                "responses": {
                    "201": {"description": "Course created"},
                    "400": {"description": "Invalid course data", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Get course details",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "Course"},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Update a course",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.CourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Course updated"},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["courses"],
                "summary": "Delete a course",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {
                    "200": {"description": "Course deleted"},
                    "409": {"description": "Course has enrollments", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/me/courses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["enrollments"],
                "summary": "My enrolled courses",
                "responses": {"200": {"description": "Courses"}}
            }
        },
        "/me/enrollments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["enrollments"],
                "summary": "My enrollments",
                "responses": {"200": {"description": "Enrollments"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["enrollments"],
                "summary": "Enroll in a course",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.EnrollRequest"}}],
                "responses": {
                    "200": {"description": "Enrollment"},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/me/enrollments/{courseId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["enrollments"],
                "summary": "My enrollment in a course",
                "parameters": [{"type": "string", "in": "path", "name": "courseId", "required": true}],
                "responses": {"200": {"description": "Enrollment or null"}}
            }
        },
        "/me/enrollments/{courseId}/modules/{moduleId}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["enrollments"],
                "summary": "Update module progress",
                "parameters": [
                    {"type": "string", "in": "path", "name": "courseId", "required": true},
                    {"type": "string", "in": "path", "name": "moduleId", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.ModuleProgressRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated enrollment"},
                    "404": {"description": "Course or module not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "412": {"description": "Not enrolled in the course", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/admin/analytics": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Analytics dashboard",
                "responses": {"200": {"description": "Dashboard"}}
            }
        }
    },
    "definitions": {
        "dto.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "example": "student"},
                "password": {"type": "string", "example": "student123"}
            }
        },
        "dto.RegisterRequest": {
            "type": "object",
            "required": ["username", "password", "name", "email"],
            "properties": {
                "username": {"type": "string", "example": "jdoe"},
                "password": {"type": "string", "example": "secret123"},
                "name": {"type": "string", "example": "John Doe"},
                "email": {"type": "string", "example": "jdoe@example.com"},
                "role": {"type": "string", "enum": ["ADMIN", "STUDENT"], "example": "STUDENT"}
            }
        },
        "dto.ModuleRequest": {
            "type": "object",
            "required": ["id", "title"],
            "properties": {
                "id": {"type": "string", "example": "m1"},
                "title": {"type": "string", "example": "HTML Fundamentals"},
                "content": {"type": "string"},
                "videoUrl": {"type": "string"}
            }
        },
        "dto.CourseRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "example": "Introduction to Web Development"},
                "description": {"type": "string"},
                "thumbnail": {"type": "string"},
                "instructor": {"type": "string", "example": "Jane Smith"},
                "duration": {"type": "string", "example": "8 weeks"},
                "modules": {"type": "array", "items": {"$ref": "#/definitions/dto.ModuleRequest"}}
            }
        },
        "dto.EnrollRequest": {
            "type": "object",
            "required": ["courseId"],
            "properties": {
                "courseId": {"type": "string"}
            }
        },
        "dto.ModuleProgressRequest": {
            "type": "object",
            "required": ["completed"],
            "properties": {
                "completed": {"type": "boolean", "example": true}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "RES_001"},
                "message": {"type": "string", "example": "course not found"},
                "field": {"type": "string"},
                "severity": {"type": "string", "example": "ERROR"},
                "details": {}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"$ref": "#/definitions/dto.ErrorDetail"},
                "timestamp": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT token for authorization",
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
	Title:            "CoursePath LMS API",
	Description:      "Course catalog, enrollment and module progress for CoursePath",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
