package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>contractdesk API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "contractdesk", "version": "v0.1.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "ContractInput": { "type": "object", "required": ["title","partner","department","requester"], "properties": {
        "title": {"type":"string"}, "partner": {"type":"string"}, "department": {"type":"string"},
        "requester": {"type":"string"}, "categoryId": {"type":"string"}, "value": {"type":"number"},
        "startDate": {"type":"string","format":"date"}, "endDate": {"type":"string","format":"date"},
        "reviewDeadline": {"type":"string","format":"date"}, "priority": {"type":"string","enum":["low","medium","high","urgent"]},
        "description": {"type":"string"}, "docLink": {"type":"string"} } },
      "StatusChange": { "type": "object", "required": ["status"], "properties": { "status": {"type":"string"}, "note": {"type":"string"} } },
      "ObligationInput": { "type": "object", "required": ["description","dueDate"], "properties": {
        "type": {"type":"string"}, "description": {"type":"string"}, "dueDate": {"type":"string","format":"date"}, "amount": {"type":"number"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "fields": {"type":"object"} } }
    }
  },
  "security": [ { "bearer": [] } ],
  "paths": {
    "/auth/login": {
      "post": {
        "summary": "Exchange authorization code / login",
        "security": [],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"mode":{"type":"string","enum":["password","auth_code"]},"username":{"type":"string"},"password":{"type":"string"},"code":{"type":"string"},"redirect_uri":{"type":"string"}}}}}},
        "responses": { "200": { "description": "tokens returned" }, "401": { "description": "authentication failed" } }
      }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate refresh token", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "new token pair" }, "401": { "description": "invalid refresh" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Logout, revoke access token and refresh token", "security": [], "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refresh_token":{"type":"string"}}}}}}, "responses": { "200": { "description": "logged out" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current user and role", "responses": { "200": { "description": "user" } } }
    },
    "/api/v1/contracts": {
      "get": { "summary": "List contracts", "parameters": [
        {"name":"search","in":"query","schema":{"type":"string"}},
        {"name":"status","in":"query","schema":{"type":"string"}},
        {"name":"category","in":"query","schema":{"type":"string"}}
      ], "responses": { "200": { "description": "contracts" } } },
      "post": { "summary": "Submit a contract request (JSON, or multipart with contract + attachments)",
        "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/ContractInput"} }, "multipart/form-data": { "schema": {"type":"object","properties":{"contract":{"type":"string"},"attachments":{"type":"array","items":{"type":"string","format":"binary"}}}} } } },
        "responses": { "201": { "description": "created" }, "400": { "description": "validation failed" } } }
    },
    "/api/v1/contracts/{id}": {
      "get": { "summary": "Get a contract", "responses": { "200": { "description": "contract" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update contract fields (admin or requester)", "responses": { "200": { "description": "updated" }, "403": { "description": "forbidden" } } },
      "delete": { "summary": "Delete a contract and everything it owns (admin)", "responses": { "204": { "description": "deleted" }, "403": { "description": "forbidden" } } }
    },
    "/api/v1/contracts/{id}/transitions": {
      "get": { "summary": "Allowed next statuses", "responses": { "200": { "description": "statuses" } } }
    },
    "/api/v1/contracts/{id}/status": {
      "post": { "summary": "Change status (admin)", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/StatusChange"} } } },
        "responses": { "200": { "description": "updated" }, "403": { "description": "forbidden" }, "409": { "description": "transition not allowed" } } }
    },
    "/api/v1/contracts/{id}/history": {
      "get": { "summary": "Status history (admin)", "responses": { "200": { "description": "entries" } } }
    },
    "/api/v1/contracts/{id}/obligations": {
      "get": { "summary": "Obligations of a contract", "responses": { "200": { "description": "obligations" } } },
      "post": { "summary": "Add an obligation", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/ObligationInput"} } } }, "responses": { "201": { "description": "created" } } }
    },
    "/api/v1/obligations": {
      "get": { "summary": "List obligations with effective status", "parameters": [ {"name":"type","in":"query","schema":{"type":"string"}}, {"name":"status","in":"query","schema":{"type":"string"}} ], "responses": { "200": { "description": "obligations" } } }
    },
    "/api/v1/obligations/{id}/complete": {
      "post": { "summary": "Mark an obligation completed", "responses": { "200": { "description": "completed" } } }
    },
    "/api/v1/obligations/{id}": {
      "delete": { "summary": "Delete an obligation (admin)", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/v1/contracts/{id}/files": {
      "get": { "summary": "List files", "responses": { "200": { "description": "files" } } },
      "post": { "summary": "Upload a file", "requestBody": { "content": { "multipart/form-data": { "schema": {"type":"object","properties":{"file":{"type":"string","format":"binary"},"isLiquidation":{"type":"boolean"}}} } } }, "responses": { "201": { "description": "stored" } } }
    },
    "/api/v1/files/{id}/download": {
      "get": { "summary": "Download a file", "responses": { "200": { "description": "file content" } } }
    },
    "/api/v1/files/{id}/url": {
      "get": { "summary": "Presigned download URL", "responses": { "200": { "description": "url" } } }
    },
    "/api/v1/files/{id}": {
      "delete": { "summary": "Delete a file (admin)", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/v1/categories": {
      "get": { "summary": "List categories", "responses": { "200": { "description": "categories" } } },
      "post": { "summary": "Create a category", "responses": { "201": { "description": "created" }, "409": { "description": "slug taken" } } }
    },
    "/api/v1/categories/{id}": {
      "delete": { "summary": "Delete a category (admin)", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/v1/dashboard": {
      "get": { "summary": "Dashboard summary", "responses": { "200": { "description": "summary" } } }
    },
    "/api/v1/export/contracts.xlsx": {
      "get": { "summary": "Export contracts and obligations as a workbook", "responses": { "200": { "description": "xlsx" } } }
    },
    "/metrics": { "get": { "summary": "Prometheus metrics", "security": [], "responses": { "200": { "description": "metrics" } } } },
    "/health": { "get": { "summary": "Liveness check", "security": [], "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "security": [], "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
