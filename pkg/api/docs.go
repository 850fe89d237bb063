package api

import (
	"net/http"

	"github.com/swaggo/swag"
	"go.uber.org/zap"
)

// recordsDoc is the OpenAPI description of the record routes
const recordsDoc = `{
  "swagger": "2.0",
  "info": {
    "title": "ArrayDB API",
    "description": "Index-addressed record store",
    "version": "1.0"
  },
  "basePath": "/api/v1",
  "securityDefinitions": {
    "ApiKeyAuth": {"type": "apiKey", "in": "header", "name": "X-API-Key"}
  },
  "security": [{"ApiKeyAuth": []}],
  "paths": {
    "/health": {
      "get": {"summary": "Health check", "responses": {"200": {"description": "healthy"}}}
    },
    "/records": {
      "get": {
        "summary": "Read a range of records",
        "parameters": [
          {"name": "start", "in": "query", "type": "integer", "default": 0},
          {"name": "count", "in": "query", "type": "integer", "default": 1, "maximum": 10000}
        ],
        "responses": {
          "200": {"description": "values from start"},
          "400": {"description": "bad start or count"},
          "404": {"description": "range past the end"}
        }
      },
      "put": {
        "summary": "Write a range of records",
        "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RangeRequest"}}],
        "responses": {
          "200": {"description": "written"},
          "400": {"description": "bad body or index"},
          "413": {"description": "max extent exceeded"}
        }
      }
    },
    "/records/{index}": {
      "parameters": [{"name": "index", "in": "path", "type": "integer", "required": true}],
      "get": {
        "summary": "Read one record",
        "responses": {"200": {"description": "the record"}, "404": {"description": "index past the end"}}
      },
      "put": {
        "summary": "Write one record",
        "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValueRequest"}}],
        "responses": {"200": {"description": "written"}, "413": {"description": "max extent exceeded"}}
      },
      "delete": {
        "summary": "Delete records, moving later records down",
        "parameters": [{"name": "count", "in": "query", "type": "integer", "default": 1, "maximum": 10000}],
        "responses": {"200": {"description": "deleted"}, "404": {"description": "range past the end"}}
      }
    }
  },
  "definitions": {
    "ValueRequest": {"type": "object", "properties": {"value": {}}},
    "RangeRequest": {
      "type": "object",
      "properties": {"start": {"type": "integer"}, "values": {"type": "array", "items": {}}}
    }
  }
}`

type recordsSpec struct{}

func (recordsSpec) ReadDoc() string { return recordsDoc }

func init() {
	swag.Register(swag.Name, recordsSpec{})
}

const swaggerUI = `<!DOCTYPE html>
<html>
<head>
	<title>ArrayDB API Documentation</title>
	<link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui.css" />
</head>
<body>
	<div id="swagger-ui"></div>
	<script src="https://unpkg.com/swagger-ui-dist@3.25.0/swagger-ui-bundle.js"></script>
	<script>
	  window.onload = function() {
	    SwaggerUIBundle({url: '/swagger/swagger.json', dom_id: '#swagger-ui'});
	  };
	</script>
</body>
</html>`

func (s *Server[T]) handleSwagger(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/swagger/", "/swagger/index.html":
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerUI))
	case "/swagger/swagger.json":
		doc, err := swag.ReadDoc()
		if err != nil {
			s.logger.Error("read swagger doc", zap.Error(err))
			http.Error(w, "Failed to read Swagger documentation", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	default:
		http.NotFound(w, r)
	}
}
