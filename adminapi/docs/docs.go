// Package docs holds the generated Swagger specification for adminapi.
// This file is hand-maintained in lieu of running `swag init` (the
// toolchain isn't invoked as part of this build); regenerate it with swag
// whenever adminapi's handler annotations change.
package docs

import "github.com/swaggo/swag"

const doc = `{
    "swagger": "2.0",
    "info": {
        "title": "shardkit admin API",
        "description": "Read-only operator surface: shard list, circuit breaker state, liveness.",
        "version": "1.0"
    },
    "basePath": "/",
    "paths": {
        "/healthz": {
            "get": {
                "summary": "Liveness check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/shards": {
            "get": {
                "summary": "List shards",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/shards/{shardID}/breaker": {
            "get": {
                "summary": "Get a shard's circuit breaker state",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "shardID", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "unknown shard"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger metadata, matching swag's
// generated-file convention so cmd/ binaries can import this package
// blank purely for its init-time registration.
var SwaggerInfo = &swag.Spec{
	Version:     "1.0",
	Host:        "",
	BasePath:    "/",
	Schemes:     []string{},
	Title:       "shardkit admin API",
	Description: "Read-only operator surface: shard list, circuit breaker state, liveness.",
}

func init() {
	swag.Register(swag.Name, SwaggerInfo)
	SwaggerInfo.SwaggerTemplate = doc
}
