// Package docs registers the swagger document served at /swagger/*.
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
		"/healthz": {
			"get": {
				"tags": [
					"health"
				],
				"summary": "Health check",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/readyz": {
			"get": {
				"tags": [
					"health"
				],
				"summary": "Readiness check",
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"503": {
						"description": "Service Unavailable",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/api/v1/resolve-predictions": {
			"post": {
				"tags": [
					"resolution"
				],
				"summary": "Resolve eligible predictions",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"401": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"500": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"503": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/resolutions/stream": {
			"get": {
				"tags": [
					"resolution"
				],
				"summary": "Live resolution run summaries (websocket)",
				"responses": {
					"101": {
						"description": "switching protocols",
						"schema": {
							"type": "string"
						}
					}
				}
			}
		},
		"/api/v1/leaderboard": {
			"get": {
				"tags": [
					"leaderboard"
				],
				"summary": "Leaderboard",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "max entries (default 100, max 500)",
						"name": "limit",
						"in": "query",
						"required": false
					}
				]
			}
		},
		"/api/v1/predictions": {
			"get": {
				"tags": [
					"predictions"
				],
				"summary": "List predictions",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "user id",
						"name": "user_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "coin id",
						"name": "coin_id",
						"in": "query",
						"required": false
					},
					{
						"type": "string",
						"description": "pending|correct|incorrect|error_resolving",
						"name": "status",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "limit",
						"name": "limit",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "offset",
						"name": "offset",
						"in": "query",
						"required": false
					}
				]
			},
			"post": {
				"tags": [
					"predictions"
				],
				"summary": "Create prediction",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"400": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"503": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "prediction",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.createPredictionRequest"
						}
					}
				]
			}
		},
		"/api/v1/predictions/{id}": {
			"get": {
				"tags": [
					"predictions"
				],
				"summary": "Get prediction",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"404": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "prediction id",
						"name": "id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/v1/users/{user_id}/stats": {
			"get": {
				"tags": [
					"predictions"
				],
				"summary": "User stats",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "user id",
						"name": "user_id",
						"in": "path",
						"required": true
					}
				]
			}
		},
		"/api/v1/managed-coins": {
			"get": {
				"tags": [
					"coins"
				],
				"summary": "Active managed coins",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				}
			}
		},
		"/api/v1/markets": {
			"get": {
				"tags": [
					"markets"
				],
				"summary": "Top coins by market cap, stablecoins excluded",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"503": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				}
			}
		},
		"/api/v1/admin/session": {
			"post": {
				"consumes": [
					"application/json"
				],
				"produces": [
					"application/json"
				],
				"tags": [
					"admin"
				],
				"summary": "Exchange the admin password for a session token",
				"parameters": [
					{
						"description": "credentials",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.createSessionRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"401": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				}
			}
		},
		"/api/v1/admin/coins": {
			"get": {
				"tags": [
					"admin"
				],
				"summary": "All managed coins",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"admin"
				],
				"summary": "Add managed coin",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"409": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "coin",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.addCoinRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/admin/coins/{id}": {
			"put": {
				"tags": [
					"admin"
				],
				"summary": "Activate or deactivate a managed coin",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"404": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "coin row id",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"description": "state",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.updateCoinRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			},
			"delete": {
				"tags": [
					"admin"
				],
				"summary": "Delete managed coin",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"404": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "coin row id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/admin/resolution-runs": {
			"get": {
				"tags": [
					"admin"
				],
				"summary": "Resolution run history",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"parameters": [
					{
						"type": "integer",
						"description": "limit",
						"name": "limit",
						"in": "query",
						"required": false
					},
					{
						"type": "integer",
						"description": "offset",
						"name": "offset",
						"in": "query",
						"required": false
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/admin/switches": {
			"get": {
				"tags": [
					"admin"
				],
				"summary": "Feature switches",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/admin/switches/{name}": {
			"put": {
				"tags": [
					"admin"
				],
				"summary": "Set feature switch",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					},
					"404": {
						"description": "",
						"schema": {
							"$ref": "#/definitions/handler.apiResponse"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "resolution|prediction_intake",
						"name": "name",
						"in": "path",
						"required": true
					},
					{
						"description": "state",
						"name": "body",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/handler.putSwitchRequest"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				]
			}
		}
	},
	"definitions": {
		"handler.apiResponse": {
			"type": "object",
			"properties": {
				"code": {
					"type": "integer"
				},
				"data": {},
				"message": {
					"type": "string"
				},
				"meta": {
					"type": "object",
					"additionalProperties": true
				}
			}
		},
		"handler.createSessionRequest": {
			"type": "object",
			"required": [
				"password"
			],
			"properties": {
				"password": {
					"type": "string"
				}
			}
		},
		"handler.createPredictionRequest": {
			"type": "object",
			"required": [
				"coin_id",
				"predicted_direction",
				"user_id"
			],
			"properties": {
				"coin_id": {
					"type": "string",
					"maxLength": 100
				},
				"predicted_direction": {
					"type": "string",
					"enum": [
						"up",
						"down"
					]
				},
				"price_at_prediction": {
					"type": "string"
				},
				"user_id": {
					"type": "string",
					"maxLength": 128
				}
			}
		},
		"handler.addCoinRequest": {
			"type": "object",
			"required": [
				"coin_id",
				"name",
				"symbol"
			],
			"properties": {
				"coin_id": {
					"type": "string",
					"maxLength": 100
				},
				"image_url": {
					"type": "string"
				},
				"is_active": {
					"type": "boolean"
				},
				"name": {
					"type": "string",
					"maxLength": 120
				},
				"symbol": {
					"type": "string",
					"maxLength": 32
				}
			}
		},
		"handler.updateCoinRequest": {
			"type": "object",
			"required": [
				"is_active"
			],
			"properties": {
				"is_active": {
					"type": "boolean"
				}
			}
		},
		"handler.putSwitchRequest": {
			"type": "object",
			"required": [
				"enabled"
			],
			"properties": {
				"enabled": {
					"type": "boolean"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "",
	BasePath:		 "/",
	Schemes:		  []string{},
	Title:			"coinpredict API",
	Description:	  "Crypto price prediction game: predictions, automatic resolution and leaderboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
