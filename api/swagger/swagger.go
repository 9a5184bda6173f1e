package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Mitra Laporan API",
        "description": "Partner contracts, work items and daily field reports with photo evidence",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Mitra", "description": "Partner registry"},
        {"name": "Kontrak", "description": "Contracts and their work items"},
        {"name": "Laporan", "description": "Daily reports"},
        {"name": "Lampiran", "description": "Photo downloads through signed links"},
        {"name": "Inbox", "description": "Partner messages"}
    ],
    "paths": {
        "/mitra": {
            "get": {
                "tags": ["Mitra"],
                "summary": "List partners",
                "parameters": [{"name": "page", "in": "query", "type": "integer"}, {"name": "page_size", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Mitra"],
                "summary": "Register partner",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePartnerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/mitra/{nama}": {
            "get": {
                "tags": ["Mitra"],
                "summary": "Get partner",
                "parameters": [{"name": "nama", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kontrak": {
            "get": {
                "tags": ["Kontrak"],
                "summary": "List contracts",
                "parameters": [{"name": "partnerName", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "page_size", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Kontrak"],
                "summary": "Create contract with its work items",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateContractRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Partner not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kontrak/pekerjaan": {
            "get": {
                "tags": ["Kontrak"],
                "summary": "Work items of a contract",
                "parameters": [
                    {"name": "partnerName", "in": "query", "required": true, "type": "string"},
                    {"name": "nomorKontrak", "in": "query", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"}, {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Kontrak"],
                "summary": "Append work item to a contract",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateWorkItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/kontrak/{nomor}": {
            "get": {
                "tags": ["Kontrak"],
                "summary": "Contract detail",
                "parameters": [
                    {"name": "nomor", "in": "path", "required": true, "type": "string"},
                    {"name": "partnerName", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/laporan": {
            "get": {
                "tags": ["Laporan"],
                "summary": "List reports of a work item, or every report without filters",
                "parameters": [
                    {"name": "partnerName", "in": "query", "type": "string"},
                    {"name": "nomorKontrak", "in": "query", "type": "string"},
                    {"name": "namaPekerjaan", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"}, {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Work item not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Laporan"],
                "summary": "Submit daily report",
                "description": "Field data holds the JSON payload; photo parts are keyed by the names used in aktivitas[].fotoSebelum and fotoSesudah.",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "data", "in": "formData", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Chain link not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Storage error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/laporan/{id}": {
            "get": {
                "tags": ["Laporan"],
                "summary": "Get report",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/laporan/{id}/export": {
            "get": {
                "tags": ["Laporan"],
                "summary": "Export report as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/lampiran/download": {
            "get": {
                "tags": ["Lampiran"],
                "summary": "Download attachment",
                "security": [],
                "produces": ["image/jpeg", "image/png"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"},
                    {"name": "variant", "in": "query", "type": "string", "enum": ["thumb"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/inbox": {
            "get": {
                "tags": ["Inbox"],
                "summary": "Read inbox messages",
                "parameters": [{"name": "partnerName", "in": "query", "type": "string"}, {"name": "page", "in": "query", "type": "integer"}, {"name": "page_size", "in": "query", "type": "integer"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Inbox"],
                "summary": "Send inbox message",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInboxMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreatePartnerRequest": {
            "type": "object",
            "required": ["nama"],
            "properties": {
                "nama": {"type": "string"},
                "email": {"type": "string"},
                "telepon": {"type": "string"},
                "alamat": {"type": "string"},
                "penanggungJawab": {"type": "string"}
            }
        },
        "CreateContractRequest": {
            "type": "object",
            "required": ["partnerName", "nama", "nomor", "tanggal", "nilai", "jangka_waktu"],
            "properties": {
                "partnerName": {"type": "string"},
                "nama": {"type": "string"},
                "nomor": {"type": "string"},
                "tanggal": {"type": "string", "format": "date"},
                "nilai": {"type": "integer"},
                "jangka_waktu": {"type": "integer", "minimum": 1, "maximum": 1200, "description": "Duration in months"},
                "pekerjaan_arr": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateWorkItemRequest": {
            "type": "object",
            "required": ["partnerName", "nomorKontrak", "nama"],
            "properties": {
                "partnerName": {"type": "string"},
                "nomorKontrak": {"type": "string"},
                "nama": {"type": "string"}
            }
        },
        "CreateInboxMessageRequest": {
            "type": "object",
            "properties": {
                "partnerName": {"type": "string"},
                "emailOrName": {"type": "string"},
                "subject": {"type": "string"},
                "content": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
