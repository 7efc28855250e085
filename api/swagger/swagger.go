package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Exams API",
        "description": "Exam results, grading and class rankings",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "Reference",
            "description": "Subjects, streams and exam types"
        },
        {
            "name": "Students",
            "description": "Student roster"
        },
        {
            "name": "Exams",
            "description": "Exam definitions"
        },
        {
            "name": "Marks",
            "description": "Marks entry"
        },
        {
            "name": "Results",
            "description": "Derived rankings, summaries and result sheets"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    },
                    "503": {
                        "description": "Dependency down"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/subjects": {
            "get": {
                "tags": [
                    "Reference"
                ],
                "summary": "List subjects",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Reference"
                ],
                "summary": "Create subject",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateSubjectRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Duplicate code",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/subjects/{id}": {
            "delete": {
                "tags": [
                    "Reference"
                ],
                "summary": "Delete subject and its results",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/streams": {
            "get": {
                "tags": [
                    "Reference"
                ],
                "summary": "List streams",
                "parameters": [
                    {
                        "name": "formId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Reference"
                ],
                "summary": "Create stream",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateStreamRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exam-types": {
            "get": {
                "tags": [
                    "Reference"
                ],
                "summary": "List exam types",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Reference"
                ],
                "summary": "Create exam type",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateExamTypeRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": [
                    "Students"
                ],
                "summary": "List students",
                "parameters": [
                    {
                        "name": "search",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "formId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "streamId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "name": "sort",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "order",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Students"
                ],
                "summary": "Create student",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/StudentRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Admission number already used",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "tags": [
                    "Students"
                ],
                "summary": "Get student",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Students"
                ],
                "summary": "Update student",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/StudentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Admission number already used",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Students"
                ],
                "summary": "Delete student and their results",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    }
                }
            }
        },
        "/api/v1/exams": {
            "get": {
                "tags": [
                    "Exams"
                ],
                "summary": "List exams",
                "parameters": [
                    {
                        "name": "year",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "name": "termId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "examTypeId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "page",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "post": {
                "tags": [
                    "Exams"
                ],
                "summary": "Create exam",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExamRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exams/{id}": {
            "get": {
                "tags": [
                    "Exams"
                ],
                "summary": "Get exam",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Exams"
                ],
                "summary": "Replace exam",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ExamRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "maxMarks below stored marks",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Exams"
                ],
                "summary": "Delete exam and its results",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    }
                }
            }
        },
        "/api/v1/exams/{id}/marks": {
            "post": {
                "tags": [
                    "Marks"
                ],
                "summary": "Enter marks for one subject",
                "description": "Blank marks are skipped. Any invalid mark rejects the whole batch.",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/MarksEntryRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid marks",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exams/{id}/marks/stats": {
            "get": {
                "tags": [
                    "Marks"
                ],
                "summary": "Entry statistics for one subject",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "subjectId",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "formId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "streamId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exam-results/{id}": {
            "delete": {
                "tags": [
                    "Marks"
                ],
                "summary": "Delete a stored mark",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Deleted"
                    }
                }
            }
        },
        "/api/v1/exams/{id}/results": {
            "get": {
                "tags": [
                    "Results"
                ],
                "summary": "Ranked class results",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "formId",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "streamId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Exam not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exams/{id}/summary": {
            "get": {
                "tags": [
                    "Results"
                ],
                "summary": "Grade distribution and subject analysis",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "formId",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "streamId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exams/{id}/students/{studentId}/result": {
            "get": {
                "tags": [
                    "Results"
                ],
                "summary": "One student's result and form position",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Not found",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exams/{id}/export": {
            "get": {
                "tags": [
                    "Results"
                ],
                "summary": "Download the class result sheet",
                "produces": [
                    "text/csv",
                    "application/pdf",
                    "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "formId",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "streamId",
                        "in": "query",
                        "type": "string",
                        "required": false
                    },
                    {
                        "name": "format",
                        "in": "query",
                        "type": "string",
                        "enum": [
                            "csv",
                            "pdf",
                            "xlsx"
                        ]
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Rendered file",
                        "schema": {
                            "type": "file"
                        }
                    },
                    "400": {
                        "description": "Unsupported format",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "CreateSubjectRequest": {
            "type": "object",
            "required": [
                "name",
                "code"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "code": {
                    "type": "string"
                }
            }
        },
        "CreateStreamRequest": {
            "type": "object",
            "required": [
                "name",
                "formId"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "formId": {
                    "type": "string"
                }
            }
        },
        "CreateExamTypeRequest": {
            "type": "object",
            "required": [
                "name"
            ],
            "properties": {
                "name": {
                    "type": "string"
                }
            }
        },
        "StudentRequest": {
            "type": "object",
            "required": [
                "admissionNumber",
                "name",
                "formId",
                "gender"
            ],
            "properties": {
                "admissionNumber": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "formId": {
                    "type": "string"
                },
                "streamId": {
                    "type": "string"
                },
                "gender": {
                    "type": "string",
                    "enum": [
                        "male",
                        "female"
                    ]
                },
                "dateOfBirth": {
                    "type": "string",
                    "format": "date"
                },
                "parentContact": {
                    "type": "string"
                }
            }
        },
        "ExamSubjectInput": {
            "type": "object",
            "required": [
                "subjectId",
                "maxMarks"
            ],
            "properties": {
                "subjectId": {
                    "type": "string"
                },
                "maxMarks": {
                    "type": "number"
                }
            }
        },
        "ExamRequest": {
            "type": "object",
            "required": [
                "name",
                "examTypeId",
                "termId",
                "year",
                "startDate",
                "endDate",
                "gradingSystem",
                "subjects"
            ],
            "properties": {
                "name": {
                    "type": "string"
                },
                "examTypeId": {
                    "type": "string"
                },
                "termId": {
                    "type": "string"
                },
                "year": {
                    "type": "integer"
                },
                "startDate": {
                    "type": "string",
                    "format": "date"
                },
                "endDate": {
                    "type": "string",
                    "format": "date"
                },
                "gradingSystem": {
                    "type": "string",
                    "enum": [
                        "knec",
                        "cbc"
                    ]
                },
                "subjects": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/ExamSubjectInput"
                    }
                }
            }
        },
        "MarksEntry": {
            "type": "object",
            "required": [
                "studentId"
            ],
            "properties": {
                "studentId": {
                    "type": "string"
                },
                "marks": {
                    "type": "string",
                    "description": "number, numeric string or null"
                }
            }
        },
        "MarksEntryRequest": {
            "type": "object",
            "required": [
                "subjectId",
                "entries"
            ],
            "properties": {
                "subjectId": {
                    "type": "string"
                },
                "entries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/MarksEntry"
                    }
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
