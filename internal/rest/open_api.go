package rest

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/ghodss/yaml"
	"github.com/go-chi/chi/v5"
)

// NewOpenAPI3 instantiates the OpenAPI specification for this service.
func NewOpenAPI3() openapi3.T {
	swagger := openapi3.T{
		OpenAPI: "3.0.0",
		Info: &openapi3.Info{
			Title:       "ToDo API",
			Description: "REST API used for tracking tasks",
			Version:     "0.0.0",
			License: &openapi3.License{
				Name: "MIT",
				URL:  "https://opensource.org/licenses/MIT",
			},
		},
		Servers: openapi3.Servers{
			&openapi3.Server{
				Description: "Local development",
				URL:         "http://127.0.0.1:9234",
			},
		},
	}

	swagger.Components = &openapi3.Components{}

	swagger.Components.Schemas = openapi3.Schemas{
		"Task": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("id", openapi3.NewInt64Schema()).
				WithProperty("title", openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(191)).
				WithProperty("completed", openapi3.NewBoolSchema()).
				WithProperty("createdAt", openapi3.NewDateTimeSchema()).
				WithProperty("isDeleted", openapi3.NewBoolSchema())),
		"Error": openapi3.NewSchemaRef("",
			openapi3.NewObjectSchema().
				WithProperty("error", openapi3.NewStringSchema())),
	}

	swagger.Components.RequestBodies = openapi3.RequestBodies{
		"CreateTasksRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for creating a task.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewSchema().
					WithProperty("title", openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(191))),
		},
		"UpdateTasksRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for updating the completed flag of a task.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewSchema().
					WithProperty("id", openapi3.NewInt64Schema()).
					WithProperty("completed", openapi3.NewBoolSchema())),
		},
		"DeleteTasksRequest": &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().
				WithDescription("Request used for deleting a task.").
				WithRequired(true).
				WithJSONSchema(openapi3.NewSchema().
					WithProperty("id", openapi3.NewInt64Schema())),
		},
	}

	taskResponse := openapi3.NewResponse().
		WithDescription("Task record.").
		WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/Task", nil))

	errorResponse := func(desc string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(desc).
				WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/Error", nil)),
		}
	}

	swagger.Paths = openapi3.Paths{
		tasksPath: &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "ListTasks",
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{
						Value: openapi3.NewResponse().
							WithDescription("Tasks that were not deleted, newest first.").
							WithJSONSchema(openapi3.NewArraySchema().
								WithItems(openapi3.NewObjectSchema())),
					},
					"500": errorResponse("Store failure."),
				},
			},
			Post: &openapi3.Operation{
				OperationID: "CreateTask",
				RequestBody: &openapi3.RequestBodyRef{
					Ref: "#/components/requestBodies/CreateTasksRequest",
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Value: taskResponse},
					"400": errorResponse("Request failed validation."),
					"500": errorResponse("Store failure."),
				},
			},
			Patch: &openapi3.Operation{
				OperationID: "UpdateTask",
				RequestBody: &openapi3.RequestBodyRef{
					Ref: "#/components/requestBodies/UpdateTasksRequest",
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{Value: taskResponse},
					"400": errorResponse("Request failed validation."),
					"404": errorResponse("Task not found."),
					"500": errorResponse("Store failure."),
				},
			},
			Delete: &openapi3.Operation{
				OperationID: "DeleteTask",
				RequestBody: &openapi3.RequestBodyRef{
					Ref: "#/components/requestBodies/DeleteTasksRequest",
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{
						Value: openapi3.NewResponse().
							WithDescription("Task was deleted.").
							WithJSONSchema(openapi3.NewObjectSchema().
								WithProperty("ok", openapi3.NewBoolSchema())),
					},
					"400": errorResponse("Request failed validation."),
					"404": errorResponse("Task not found."),
					"500": errorResponse("Store failure."),
				},
			},
		},
		tasksPath + "/search": &openapi3.PathItem{
			Get: &openapi3.Operation{
				OperationID: "SearchTasks",
				Parameters: openapi3.Parameters{
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("title").WithSchema(openapi3.NewStringSchema())},
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("completed").WithSchema(openapi3.NewBoolSchema())},
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("from").WithSchema(openapi3.NewInt64Schema())},
					&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("size").WithSchema(openapi3.NewInt64Schema())},
				},
				Responses: openapi3.Responses{
					"200": &openapi3.ResponseRef{
						Value: openapi3.NewResponse().
							WithDescription("Tasks matching the criteria.").
							WithJSONSchema(openapi3.NewObjectSchema().
								WithProperty("tasks", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())).
								WithProperty("total", openapi3.NewInt64Schema())),
					},
					"400": errorResponse("Invalid parameters or search is not enabled."),
					"500": errorResponse("Search failure."),
				},
			},
		},
	}

	return swagger
}

// RegisterOpenAPI serves the OpenAPI document in JSON and YAML formats.
func RegisterOpenAPI(r chi.Router) {
	swagger := NewOpenAPI3()

	r.Get("/openapi3.json", func(w http.ResponseWriter, r *http.Request) {
		renderResponse(w, &swagger, http.StatusOK)
	})

	r.Get("/openapi3.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")

		data, err := yaml.Marshal(&swagger)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)

		_, _ = w.Write(data)
	})
}
