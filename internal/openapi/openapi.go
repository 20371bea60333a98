// Package openapi builds and validates the OpenAPI document describing the
// HTTP surface, served at GET /api/openapi.json for client generation.
package openapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// Build constructs the OpenAPI 3 document for the library/document/chunk
// HTTP surface and validates it before returning.
func Build() (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "vectorbase API",
			Version:     "1.0",
			Description: "Library/document/chunk vector search service.",
		},
		Paths: openapi3.NewPaths(),
	}

	doc.Paths.Set("/api/libraries", crudPathItem("library", false, true))
	doc.Paths.Set("/api/libraries/{id}", crudPathItem("library", true, false))
	doc.Paths.Set("/api/libraries/{id}/index", operationOnlyPathItem("start an index build", http.MethodPost))
	doc.Paths.Set("/api/libraries/{id}/index/status", operationOnlyPathItem("fetch index status", http.MethodGet))
	doc.Paths.Set("/api/libraries/{id}/search", operationOnlyPathItem("search a library", http.MethodPost))

	doc.Paths.Set("/api/documents", crudPathItem("document", false, true))
	doc.Paths.Set("/api/documents/{id}", crudPathItem("document", true, false))
	doc.Paths.Set("/api/documents/library/{id}", operationOnlyPathItem("list documents in a library", http.MethodGet))

	doc.Paths.Set("/api/chunks", crudPathItem("chunk", false, true))
	doc.Paths.Set("/api/chunks/batch", operationOnlyPathItem("batch-create chunks under one document", http.MethodPost))
	doc.Paths.Set("/api/chunks/{id}", crudPathItem("chunk", true, false))
	doc.Paths.Set("/api/chunks/document/{id}", operationOnlyPathItem("list chunks in a document", http.MethodGet))

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("openapi: generated document is invalid: %w", err)
	}
	return doc, nil
}

func jsonResponses(okDescription string) *openapi3.Responses {
	responses := openapi3.NewResponses()
	responses.Set("200", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(okDescription)})
	responses.Set("400", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("validation error")})
	responses.Set("404", &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("not found")})
	return responses
}

func idParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewStringSchema()),
	}
}

// crudPathItem builds the {list/create} or {get/update/delete} shape shared
// by libraries, documents, and chunks.
func crudPathItem(resource string, byID bool, collection bool) *openapi3.PathItem {
	item := &openapi3.PathItem{}
	if collection {
		item.Get = &openapi3.Operation{
			OperationID: "list" + resource,
			Summary:     "List " + resource + "s",
			Responses:   jsonResponses("list of " + resource + "s"),
		}
		item.Post = &openapi3.Operation{
			OperationID: "create" + resource,
			Summary:     "Create a " + resource,
			Responses:   jsonResponses("created " + resource),
		}
	}
	if byID {
		item.Parameters = openapi3.Parameters{idParameter()}
		item.Get = &openapi3.Operation{
			OperationID: "get" + resource,
			Summary:     "Fetch a " + resource + " by id",
			Responses:   jsonResponses("the " + resource),
		}
		item.Patch = &openapi3.Operation{
			OperationID: "update" + resource,
			Summary:     "Partially update a " + resource,
			Responses:   jsonResponses("updated " + resource),
		}
		item.Delete = &openapi3.Operation{
			OperationID: "delete" + resource,
			Summary:     "Delete a " + resource,
			Responses:   jsonResponses("deleted"),
		}
	}
	return item
}

func operationOnlyPathItem(summary, method string) *openapi3.PathItem {
	item := &openapi3.PathItem{Parameters: openapi3.Parameters{idParameter()}}
	op := &openapi3.Operation{Summary: summary, Responses: jsonResponses(summary)}
	switch method {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	}
	return item
}
