package router

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const openAPIDocPath = "../../../docs/v1/openapi.yml"

func TestOpenAPIDocumentIsValid(t *testing.T) {
	doc, err := openapi3.NewLoader().LoadFromFile(openAPIDocPath)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))
}

// Every GET/POST route mounted under /api must be described in the document.
func TestOpenAPIDocumentCoversRoutes(t *testing.T) {
	doc, err := openapi3.NewLoader().LoadFromFile(openAPIDocPath)
	require.NoError(t, err)

	app := newTestApp(t)
	checked := 0
	for _, route := range app.GetRoutes(true) {
		if route.Method != fiber.MethodGet && route.Method != fiber.MethodPost {
			continue
		}
		if !strings.HasPrefix(route.Path, "/api/") || route.Path == "/api/" {
			continue
		}

		path := toOpenAPIPath(strings.TrimPrefix(route.Path, "/api"))
		item := doc.Paths.Value(path)
		if !assert.NotNil(t, item, "missing path %s", path) {
			continue
		}
		assert.NotNil(t, item.GetOperation(route.Method), "missing %s %s", route.Method, path)
		checked++
	}
	assert.Positive(t, checked)
}

func TestToOpenAPIPath(t *testing.T) {
	assert.Equal(t, "/v1/users/{userId}/code", toOpenAPIPath("/v1/users/:userId/code"))
	assert.Equal(t, "/health", toOpenAPIPath("/health"))
}

func toOpenAPIPath(fiberPath string) string {
	parts := strings.Split(fiberPath, "/")
	for i, p := range parts {
		if strings.HasPrefix(p, ":") {
			parts[i] = "{" + strings.TrimPrefix(p, ":") + "}"
		}
	}
	return strings.Join(parts, "/")
}
