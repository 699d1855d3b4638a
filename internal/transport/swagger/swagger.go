package swagger

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Document is a loaded and validated OpenAPI description of the REST API.
type Document struct {
	Spec *openapi3.T
	raw  []byte
}

// Load parses the YAML document and validates it against the OpenAPI 3 schema.
func Load(ctx context.Context, data []byte) (*Document, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse openapi document: %w", err)
	}
	if err := spec.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return &Document{Spec: spec, raw: data}, nil
}

// BasePath returns the path of the first server entry, e.g. "/api/v1".
func (d *Document) BasePath() string {
	if len(d.Spec.Servers) == 0 {
		return ""
	}
	return strings.TrimSuffix(d.Spec.Servers[0].URL, "/")
}

// Documents reports whether method and path (relative to BasePath) are described.
func (d *Document) Documents(method, path string) bool {
	if d.Spec.Paths == nil {
		return false
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	item := d.Spec.Paths.Find(path)
	if item == nil {
		return false
	}
	return item.GetOperation(strings.ToUpper(method)) != nil
}

func (d *Document) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(d.raw)
}

func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}
