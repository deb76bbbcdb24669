package middleware_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
)

type empty struct{}

type readerOutput struct {
	Body struct {
		Value string `json:"value"`
	}
}

// registerReader registers GET path answering with whatever read returns from the request context.
func registerReader(api huma.API, path string, read func(ctx context.Context) string, metadata map[string]any) {
	huma.Register(api, huma.Operation{
		OperationID: "read" + path,
		Method:      http.MethodGet,
		Path:        path,
		Metadata:    metadata,
	}, func(ctx context.Context, _ *empty) (*readerOutput, error) {
		out := &readerOutput{}
		out.Body.Value = read(ctx)

		return out, nil
	})
}

func newAPI(t *testing.T) humatest.TestAPI {
	t.Helper()

	_, api := humatest.New(t)

	return api
}
