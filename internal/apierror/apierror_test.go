package apierror_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/link-shortener/internal/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopes(t *testing.T) {
	tests := []struct {
		name   string
		err    huma.StatusError
		status int
		body   string
	}{
		{"message", apierror.Message(http.StatusUnauthorized, "Invalid credentials"), 401, `{"message":"Invalid credentials"}`},
		{"failure", apierror.Failure(http.StatusBadRequest, "User exists"), 400, `{"success":false,"message":"User exists"}`},
		{"error", apierror.New(http.StatusBadRequest, "invalid url"), 400, `{"error":"invalid url"}`},
		{"unavailable", apierror.Unavailable(), 503, `{"error":"service unavailable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(tt.err)
			require.NoError(t, err)

			assert.Equal(t, tt.status, tt.err.GetStatus())
			assert.JSONEq(t, tt.body, string(body))
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}
