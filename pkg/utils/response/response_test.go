package response

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/utils/json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var r Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	return r
}

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-1")

	OK(c, map[string]string{"answer": "42"})

	assert.Equal(t, http.StatusOK, w.Code)
	r := decode(t, w)
	assert.Equal(t, 0, r.Code)
	assert.Equal(t, "req-1", r.RequestID)
	assert.NotZero(t, r.Timestamp)
	assert.Equal(t, map[string]interface{}{"answer": "42"}, r.Data)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		httpCode int
		code     int
	}{
		{"errno", errors.ErrBadIdentifier, http.StatusBadRequest, errors.ErrBadIdentifier.Code},
		{"wrapped errno", fmt.Errorf("answer: %w", errors.ErrStoreUnavailable.WithCause(fmt.Errorf("dial"))), http.StatusServiceUnavailable, errors.ErrStoreUnavailable.Code},
		{"foreign error", fmt.Errorf("boom"), http.StatusInternalServerError, errors.ErrInternal.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Fail(c, tt.err)

			assert.Equal(t, tt.httpCode, w.Code)
			assert.Equal(t, tt.code, decode(t, w).Code)
		})
	}
}

func TestFailWithData(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FailWithData(c, errors.ErrInternal.WithMessage("one or more uploads failed"), []string{"a.pdf"})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	r := decode(t, w)
	assert.Equal(t, "one or more uploads failed", r.Message)
	assert.Equal(t, []interface{}{"a.pdf"}, r.Data)
}

func TestHTTPStatusFallback(t *testing.T) {
	tests := []struct {
		code     int
		expected int
	}{
		{0, http.StatusOK},
		{errors.MakeCode(99, errors.CategoryRequest, 999), http.StatusBadRequest},
		{errors.MakeCode(99, errors.CategoryResource, 999), http.StatusNotFound},
		{errors.MakeCode(99, errors.CategoryNetwork, 999), http.StatusBadGateway},
		{errors.MakeCode(99, errors.CategoryDatabase, 999), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		r := &Response{Code: tt.code}
		assert.Equal(t, tt.expected, r.HTTPStatus(), "code %d", tt.code)
	}
}
