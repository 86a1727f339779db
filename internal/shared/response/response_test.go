package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-ems/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestList(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("nil slice renders empty array with zero count", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		var items []string
		response.List(c, http.StatusOK, items)

		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(0), body["count"])
		assert.Equal(t, []any{}, body["data"])
	})

	t.Run("count matches data", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		response.List(c, http.StatusOK, []string{"a", "b"})

		body := decode(t, w)
		assert.Equal(t, float64(2), body["count"])
	})
}

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("string detail goes to error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", "db down")

		body := decode(t, w)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "db down", body["error"])
		assert.Nil(t, body["errors"])
	})

	t.Run("slice detail goes to errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation Error", []string{"x"})

		body := decode(t, w)
		assert.Equal(t, []any{"x"}, body["errors"])
		assert.Empty(t, body["error"])
	})
}
