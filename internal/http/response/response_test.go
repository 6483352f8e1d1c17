package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestErrorCarriesRequestIDWithHTTP200(t *testing.T) {
	c, w := newContext()
	c.Set("request_id", "req-1")

	Error(c, CodeConflict, "capacity exceeded")

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(CodeConflict), body["status_code"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Nil(t, body["data"])
}

func TestSuccessWithPageFlattensEnvelope(t *testing.T) {
	c, w := newContext()

	SuccessWithPage(c, []int{1, 2}, NewPagination(2, 10, 21))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["status_code"])
	assert.NotContains(t, body, "request_id")
	page := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(3), page["total_page"])
}

func TestNewPaginationZeroPageSize(t *testing.T) {
	assert.Equal(t, int64(0), NewPagination(1, 0, 5).TotalPage)
}

func TestAppError(t *testing.T) {
	cause := errors.New("db down")
	appErr := NewAppError(CodeInternal, "error.order_fetch_failed", "fetch failed", cause)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "fetch failed: db down", appErr.Error())
	assert.False(t, appErr.ClientFault())
	assert.True(t, NewAppError(CodeNotFound, "error.order_not_found", "not found", nil).ClientFault())
}
