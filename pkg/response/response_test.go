package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"walletbridge/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestOK(t *testing.T) {
	c, w := setupContext()
	OK(c, gin.H{"hello": "world"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestAccepted(t *testing.T) {
	c, w := setupContext()
	Accepted(c)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestError_AppError(t *testing.T) {
	c, w := setupContext()
	Error(c, apperror.ErrUnknownCoin("doge"))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COIN_001", resp.ErrorCode)
}

func TestError_FieldValidation(t *testing.T) {
	c, w := setupContext()
	Error(c, apperror.FieldValidation(map[string]string{"amount": "required"}))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "required", resp.Fields["amount"])
}

func TestError_Unknown(t *testing.T) {
	c, w := setupContext()
	Error(c, errors.New("internal detail that must not leak"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SYS_000", resp.ErrorCode)
	assert.NotContains(t, resp.Message, "internal detail")
}
