package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments-backend/internal/common/errors"
)

func newTestRouter(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(), Errors())
	r.GET("/t", h)
	return r
}

type errorBody struct {
	Success   bool   `json:"success"`
	RequestID string `json:"request_id"`
	Path      string `json:"path"`
	Error     struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func do(t *testing.T, r *gin.Engine, header string) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	if header != "" {
		req.Header.Set("X-Request-ID", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body errorBody
	if w.Code >= 400 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestErrors_RendersAppError(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		_ = c.Error(errors.NewAlreadySignedError("p1"))
	})

	w, body := do(t, r, "req-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "ALREADY_SIGNED", body.Error.Code)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, "/t", body.Path)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func TestErrors_WrapsPlainError(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		_ = c.Error(stderrors.New("boom"))
	})

	w, body := do(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestErrors_LeavesWrittenResponse(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
		_ = c.Error(stderrors.New("late"))
	})

	w, _ := do(t, r, "")
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRecovery_Panic(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) {
		panic("kaboom")
	})

	w, body := do(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[errors.ErrorCode]int{
		errors.ErrCodeNotFound:            http.StatusNotFound,
		errors.ErrCodeNotCompleted:        http.StatusBadRequest,
		errors.ErrCodeParticipantMismatch: http.StatusBadRequest,
		errors.ErrCodeInvalidAddress:      http.StatusBadRequest,
		errors.ErrCodeForbidden:           http.StatusForbidden,
		errors.ErrCodeStoreUnavailable:    http.StatusInternalServerError,
		errors.ErrCodeStorage:             http.StatusBadGateway,
		errors.ErrCodeIdentityProvider:    http.StatusBadGateway,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(errors.New(code, "x")), string(code))
	}
}
