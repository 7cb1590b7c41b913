package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments-backend/internal/common/middleware"
	"moments-backend/internal/features/user/models"
	"moments-backend/internal/features/user/service"
	"moments-backend/internal/platform/memory"
)

type acceptAll struct{}

func (acceptAll) Verify(context.Context, models.VerificationProof) (bool, string, error) {
	return true, "ident", nil
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Errors())
	NewUserHandler(service.NewUserService(memory.NewStore(), acceptAll{})).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func send(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerificationFlow(t *testing.T) {
	r := newRouter()

	w := send(r, http.MethodPost, "/api/v1/users/register", models.RegisterRequest{WalletAddress: "0xABC"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var user models.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "0xabc", user.WalletAddress)
	assert.False(t, user.IsVerified)

	w = send(r, http.MethodPost, "/api/v1/users/verify", models.VerifyRequest{
		WalletAddress: "0xabc",
		Proof:         map[string]interface{}{"pi_a": "1"},
		PublicSignals: []string{"1"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = send(r, http.MethodGet, "/api/v1/users/verification?walletAddress=0xABC", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.VerificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.IsVerified)
}

func TestRegister_InvalidWallet(t *testing.T) {
	w := send(newRouter(), http.MethodPost, "/api/v1/users/register", models.RegisterRequest{WalletAddress: "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ADDRESS")
}

func TestVerify_MissingProof(t *testing.T) {
	w := send(newRouter(), http.MethodPost, "/api/v1/users/verify", map[string]string{"walletAddress": "0xabc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
