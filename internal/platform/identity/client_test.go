package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments-backend/internal/common/config"
	"moments-backend/internal/features/user/models"
)

func newTestClient(url string) *Client {
	cfg := &config.Config{}
	cfg.Identity.VerifierURL = url
	cfg.Identity.Scope = "moments"
	cfg.Identity.Timeout = time.Second
	return NewClient(cfg)
}

var proof = models.VerificationProof{
	Proof:         map[string]interface{}{"protocol": "groth16"},
	PublicSignals: []string{"1", "2"},
}

func TestVerify_Valid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req verifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "moments", req.Scope)
		assert.Equal(t, []string{"1", "2"}, req.PublicSignals)

		_ = json.NewEncoder(w).Encode(verifyResponse{IsValid: true, UserIdentifier: "ident-7"})
	}))
	defer srv.Close()

	ok, id, err := newTestClient(srv.URL).Verify(context.Background(), proof)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ident-7", id)
}

func TestVerify_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"isValid":false}`))
	}))
	defer srv.Close()

	ok, _, err := newTestClient(srv.URL).Verify(context.Background(), proof)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).Verify(context.Background(), proof)
	assert.Error(t, err)
}

func TestVerify_NotConfigured(t *testing.T) {
	_, _, err := newTestClient("").Verify(context.Background(), proof)
	assert.Error(t, err)
}
