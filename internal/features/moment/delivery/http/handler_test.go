package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moments-backend/internal/common/middleware"
	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/models/dto"
	"moments-backend/internal/features/moment/service"
	signingservice "moments-backend/internal/features/signing/service"
	"moments-backend/internal/platform/memory"
)

const (
	creator = "0x00000000000000000000000000000000000000c1"
	walletA = "0x00000000000000000000000000000000000000aa"
)

func init() {
	gin.SetMode(gin.TestMode)
	decimal.MarshalJSONWithoutQuotes = true
}

func newRouter() *gin.Engine {
	store := memory.NewStore()
	signer := signingservice.NewService(memory.NewNonceStore(), time.Minute, false)
	h := NewMomentHandler(service.NewMomentService(store, signer, nil))

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Errors())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestMomentFlow(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodPost, "/api/v1/moments", dto.CreateMomentRequest{
		Title:              "Rooftop",
		Description:        "Last night of summer",
		CreatorWallet:      creator,
		ParticipantWallets: []string{walletA},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.MomentResponse](t, w)
	assert.Equal(t, models.StatusCreated, created.Status)
	assert.Equal(t, 2, created.PartyCount)

	w = do(t, r, http.MethodGet, "/api/v1/moments/"+created.ID+"/view?walletAddress="+walletA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[models.MomentView](t, w)
	assert.True(t, view.CanSign)
	assert.Equal(t, created.Participants[0].ID, view.ParticipantID)

	w = do(t, r, http.MethodPost, "/api/v1/moments/"+created.ID+"/publish", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/moments/"+created.ID+"/sign", dto.SignRequest{
		ParticipantID: view.ParticipantID,
		Signature:     "0xsig",
		Message:       dto.SignMessage{Address: walletA},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusCompleted, decode[dto.SignResponse](t, w).Status)

	w = do(t, r, http.MethodPost, "/api/v1/moments/"+created.ID+"/sign", dto.SignRequest{
		ParticipantID: view.ParticipantID,
		Signature:     "0xsig",
		Message:       dto.SignMessage{Address: walletA},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ALREADY_SIGNED")

	w = do(t, r, http.MethodPost, "/api/v1/moments/"+created.ID+"/publish", map[string]interface{}{
		"walletAddress": walletA,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/moments/"+created.ID+"/publish", map[string]interface{}{
		"walletAddress": creator,
		"pricingType":   "paid",
		"price":         "1.25",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	published := decode[dto.PublishResponse](t, w)
	assert.True(t, published.PublishInfo.Price.Equal(decimal.RequireFromString("1.25")))

	w = do(t, r, http.MethodGet, "/api/v1/moments/featured", nil)
	require.Equal(t, http.StatusOK, w.Code)
	featured := decode[[]dto.FeaturedMomentResponse](t, w)
	require.Len(t, featured, 1)
	assert.Equal(t, models.PricingPaid, featured[0].PricingType)
	assert.Equal(t, "Last night of summer", featured[0].Description)
	assert.WithinDuration(t, created.CreatedAt, featured[0].Date, time.Second)

	w = do(t, r, http.MethodGet, "/api/v1/moments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.MomentResponse](t, w), 1)

	w = do(t, r, http.MethodPost, "/api/v1/moments/"+created.ID+"/access", dto.AccessRequest{WalletAddress: "0xdead"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.AccessResponse](t, w).HasAccess)
}

func TestMomentErrors(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodGet, "/api/v1/moments/does-not-exist/view", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/moments", dto.CreateMomentRequest{
		Title:              "x",
		CreatorWallet:      "bob",
		ParticipantWallets: []string{walletA},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ADDRESS")

	w = do(t, r, http.MethodGet, "/api/v1/moments?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
