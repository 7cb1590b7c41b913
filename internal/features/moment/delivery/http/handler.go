package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "moments-backend/internal/common/errors"
	"moments-backend/internal/common/validation"
	"moments-backend/internal/features/moment/mapper"
	"moments-backend/internal/features/moment/models"
	"moments-backend/internal/features/moment/models/dto"
	"moments-backend/internal/features/moment/service"
)

type MomentHandler struct {
	service service.MomentService
}

func NewMomentHandler(service service.MomentService) *MomentHandler {
	return &MomentHandler{
		service: service,
	}
}

func (h *MomentHandler) RegisterRoutes(router *gin.RouterGroup) {
	moments := router.Group("/moments")
	{
		moments.POST("", h.create)
		moments.GET("", h.list)
		moments.GET("/featured", h.featured)
		moments.GET("/:id", h.getByID)
		moments.GET("/:id/view", h.view)
		moments.GET("/:id/sign/nonce", h.signingNonce)
		moments.POST("/:id/sign", h.sign)
		moments.POST("/:id/publish", h.publish)
		moments.POST("/:id/access", h.access)
	}
}

// @Summary Create moment
// @Description Creates a moment in status created with one unsigned participant per wallet.
// @Tags moments
// @Accept json
// @Produce json
// @Param input body dto.CreateMomentRequest true "Moment"
// @Success 201 {object} dto.MomentResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /moments [post]
func (h *MomentHandler) create(c *gin.Context) {
	var input dto.CreateMomentRequest
	if !bind(c, &input) {
		return
	}

	m, err := h.service.Create(c.Request.Context(), mapper.ToNewMoment(&input))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, mapper.ToMomentResponse(m))
}

// @Summary List moments
// @Description With walletAddress lists moments the wallet created or participates in; without it lists public published moments.
// @Tags moments
// @Produce json
// @Param walletAddress query string false "Wallet address"
// @Param q query string false "Title or description search"
// @Param limit query int false "Page size" default(100)
// @Param offset query int false "Offset"
// @Success 200 {array} dto.MomentResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /moments [get]
func (h *MomentHandler) list(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		c.Error(err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		c.Error(err)
		return
	}

	moments, err := h.service.List(c.Request.Context(), models.ListFilter{
		Wallet: c.Query("walletAddress"),
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToMomentResponses(moments))
}

// @Summary Featured moments
// @Description Latest public published moments.
// @Tags moments
// @Produce json
// @Success 200 {array} dto.FeaturedMomentResponse
// @Router /moments/featured [get]
func (h *MomentHandler) featured(c *gin.Context) {
	moments, err := h.service.Featured(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToFeaturedResponses(moments))
}

// @Summary Get moment
// @Tags moments
// @Produce json
// @Param id path string true "Moment ID"
// @Success 200 {object} dto.MomentResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /moments/{id} [get]
func (h *MomentHandler) getByID(c *gin.Context) {
	m, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, mapper.ToMomentResponse(m))
}

// @Summary Moment view
// @Description Status, permissions and available actions for the viewer. Omit walletAddress for an anonymous view.
// @Tags moments
// @Produce json
// @Param id path string true "Moment ID"
// @Param walletAddress query string false "Viewer wallet"
// @Success 200 {object} models.MomentView
// @Failure 404 {object} middleware.ErrorResponse
// @Router /moments/{id}/view [get]
func (h *MomentHandler) view(c *gin.Context) {
	v, err := h.service.GetView(c.Request.Context(), c.Param("id"), c.Query("walletAddress"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Issue signing nonce
// @Description One-time nonce the participant embeds in the signed message.
// @Tags moments
// @Produce json
// @Param id path string true "Moment ID"
// @Param walletAddress query string true "Participant wallet"
// @Success 200 {object} dto.NonceResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /moments/{id}/sign/nonce [get]
func (h *MomentHandler) signingNonce(c *gin.Context) {
	n, err := h.service.IssueSigningNonce(c.Request.Context(), c.Param("id"), c.Query("walletAddress"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.NonceResponse{Nonce: n.Nonce, ExpiresAt: n.ExpiresAt})
}

// @Summary Sign moment
// @Description Records the participant's signature and returns the new status.
// @Tags moments
// @Accept json
// @Produce json
// @Param id path string true "Moment ID"
// @Param input body dto.SignRequest true "Signature"
// @Success 200 {object} dto.SignResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /moments/{id}/sign [post]
func (h *MomentHandler) sign(c *gin.Context) {
	var input dto.SignRequest
	if !bind(c, &input) {
		return
	}

	status, err := h.service.Sign(c.Request.Context(), c.Param("id"), mapper.ToSignaturePayload(&input))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SignResponse{Status: status})
}

// @Summary Publish moment
// @Description Publishes a completed moment. Publishing again replaces the settings.
// @Tags moments
// @Accept json
// @Produce json
// @Param id path string true "Moment ID"
// @Param input body dto.PublishRequest true "Publish settings"
// @Success 200 {object} dto.PublishResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /moments/{id}/publish [post]
func (h *MomentHandler) publish(c *gin.Context) {
	var input dto.PublishRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}

	info, err := h.service.Publish(c.Request.Context(), c.Param("id"), input.WalletAddress, mapper.ToPublishSettings(&input))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.PublishResponse{PublishInfo: mapper.ToPublishInfoResponse(info)})
}

// @Summary Check access
// @Tags moments
// @Accept json
// @Produce json
// @Param id path string true "Moment ID"
// @Param input body dto.AccessRequest true "Wallet"
// @Success 200 {object} dto.AccessResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /moments/{id}/access [post]
func (h *MomentHandler) access(c *gin.Context) {
	var input dto.AccessRequest
	if !bind(c, &input) {
		return
	}

	ok, err := h.service.CheckAccess(c.Request.Context(), c.Param("id"), input.WalletAddress)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.AccessResponse{HasAccess: ok})
}

// bind decodes the JSON body and runs tag validation, recording the
// failure on the context.
func bind(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return false
	}
	if err := validation.Struct(v); err != nil {
		c.Error(err)
		return false
	}
	return true
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(name, "must be an integer")
	}
	return n, nil
}
