package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moments-backend/internal/common/errors"
	"moments-backend/internal/common/validation"
	"moments-backend/internal/features/user/models"
	"moments-backend/internal/features/user/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("/register", h.Register)
		users.GET("/info", h.Info)
		users.GET("/verification", h.VerificationStatus)
		users.POST("/verify", h.Verify)
	}
}

// @Summary Register user
// @Description Registers a wallet as an unverified user. Registering an existing wallet returns it unchanged.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Wallet"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}
	if err := validation.Struct(req); err != nil {
		c.Error(err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.WalletAddress)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Get user info
// @Description Returns the user for a wallet, creating it unverified when unknown.
// @Tags users
// @Produce json
// @Param walletAddress query string true "Wallet address"
// @Success 200 {object} models.UserResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /users/info [get]
func (h *UserHandler) Info(c *gin.Context) {
	user, err := h.service.Info(c.Request.Context(), c.Query("walletAddress"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Get verification status
// @Tags users
// @Produce json
// @Param walletAddress query string true "Wallet address"
// @Success 200 {object} models.VerificationResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /users/verification [get]
func (h *UserHandler) VerificationStatus(c *gin.Context) {
	status, err := h.service.VerificationStatus(c.Request.Context(), c.Query("walletAddress"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// @Summary Verify identity
// @Description Forwards an identity proof to the identity provider and marks the wallet verified on success.
// @Tags users
// @Accept json
// @Produce json
// @Param request body models.VerifyRequest true "Proof"
// @Success 200 {object} models.VerificationResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /users/verify [post]
func (h *UserHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("body", err.Error()))
		return
	}
	if err := validation.Struct(req); err != nil {
		c.Error(err)
		return
	}

	res, err := h.service.Verify(c.Request.Context(), req.WalletAddress, models.VerificationProof{
		Proof:         req.Proof,
		PublicSignals: req.PublicSignals,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}
