package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskcal/internal/services"
)

type PasswordResetHandler struct {
	service services.PasswordResetService
}

func NewPasswordResetHandler(service services.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{service: service}
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary  Request a password reset code by e-mail
// @Tags     Auth
// @Accept   json
// @Produce  json
// @Param    body  body  forgotPasswordRequest  true  "Account e-mail"
// @Success  202
// @Failure  400  {object}  ErrorResponse
// @Router   /password/forgot [post]
func (h *PasswordResetHandler) Forgot(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "password][forgot", err)
		return
	}
	if err := h.service.RequestReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, "password][forgot", err)
		return
	}
	// same answer whether or not the account exists
	c.JSON(http.StatusAccepted, gin.H{"message": "If the account exists, a reset code has been sent"})
}

// @Summary  Set a new password with a reset code
// @Tags     Auth
// @Accept   json
// @Param    body  body  resetPasswordRequest  true  "Code and new password"
// @Success  204
// @Failure  400  {object}  ErrorResponse
// @Failure  401  {object}  ErrorResponse
// @Router   /password/reset [post]
func (h *PasswordResetHandler) Reset(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "password][reset", err)
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, "password][reset", err)
		return
	}
	c.Status(http.StatusNoContent)
}
