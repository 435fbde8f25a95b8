package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskcal/internal/models"
	"taskcal/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// @Summary      Регистрация
// @Description  Creates an account with e-mail and password (min 6 chars)
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.LoginRequest  true  "Credentials"
// @Success      201     {object}  models.User
// @Failure      400     {object}  ErrorResponse
// @Failure      401     {object}  ErrorResponse
// @Router       /signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "auth][signup", err)
		return
	}
	user, err := h.authService.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "auth][signup", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// @Summary      Вход в систему
// @Description  Аутентифицирует пользователя и возвращает токены доступа
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  ErrorResponse
// @Failure      401    {object}  ErrorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		badRequest(c, "auth][login", err)
		return
	}
	log.Printf("[auth][login] attempt email=%q", strings.TrimSpace(req.Email))

	user, tokens, err := h.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "auth][login", err)
		return
	}

	log.Printf("[auth][login] success userID=%d took=%s", user.ID, time.Since(start).Truncate(time.Millisecond))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

// @Summary  Rotate refresh token
// @Tags     Auth
// @Accept   json
// @Produce  json
// @Param    body  body      refreshRequest  true  "Refresh token"
// @Success  200   {object}  models.Tokens
// @Failure  401   {object}  ErrorResponse
// @Router   /refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "auth][refresh", err)
		return
	}
	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, "auth][refresh", err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary   Sign out
// @Tags      Auth
// @Security  BearerAuth
// @Success   204
// @Router    /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := mustSession(c, "auth][logout")
	if !ok {
		return
	}
	if err := h.authService.SignOut(c.Request.Context(), sess.UserID); err != nil {
		respondError(c, "auth][logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}
