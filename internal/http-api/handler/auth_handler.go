package handler

import (
	"errors"
	"net/http"

	"reviewhub/internal/http-api/dto"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes registers the signup/token handshake routes.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.Signup)
	rg.POST("/token", h.IssueToken)
}

// Signup handles POST /api/v1/auth/signup.
// Repeating an identical (username, email) pair re-sends a code and is
// still a 200.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), req.Username, req.Email)
	if err != nil {
		switch {
		// The cross-taken messages look swapped but are the contract:
		// a taken username means the supplied email cannot match it,
		// and vice versa.
		case errors.Is(err, service.ErrUsernameInUse):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		case errors.Is(err, service.ErrEmailInUse):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		default:
			respondServiceError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, dto.SignupResponse{Username: user.Username, Email: user.Email})
}

// IssueToken handles POST /api/v1/auth/token.
// An unknown username is a 404; a bad or expired code is a generic 400.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.IssueToken(c.Request.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid confirmation code"})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{Username: req.Username, Token: token})
}
