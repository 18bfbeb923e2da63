package handlers

import (
	"crypto/subtle"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/besterhub/kgc-league/internal/api/middleware"
	"github.com/besterhub/kgc-league/pkg/config"
	"github.com/besterhub/kgc-league/pkg/utils"
)

type AuthHandler struct {
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		cfg: cfg,
	}
}

type tokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// IssueToken exchanges the configured admin API key for a short-lived JWT
// POST /api/v1/auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	if h.cfg.AdminAPIKey == "" {
		utils.SendUnauthorized(c, "Admin access is not configured")
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.cfg.AdminAPIKey)) != 1 {
		utils.SendUnauthorized(c, "Invalid API key")
		return
	}

	token, expiresAt, err := h.generateJWTToken()
	if err != nil {
		utils.SendInternalError(c, "Failed to issue token")
		return
	}

	utils.SendSuccess(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (h *AuthHandler) generateJWTToken() (string, time.Time, error) {
	expiresAt := time.Now().Add(24 * time.Hour)

	claims := &middleware.Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "league-admin",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "kgc-league",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}
