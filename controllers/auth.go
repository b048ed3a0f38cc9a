package controllers

import (
	"net/http"
	"time"

	"editorial-submission-api/middleware"
	"editorial-submission-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthController handles admin login.
type AuthController struct {
	admins    repository.AdminRepository
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthController wires the auth endpoints.
func NewAuthController(admins repository.AdminRepository, jwtSecret string) *AuthController {
	return &AuthController{
		admins:    admins,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates an admin and returns a signed JWT.
func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	admin, err := a.admins.ByEmail(req.Email)
	if err != nil {
		// Same response for unknown account and bad password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, expiresAt, err := a.signToken(admin.AdminID, admin.Email, admin.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	now := time.Now()
	if err := a.admins.Update(admin.AdminID, map[string]any{"last_login_at": now}); err == nil {
		admin.LastLoginAt = &now
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"admin": gin.H{
			"admin_id":     admin.AdminID,
			"email":        admin.Email,
			"display_name": admin.DisplayName,
		},
	})
}

// Refresh issues a fresh JWT for an already-authenticated admin.
func (a *AuthController) Refresh(c *gin.Context) {
	adminID := middleware.AdminID(c)
	admin, err := a.admins.ByID(adminID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "admin account not found"})
		return
	}

	token, expiresAt, err := a.signToken(admin.AdminID, admin.Email, admin.DisplayName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt})
}

func (a *AuthController) signToken(adminID, email, name string) (string, time.Time, error) {
	expiresAt := time.Now().Add(a.tokenTTL)
	claims := &middleware.Claims{
		AdminID: adminID,
		Email:   email,
		Name:    name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.jwtSecret))
	return token, expiresAt, err
}
