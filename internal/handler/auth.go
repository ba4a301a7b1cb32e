package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campustrack/internal/auth"
	"campustrack/internal/otp"
	"campustrack/internal/roster"
	"campustrack/internal/validate"
)

// RegisterAdmin creates the first administrator account. Once any admin
// exists the endpoint is closed.
func (h *Handler) RegisterAdmin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Username(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.Password(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := h.roster.CountAdmins(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin registration is closed"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		serverError(c, err)
		return
	}
	id, err := h.roster.CreateAdmin(c.Request.Context(), req.Username, hash)
	if err != nil {
		if errors.Is(err, roster.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "username": req.Username})
}

// Login authenticates an admin, staff or HOD and issues an access token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Role     string `json:"role" binding:"required,oneof=admin staff hod"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.roster.AccountByUsername(c.Request.Context(), req.Role, req.Username)
	if err != nil {
		serverError(c, err)
		return
	}
	if acc == nil || !auth.CheckPassword(acc.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	token, exp, err := auth.Issue(acc.ID, acc.Username, req.Role, acc.Name, auth.PurposeAccess, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
		"role":         req.Role,
		"name":         acc.Name,
	})
}

// ForgotPassword starts OTP recovery for admin and staff accounts. The
// response is the same whether or not the account exists, so the endpoint
// cannot be used to enumerate usernames.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Role     string `json:"role" binding:"required,oneof=admin staff"`
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.otp.Begin(c.Request.Context(), req.Role, req.Username)
	switch {
	case err == nil, errors.Is(err, otp.ErrAccountNotFound):
		c.JSON(http.StatusOK, gin.H{"message": "if the account exists, an OTP has been sent"})
	case errors.Is(err, otp.ErrNoContact):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no phone number is registered for this account"})
	default:
		serverError(c, err)
	}
}

// VerifyOTP checks a submitted code and returns a short-lived reset token.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req struct {
		Role     string `json:"role" binding:"required,oneof=admin staff"`
		Username string `json:"username" binding:"required"`
		OTP      string `json:"otp" binding:"required,len=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.otp.Verify(c.Request.Context(), req.Role, req.Username, req.OTP)
	if err != nil {
		if errors.Is(err, otp.ErrInvalidOTP) || errors.Is(err, otp.ErrAccountNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired OTP"})
			return
		}
		serverError(c, err)
		return
	}

	token, exp, err := auth.Issue(acc.ID, acc.Username, req.Role, acc.Name, auth.PurposeReset, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.ResetTTL)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset_token": token, "expires_at": exp.Unix()})
}

// ResetPassword sets a new password using a reset token from VerifyOTP.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		NewPassword     string `json:"new_password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}
	if err := validate.Password(req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authz := c.GetHeader("Authorization")
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing reset token"})
		return
	}
	claims, err := auth.Parse(strings.TrimSpace(authz[len("bearer "):]), h.cfg.JWTSigningKey, h.cfg.JWTIssuer)
	if err != nil || claims.Purpose != auth.PurposeReset {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid reset token"})
		return
	}

	if err := h.otp.Reset(c.Request.Context(), claims.Role, claims.UserID, req.NewPassword); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successfully, please log in"})
}
