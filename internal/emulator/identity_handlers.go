package emulator

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type identityHandler struct {
	accounts *AccountService
	tokens   *TokenService
	logger   *zap.Logger
}

type accountRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func identityError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": gin.H{"message": message}})
}

func (h *identityHandler) signUp(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		identityError(c, http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	pair, userID, err := h.accounts.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			identityError(c, http.StatusBadRequest, "EMAIL_EXISTS")
		case errors.Is(err, ErrInvalidEmail):
			identityError(c, http.StatusBadRequest, "INVALID_EMAIL")
		case errors.Is(err, ErrWeakPassword):
			identityError(c, http.StatusBadRequest, "WEAK_PASSWORD")
		default:
			h.logger.Error("sign up failed", zap.Error(err))
			identityError(c, http.StatusInternalServerError, "INTERNAL_ERROR")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"idToken":      pair.IDToken,
		"localId":      userID,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    strconv.Itoa(int(pair.ExpiresIn.Seconds())),
	})
}

func (h *identityHandler) signIn(c *gin.Context) {
	var req accountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		identityError(c, http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	pair, userID, err := h.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrRateLimited):
			identityError(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS_TRY_LATER")
		case errors.Is(err, ErrInvalidCredentials):
			identityError(c, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
		default:
			h.logger.Error("sign in failed", zap.Error(err))
			identityError(c, http.StatusInternalServerError, "INTERNAL_ERROR")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"idToken":      pair.IDToken,
		"localId":      userID,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    strconv.Itoa(int(pair.ExpiresIn.Seconds())),
	})
}

func (h *identityHandler) refresh(c *gin.Context) {
	var req struct {
		GrantType    string `json:"grant_type" binding:"required"`
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.GrantType != "refresh_token" {
		identityError(c, http.StatusBadRequest, "INVALID_REQUEST")
		return
	}

	pair, userID, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		identityError(c, http.StatusBadRequest, "INVALID_REFRESH_TOKEN")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id_token":      pair.IDToken,
		"user_id":       userID,
		"refresh_token": pair.RefreshToken,
		"expires_in":    strconv.Itoa(int(pair.ExpiresIn.Seconds())),
	})
}
