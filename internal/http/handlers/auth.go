package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inboxtriage/backend/internal/apperr"
	"github.com/inboxtriage/backend/internal/mail"
)

// @Summary Gmail auth URL
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/auth/gmail [get]
func (h *Handler) GmailAuthURL(c *gin.Context) {
	if h.OAuth == nil {
		writeError(c, http.StatusBadGateway, apperr.CodeUpstreamUnavailable, "Gmail OAuth is not configured", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authUrl": mail.AuthURL(h.OAuth)})
}

type gmailCallbackRequest struct {
	Code string `json:"code" validate:"required"`
}

// @Summary Gmail OAuth callback
// @Description Exchanges the authorization code for tokens. Store the refresh token in GMAIL_REFRESH_TOKEN.
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /api/auth/gmail/callback [post]
func (h *Handler) GmailAuthCallback(c *gin.Context) {
	if h.OAuth == nil {
		writeError(c, http.StatusBadGateway, apperr.CodeUpstreamUnavailable, "Gmail OAuth is not configured", nil)
		return
	}

	var req gmailCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "Validation failed", err.Error())
		return
	}

	token, err := mail.ExchangeCode(c.Request.Context(), h.OAuth, req.Code)
	if err != nil {
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"refresh_token": token.RefreshToken,
		"expiry":        token.Expiry,
	})
}
