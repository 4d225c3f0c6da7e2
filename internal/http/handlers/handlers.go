package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/inboxtriage/backend/internal/apperr"
	"github.com/inboxtriage/backend/internal/db"
	"github.com/inboxtriage/backend/internal/service"
)

type Handler struct {
	Store      *db.Store
	Pipeline   *service.Pipeline
	Aggregator *service.Aggregator
	Seeder     *service.Seeder
	Syncer     *service.Syncer
	OAuth      *oauth2.Config
	Validator  *validator.Validate
	Logger     zerolog.Logger
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary List emails
// @Description List emails, optionally filtered by priority or sentiment (at most one)
// @Tags emails
// @Produce json
// @Param priority query string false "urgent or normal"
// @Param sentiment query string false "positive, negative, or neutral"
// @Param limit query int false "max rows, default 50"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/emails [get]
func (h *Handler) EmailsList(c *gin.Context) {
	priorityRaw := c.Query("priority")
	sentimentRaw := c.Query("sentiment")
	if priorityRaw != "" && sentimentRaw != "" {
		writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "filter by priority or sentiment, not both", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ctx := c.Request.Context()
	switch {
	case priorityRaw != "":
		priority, ok := db.ParsePriority(priorityRaw)
		if !ok {
			writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "unknown priority value", priorityRaw)
			return
		}
		items, err := h.Store.ListEmailsByPriority(ctx, priority)
		if err != nil {
			writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to list emails", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	case sentimentRaw != "":
		sentiment, ok := db.ParseSentiment(sentimentRaw)
		if !ok {
			writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "unknown sentiment value", sentimentRaw)
			return
		}
		items, err := h.Store.ListEmailsBySentiment(ctx, sentiment)
		if err != nil {
			writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to list emails", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	default:
		items, err := h.Store.ListEmails(ctx, limit)
		if err != nil {
			writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to list emails", err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit})
	}
}

// @Summary Get email
// @Tags emails
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} models.Email
// @Failure 404 {object} map[string]any
// @Router /api/emails/{id} [get]
func (h *Handler) EmailDetails(c *gin.Context) {
	email, err := h.Store.GetEmailByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, apperr.CodeNotFound, "Email not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to get email", err.Error())
		return
	}
	c.JSON(http.StatusOK, email)
}

// @Summary List responses for an email
// @Tags responses
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/emails/{id}/responses [get]
func (h *Handler) ResponsesList(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.Store.GetEmailByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, apperr.CodeNotFound, "Email not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to get email", err.Error())
		return
	}

	items, err := h.Store.ListResponsesByEmail(ctx, id)
	if err != nil {
		writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to list responses", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Regenerate a response
// @Description Drafts a fresh reply for the email and appends it to its response history
// @Tags responses
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/emails/{id}/responses [post]
func (h *Handler) ResponseRegenerate(c *gin.Context) {
	content, err := h.Pipeline.GenerateNewResponse(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// @Summary Resolve an email
// @Tags emails
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/emails/{id}/resolve [post]
func (h *Handler) EmailResolve(c *gin.Context) {
	if err := h.Store.MarkEmailResolved(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, apperr.CodeNotFound, "Email not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to resolve email", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Send a response
// @Description Marks the response sent and its email resolved. Delivery is simulated.
// @Tags responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/responses/{id}/send [post]
func (h *Handler) ResponseSend(c *gin.Context) {
	if err := h.Store.MarkResponseSent(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, apperr.CodeNotFound, "Response not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to send response", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func writeAppError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	var details any
	if appErr.Err != nil {
		details = appErr.Err.Error()
	}
	writeError(c, appErr.Status, appErr.Code, appErr.Message, details)
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
