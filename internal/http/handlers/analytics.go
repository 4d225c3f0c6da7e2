package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/inboxtriage/backend/internal/apperr"
)

const dateLayout = "2006-01-02"

// @Summary Today's analytics
// @Tags analytics
// @Produce json
// @Success 200 {object} models.DailyAnalytics
// @Router /api/analytics/today [get]
func (h *Handler) AnalyticsToday(c *gin.Context) {
	ctx := c.Request.Context()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	rollup, err := h.Store.GetAnalyticsByDate(ctx, today)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to load analytics", err.Error())
			return
		}
		// No rollup yet for today, compute one on the fly.
		rollup, err = h.Aggregator.UpdateDaily(ctx)
		if err != nil {
			writeAppError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, rollup)
}

// @Summary Analytics range
// @Tags analytics
// @Produce json
// @Param startDate query string true "YYYY-MM-DD"
// @Param endDate query string true "YYYY-MM-DD"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/analytics/range [get]
func (h *Handler) AnalyticsRange(c *gin.Context) {
	start, err := time.Parse(dateLayout, c.Query("startDate"))
	if err != nil {
		writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "startDate must be YYYY-MM-DD", nil)
		return
	}
	end, err := time.Parse(dateLayout, c.Query("endDate"))
	if err != nil {
		writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "endDate must be YYYY-MM-DD", nil)
		return
	}
	if end.Before(start) {
		writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "endDate must not precede startDate", nil)
		return
	}

	items, err := h.Store.ListAnalyticsRange(c.Request.Context(), start, end)
	if err != nil {
		writeError(c, http.StatusInternalServerError, apperr.CodePersistenceUnavailable, "Failed to load analytics", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
