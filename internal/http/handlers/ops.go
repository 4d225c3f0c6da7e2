package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inboxtriage/backend/internal/apperr"
)

// @Summary Sync mailbox
// @Description Pulls unread support emails from the connected mailbox, runs the pipeline on each, then refreshes today's analytics
// @Tags ops
// @Produce json
// @Success 200 {object} service.BatchSummary
// @Failure 502 {object} map[string]any
// @Router /api/sync [post]
func (h *Handler) Sync(c *gin.Context) {
	if h.Syncer == nil {
		writeError(c, http.StatusBadGateway, apperr.CodeUpstreamUnavailable, "Mailbox is not configured", nil)
		return
	}

	summary, err := h.Syncer.Sync(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}

	if _, err := h.Aggregator.UpdateDaily(c.Request.Context()); err != nil {
		h.Logger.Error().Err(err).Msg("failed to refresh analytics after sync")
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Process urgent emails
// @Description Drafts responses for up to 5 unresolved urgent emails that have none yet
// @Tags ops
// @Produce json
// @Success 200 {object} service.BatchSummary
// @Router /api/process-urgent [post]
func (h *Handler) ProcessUrgent(c *gin.Context) {
	summary, err := h.Pipeline.ProcessUrgent(c.Request.Context())
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Seed sample data
// @Description Loads the bundled sample emails, or an uploaded CSV (sender,subject,body,sent_date), through the full pipeline, then backfills analytics
// @Tags ops
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "emails.csv"
// @Success 200 {object} service.BatchSummary
// @Failure 400 {object} map[string]any
// @Router /api/seed [post]
func (h *Handler) Seed(c *gin.Context) {
	ctx := c.Request.Context()

	file, err := c.FormFile("file")
	if err == nil {
		f, openErr := file.Open()
		if openErr != nil {
			writeError(c, http.StatusBadRequest, apperr.CodeInvalidInput, "failed to open uploaded file", openErr.Error())
			return
		}
		defer f.Close()

		result, seedErr := h.Seeder.SeedCSV(ctx, f)
		if seedErr != nil {
			writeAppError(c, seedErr)
			return
		}
		h.backfillAfterSeed(c)
		c.JSON(http.StatusOK, result)
		return
	}

	result, seedErr := h.Seeder.SeedSamples(ctx)
	if seedErr != nil {
		writeAppError(c, seedErr)
		return
	}
	h.backfillAfterSeed(c)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) backfillAfterSeed(c *gin.Context) {
	if _, err := h.Aggregator.Backfill(c.Request.Context()); err != nil {
		h.Logger.Error().Err(err).Msg("failed to backfill analytics after seed")
	}
}
