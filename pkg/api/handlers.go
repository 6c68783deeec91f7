package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/drayishere/lead-capture/pkg/models"
	"github.com/drayishere/lead-capture/pkg/services"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	subscriptionService services.SubscriptionService
	logger              zerolog.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(subscriptionService services.SubscriptionService, logger zerolog.Logger) *Handlers {
	return &Handlers{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// HandleSubscribe processes a lead-capture form submission and forwards it
// to Klaviyo. The caller gets the final outcome of the full upstream
// orchestration in this same request.
func (h *Handlers) HandleSubscribe(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Error().Err(err).Msg("error reading request body")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request"})
		return
	}

	h.logger.Info().Str("body", string(body)).Msg("received submission")

	// A missing or unparseable body behaves as an empty submission; the
	// failure then surfaces as a missing email rather than a parse error.
	var data models.SubscribeRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			h.logger.Warn().Err(err).Msg("unparseable body, treating as empty")
			data = models.SubscribeRequest{}
		}
	}

	if strings.TrimSpace(data.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email"})
		return
	}

	result, err := h.subscriptionService.ProcessSubscription(c.Request.Context(), data, c.GetHeader("Referer"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"list":    result.ListID,
		"profile": result.ProfileID,
	})
}

// respondError maps service failures onto response envelopes: configuration
// problems are a plain 500, upstream failures carry the provider's status
// and raw diagnostic, and anything unrecognized becomes a generic 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		h.logger.Error().Err(err).Msg("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Server error",
			"details": err.Error(),
		})
		return
	}

	status := svcErr.Status
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}

	if svcErr.Kind == services.KindConfig {
		c.JSON(http.StatusInternalServerError, gin.H{"error": svcErr.Message})
		return
	}

	payload := gin.H{"error": svcErr.Message}
	if svcErr.Details != "" {
		payload["details"] = svcErr.Details
	}
	c.JSON(status, payload)
}
