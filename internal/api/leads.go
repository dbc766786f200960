package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"whatsapp-lead-logger/internal/models"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

var exportHeader = []string{"Timestamp", "Campaign", "Source ID", "Ad ID", "Contact Name", "WhatsApp ID", "Archived At"}

// LeadReader is the read side of the lead archive.
type LeadReader interface {
	Recent(ctx context.Context, limit int) ([]models.Lead, error)
	Each(ctx context.Context, fn func(models.Lead) error) error
}

// LeadHandler serves archived leads. Store is nil when the archive is disabled.
type LeadHandler struct {
	Store LeadReader
	Log   zerolog.Logger
}

func NewLeadHandler(store LeadReader, log zerolog.Logger) *LeadHandler {
	return &LeadHandler{Store: store, Log: log.With().Str("component", "api").Logger()}
}

func (h *LeadHandler) GetLeads(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lead archive disabled"})
		return
	}

	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxLimit)
	}

	leads, err := h.Store.Recent(c.Request.Context(), limit)
	if err != nil {
		h.Log.Error().Err(err).Msg("Error listing leads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list leads"})
		return
	}

	// Return empty array instead of null
	if leads == nil {
		leads = []models.Lead{}
	}

	c.JSON(http.StatusOK, leads)
}

// ExportLeads streams the whole archive as CSV, newest first. Once the first
// row is out the status is sent, so later failures are only logged.
func (h *LeadHandler) ExportLeads(c *gin.Context) {
	if h.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "lead archive disabled"})
		return
	}

	w := csv.NewWriter(c.Writer)
	started := false
	begin := func() error {
		if started {
			return nil
		}
		started = true
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=leads.csv")
		c.Status(http.StatusOK)
		return w.Write(exportHeader)
	}

	rows := 0
	err := h.Store.Each(c.Request.Context(), func(l models.Lead) error {
		if err := begin(); err != nil {
			return err
		}
		if err := w.Write([]string{l.Timestamp, l.CampaignName, l.SourceID, l.AdID, l.ContactName, l.ContactWaID, l.CreatedAt.Format(time.RFC3339)}); err != nil {
			return fmt.Errorf("write lead %s: %w", l.ID, err)
		}
		rows++
		return nil
	})
	if err == nil {
		err = begin()
	}
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if err != nil {
		h.Log.Error().Err(err).Int("rows_written", rows).Msg("Error exporting leads")
		if !started {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export leads"})
		}
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
