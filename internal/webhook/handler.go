package webhook

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"whatsapp-lead-logger/internal/config"
	"whatsapp-lead-logger/internal/graph"
	"whatsapp-lead-logger/internal/leads"
	"whatsapp-lead-logger/internal/logger"
	"whatsapp-lead-logger/internal/notification"
	"whatsapp-lead-logger/pkg/models"
)

// maxBodyBytes caps a single delivery. Larger bodies are acknowledged and dropped.
const maxBodyBytes = 1 << 20

// Resolver turns a referral source ID into a campaign name.
type Resolver interface {
	Resolve(ctx context.Context, sourceID string) graph.Resolution
}

// LeadSink stores a finished lead. It reports nothing back.
type LeadSink interface {
	Append(ctx context.Context, rec models.LeadRecord)
}

type Handler struct {
	VerifyToken string
	AppSecret   string
	Resolver    Resolver
	Sink        LeadSink
	Filter      leads.Filter
	Now         func() time.Time
	Log         zerolog.Logger
}

func NewHandler(cfg *config.Config, resolver Resolver, sink LeadSink, log zerolog.Logger) *Handler {
	return &Handler{
		VerifyToken: cfg.VerifyToken,
		AppSecret:   cfg.AppSecret,
		Resolver:    resolver,
		Sink:        sink,
		Filter:      leads.NewFilter(cfg.CampaignPrefix),
		Now:         time.Now,
		Log:         log.With().Str("component", "webhook").Logger(),
	}
}

// VerifyWebhook answers Meta's subscription handshake.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if h.VerifyToken != "" && mode == "subscribe" && token == h.VerifyToken {
		h.Log.Info().Msg("Webhook verified successfully!")
		c.String(http.StatusOK, challenge)
		return
	}

	h.Log.Warn().Str("mode", mode).Msg("Webhook verification failed")
	c.String(http.StatusForbidden, "Forbidden")
}

// HandleMessage processes one delivery. The response is always 200 "OK", even
// when processing panics, so that Meta does not redeliver.
func (h *Handler) HandleMessage(c *gin.Context) {
	log := h.Log.With().Str("request_id", c.GetString(logger.RequestIDKey)).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Error processing webhook payload")
		}
		c.String(http.StatusOK, "OK")
	}()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		log.Error().Err(err).Msg("Error reading webhook body")
		return
	}
	log.Debug().RawJSON("payload", jsonOrQuoted(body)).Msg("Webhook received")

	if h.AppSecret != "" && !ValidSignature(h.AppSecret, c.GetHeader(SignatureHeader), body) {
		log.Warn().Msg("Webhook signature mismatch, ignoring delivery")
		return
	}

	h.process(context.WithoutCancel(c.Request.Context()), body, log)
}

func (h *Handler) process(ctx context.Context, body []byte, log zerolog.Logger) {
	res := notification.Parse(body)
	if !res.OK() {
		log.Debug().Stringer("outcome", res.Outcome).Msg("No lead in webhook")
		return
	}

	ref, contact := res.Candidate.Referral, res.Candidate.Contact
	resolution := h.Resolver.Resolve(ctx, ref.SourceID)
	rec := leads.NewRecord(h.Now(), resolution.DisplayName(), ref, contact)

	if !h.Filter.Allow(rec) {
		log.Info().
			Str("campaign", rec.CampaignName).
			Str("prefix", h.Filter.Prefix).
			Str("source_id", rec.SourceID).
			Msg("Lead filtered out by campaign prefix")
		return
	}

	h.Sink.Append(ctx, rec)
	log.Info().Str("campaign", rec.CampaignName).Str("source_id", rec.SourceID).Msg("Lead processed")
}

// jsonOrQuoted keeps the debug log valid JSON for non-JSON bodies.
func jsonOrQuoted(body []byte) []byte {
	if gjson.ValidBytes(body) {
		return body
	}
	return []byte(strconv.Quote(string(body)))
}
