package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/infra/cache"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
	ucBooking "github.com/BruksfildServices01/barber-booking/internal/usecase/booking"
	ucProvider "github.com/BruksfildServices01/barber-booking/internal/usecase/provider"
)

const maxWebhookBody = 1 << 20

// ======================================================
// HANDLER
// ======================================================

// WebhookHandler receives processor notifications. A 2xx tells the processor
// to stop retrying, so only transient failures answer 5xx.
type WebhookHandler struct {
	parsers     map[string]payments.WebhookParser
	processed   cache.ProcessedStore
	apply       *ucBooking.ApplyPaymentOutcome
	syncAccount *ucProvider.SyncPaymentAccount
	log         *zap.Logger
}

func NewWebhookHandler(
	processed cache.ProcessedStore,
	apply *ucBooking.ApplyPaymentOutcome,
	syncAccount *ucProvider.SyncPaymentAccount,
	log *zap.Logger,
	parsers ...payments.WebhookParser,
) *WebhookHandler {
	h := &WebhookHandler{
		parsers:     make(map[string]payments.WebhookParser, len(parsers)),
		processed:   processed,
		apply:       apply,
		syncAccount: syncAccount,
		log:         logger.OrNop(log),
	}
	for _, p := range parsers {
		if p != nil {
			h.parsers[p.Name()] = p
		}
	}
	return h
}

// Receive serves POST /api/webhooks/:provider.
func (h *WebhookHandler) Receive(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		parser, ok := h.parsers[name]
		if !ok {
			httperr.NotFound(c, "webhook_not_configured", "Unknown payment provider.")
			return
		}
		h.receive(c, parser)
	}
}

func (h *WebhookHandler) receive(c *gin.Context, parser payments.WebhookParser) {
	ctx := c.Request.Context()
	log := h.log.With(zap.String("provider", parser.Name()))

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		httperr.BadRequest(c, "invalid_payload", "Could not read body.")
		return
	}

	ev, err := parser.ParseWebhook(ctx, payments.WebhookRequest{
		Header: c.Request.Header,
		Query:  c.Request.URL.Query(),
		Body:   body,
	})
	switch {
	case errors.Is(err, payments.ErrInvalidSignature):
		log.Warn("webhook signature rejected", zap.Error(err))
		httperr.BadRequest(c, "invalid_signature", "Invalid signature.")
		return
	case errors.Is(err, payments.ErrInvalidPayload):
		log.Warn("webhook payload rejected", zap.Error(err))
		httperr.BadRequest(c, "invalid_payload", "Invalid payload.")
		return
	case err != nil:
		log.Error("webhook parse failed", zap.Error(err))
		httperr.Internal(c, "webhook_failed", "Try again later.")
		return
	}

	log = log.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	if !ev.HasOutcome() && !ev.HasAccountUpdate() {
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	if ev.ID != "" {
		seen, err := h.processed.AlreadyProcessed(ctx, parser.Name(), ev.ID)
		if err != nil {
			// Outcomes are idempotent, so a cache outage only costs duplicate work.
			log.Warn("webhook dedupe lookup failed", zap.Error(err))
		}
		if seen {
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
	}

	resp := gin.H{"received": true}

	if ev.HasAccountUpdate() {
		if err := h.account(ctx, ev); err != nil {
			log.Error("payment account update failed", zap.Error(err), zap.String("account_id", ev.AccountID))
			httperr.Internal(c, "webhook_failed", "Try again later.")
			return
		}
	}

	if ev.HasOutcome() {
		res, err := h.apply.Execute(ctx, outcomeFrom(ev))
		if err != nil {
			if retryable(err) {
				log.Error("payment outcome failed", zap.Error(err))
				httperr.Internal(c, "webhook_failed", "Try again later.")
				return
			}
			log.Warn("payment outcome rejected", zap.Error(err))
			resp["rejected"] = string(httperr.KindOf(err))
		} else {
			if res.Inconsistent != "" {
				log.Error("payment outcome needs follow-up",
					zap.String("booking_id", res.BookingID),
					zap.String("slot_id", ev.SlotID),
					zap.String("provider_id", ev.ProviderID),
					zap.String("inconsistent", res.Inconsistent),
				)
			}
			resp["result"] = res
		}
	}

	if ev.ID != "" {
		if _, err := h.processed.MarkProcessed(ctx, parser.Name(), ev.ID); err != nil {
			log.Warn("webhook dedupe mark failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *WebhookHandler) account(ctx context.Context, ev *payments.Event) error {
	_, err := h.syncAccount.Execute(ctx, ev.AccountID, ev.AccountStatus)
	if httperr.IsKind(err, httperr.KindNotFound) {
		h.log.Info("payment account not linked to a provider", zap.String("account_id", ev.AccountID))
		return nil
	}
	return err
}

func outcomeFrom(ev *payments.Event) ucBooking.PaymentOutcome {
	return ucBooking.PaymentOutcome{
		EventID:           ev.ID,
		Source:            ev.Provider,
		BookingID:         ev.BookingID,
		SlotID:            ev.SlotID,
		ProviderID:        ev.ProviderID,
		Outcome:           ev.Outcome,
		ExternalReference: ev.ExternalReference,
		ReceiptReference:  ev.ReceiptReference,
	}
}

// retryable reports whether the processor should deliver the event again.
func retryable(err error) bool {
	switch httperr.KindOf(err) {
	case "", httperr.KindUpstream, httperr.KindConflict:
		return true
	}
	return false
}
