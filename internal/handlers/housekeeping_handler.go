package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	ucHousekeeping "github.com/BruksfildServices01/barber-booking/internal/usecase/housekeeping"
)

// ======================================================
// HANDLER
// ======================================================

type HousekeepingHandler struct {
	reconcile *ucHousekeeping.Reconcile
	cleanup   *ucHousekeeping.Cleanup
	expire    *ucHousekeeping.ExpirePending

	retentionDays  int
	reservationTTL time.Duration
}

func NewHousekeepingHandler(
	reconcile *ucHousekeeping.Reconcile,
	cleanup *ucHousekeeping.Cleanup,
	expire *ucHousekeeping.ExpirePending,
	retentionDays int,
	reservationTTL time.Duration,
) *HousekeepingHandler {
	return &HousekeepingHandler{
		reconcile:      reconcile,
		cleanup:        cleanup,
		expire:         expire,
		retentionDays:  retentionDays,
		reservationTTL: reservationTTL,
	}
}

// ======================================================
// RECONCILE (?provider_id=&date=)
// ======================================================

func (h *HousekeepingHandler) Reconcile(c *gin.Context) {
	ctx := c.Request.Context()
	date := c.Query("date")

	if providerID := c.Query("provider_id"); providerID != "" {
		res, err := h.reconcile.Execute(ctx, providerID, date)
		if err != nil {
			httperr.FromError(c, err)
			return
		}
		httpresp.OK(c, res)
		return
	}

	res, err := h.reconcile.ExecuteDate(ctx, date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, res)
}

// ======================================================
// CLEANUP (?retention_days=)
// ======================================================

func (h *HousekeepingHandler) Cleanup(c *gin.Context) {
	days := h.retentionDays
	if raw := c.Query("retention_days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_retention", "retention_days must be an integer.")
			return
		}
		days = v
	}

	res, err := h.cleanup.Execute(c.Request.Context(), days)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, res)
}

// ======================================================
// EXPIRE (?ttl_minutes=)
// ======================================================

func (h *HousekeepingHandler) Expire(c *gin.Context) {
	ttl := h.reservationTTL
	if raw := c.Query("ttl_minutes"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			httperr.BadRequest(c, "invalid_ttl", "ttl_minutes must be an integer.")
			return
		}
		ttl = time.Duration(v) * time.Minute
	}

	res, err := h.expire.Execute(c.Request.Context(), ttl)
	if err != nil {
		httperr.FromError(c, err)
		return
	}
	httpresp.OK(c, res)
}
