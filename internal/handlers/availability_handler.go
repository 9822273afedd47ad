package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	ucAvailability "github.com/BruksfildServices01/barber-booking/internal/usecase/availability"
	ucProvider "github.com/BruksfildServices01/barber-booking/internal/usecase/provider"
)

// ======================================================
// HANDLER
// ======================================================

type AvailabilityHandler struct {
	getProvider     *ucProvider.GetProvider
	listSlots       *ucAvailability.ListSlots
	listTemplates   *ucAvailability.ListTemplates
	saveTemplate    *ucAvailability.SaveTemplate
	seedDefault     *ucAvailability.SeedDefaultSlots
	setAvailability *ucAvailability.SetSlotAvailability
}

func NewAvailabilityHandler(
	getProvider *ucProvider.GetProvider,
	listSlots *ucAvailability.ListSlots,
	listTemplates *ucAvailability.ListTemplates,
	saveTemplate *ucAvailability.SaveTemplate,
	seedDefault *ucAvailability.SeedDefaultSlots,
	setAvailability *ucAvailability.SetSlotAvailability,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		getProvider:     getProvider,
		listSlots:       listSlots,
		listTemplates:   listTemplates,
		saveTemplate:    saveTemplate,
		seedDefault:     seedDefault,
		setAvailability: setAvailability,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type SaveTemplateRequest struct {
	StartTimes []int `json:"start_times"`
}

type SaveWeekRequest struct {
	Days []ucAvailability.DayInput `json:"days" binding:"required"`
}

type SeedSlotsRequest struct {
	Date string `json:"date" binding:"required"`
}

type SetSlotAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// ======================================================
// SLOTS
// ======================================================

// ListSlots generates the date on first access. ?date= accepts YYYY-MM-DD or epoch ms.
func (h *AvailabilityHandler) ListSlots(c *gin.Context) {
	ctx := c.Request.Context()

	provider, err := h.getProvider.Execute(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	date, err := providerDate(provider, c.Query("date"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	view, err := h.listSlots.Execute(ctx, provider.ID, date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, view)
}

func (h *AvailabilityHandler) SeedDefault(c *gin.Context) {
	ctx := c.Request.Context()
	actor := middleware.ActorFrom(c)

	var req SeedSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	provider, err := h.getProvider.Execute(ctx, actor, c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	date, err := providerDate(provider, req.Date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	res, err := h.seedDefault.Execute(ctx, actor, provider.ID, date)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, res)
}

func (h *AvailabilityHandler) SetSlotAvailability(c *gin.Context) {
	var req SetSlotAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Field available is required.")
		return
	}

	slot, err := h.setAvailability.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), *req.Available)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, slot)
}

// ======================================================
// TEMPLATES
// ======================================================

func (h *AvailabilityHandler) ListTemplates(c *gin.Context) {
	templates, err := h.listTemplates.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, templates)
}

func (h *AvailabilityHandler) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	res, err := h.saveTemplate.Execute(c.Request.Context(), middleware.ActorFrom(c), ucAvailability.SaveTemplateInput{
		ProviderID: c.Param("id"),
		Weekday:    c.Param("weekday"),
		StartTimes: req.StartTimes,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, res)
}

func (h *AvailabilityHandler) SaveWeek(c *gin.Context) {
	var req SaveWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	res, err := h.saveTemplate.ExecuteWeek(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Days)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": res})
}
