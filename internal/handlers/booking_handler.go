package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	ucBooking "github.com/BruksfildServices01/barber-booking/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	claim    *ucBooking.ClaimSlot
	cancel   *ucBooking.CancelBooking
	checkout *ucBooking.CreateCheckout
	list     *ucBooking.ListCustomerBookings
}

func NewBookingHandler(
	claim *ucBooking.ClaimSlot,
	cancel *ucBooking.CancelBooking,
	checkout *ucBooking.CreateCheckout,
	list *ucBooking.ListCustomerBookings,
) *BookingHandler {
	return &BookingHandler{
		claim:    claim,
		cancel:   cancel,
		checkout: checkout,
		list:     list,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type ClaimRequest struct {
	SlotID        string `json:"slot_id" binding:"required"`
	ServiceName   string `json:"service_name"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

// ======================================================
// CLAIM
// ======================================================

func (h *BookingHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Field slot_id is required.")
		return
	}

	res, err := h.claim.Execute(c.Request.Context(), middleware.ActorFrom(c), ucBooking.ClaimInput{
		SlotID:        req.SlotID,
		ServiceName:   req.ServiceName,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.Created(c, res)
}

// ======================================================
// CHECKOUT
// ======================================================

func (h *BookingHandler) Checkout(c *gin.Context) {
	session, err := h.checkout.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, session)
}

// ======================================================
// CANCEL
// ======================================================

func (h *BookingHandler) Cancel(c *gin.Context) {
	res, err := h.cancel.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, res)
}

// ======================================================
// LIST
// ======================================================

func (h *BookingHandler) ListMine(c *gin.Context) {
	bookings, err := h.list.Execute(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, bookings)
}
