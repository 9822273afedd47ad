package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	complete *ucAppointment.CompleteAppointment
	list     *ucAppointment.ListProviderAppointments
}

func NewAppointmentHandler(
	complete *ucAppointment.CompleteAppointment,
	list *ucAppointment.ListProviderAppointments,
) *AppointmentHandler {
	return &AppointmentHandler{
		complete: complete,
		list:     list,
	}
}

// ======================================================
// LIST (?status=&date=)
// ======================================================

func (h *AppointmentHandler) List(c *gin.Context) {
	appointments, err := h.list.Execute(
		c.Request.Context(),
		middleware.ActorFrom(c),
		c.Param("id"),
		c.Query("status"),
		c.Query("date"),
	)
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.List(c, appointments)
}

// ======================================================
// COMPLETE
// ======================================================

func (h *AppointmentHandler) Complete(c *gin.Context) {
	res, err := h.complete.Execute(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, res)
}
