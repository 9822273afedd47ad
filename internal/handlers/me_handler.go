package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	ucBooking "github.com/BruksfildServices01/barber-booking/internal/usecase/booking"
)

type MeHandler struct {
	getProfile    *ucBooking.GetProfile
	updateProfile *ucBooking.UpdateProfile
}

func NewMeHandler(
	getProfile *ucBooking.GetProfile,
	updateProfile *ucBooking.UpdateProfile,
) *MeHandler {
	return &MeHandler{
		getProfile:    getProfile,
		updateProfile: updateProfile,
	}
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	profile, err := h.getProfile.Execute(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, profile)
}

func (h *MeHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request body.")
		return
	}

	profile, err := h.updateProfile.Execute(c.Request.Context(), middleware.ActorFrom(c), ucBooking.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		httperr.FromError(c, err)
		return
	}

	httpresp.OK(c, profile)
}
