package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

// messages shown to end users; unknown codes fall back to a generic text per kind.
var messages = map[string]string{
	"slot_already_booked":   "This slot was just booked, please choose another.",
	"slot_unavailable":      "This slot is no longer offered.",
	"slot_in_past":          "This slot has already started.",
	"slot_not_found":        "Slot not found.",
	"slot_booked":           "A booked slot cannot be withdrawn.",
	"booking_not_found":     "Booking not found.",
	"appointment_not_found": "Appointment not found.",
	"provider_not_found":    "Provider not found.",
	"template_not_found":    "No availability template for this day.",
	"invalid_date":          "Invalid date.",
	"invalid_weekday":       "Unknown weekday.",
	"invalid_start_times":   "Start times must be unique, ascending and inside the day.",
	"invalid_state":         "Operation not allowed in the current state.",
	"payment_failed":        "Payment did not complete.",
	"payment_unavailable":   "Payment service unavailable, please try again.",
}

var kindStatus = map[Kind]int{
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindInvalid:      http.StatusBadRequest,
	KindForbidden:    http.StatusForbidden,
	KindUpstream:     http.StatusBadGateway,
	KindInconsistent: http.StatusInternalServerError,
}

var kindMessage = map[Kind]string{
	KindNotFound:     "Not found.",
	KindConflict:     "Conflict.",
	KindInvalid:      "Invalid request.",
	KindForbidden:    "Not allowed.",
	KindUpstream:     "Upstream service failure.",
	KindInconsistent: "Inconsistent state detected.",
}

// FromError writes the response for an error returned by a use case.
func FromError(c *gin.Context, err error) {
	var be BusinessError
	if !errors.As(err, &be) {
		Internal(c, "internal_error", "Internal error.")
		return
	}

	status, ok := kindStatus[be.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}

	msg, ok := messages[be.Code]
	if !ok {
		msg = kindMessage[be.Kind]
	}

	Write(c, status, be.Code, msg)
}
