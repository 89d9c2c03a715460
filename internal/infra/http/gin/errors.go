package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	bookingapp "fleetride/internal/app/handlers/booking"
	payoutapp "fleetride/internal/app/handlers/payout"
	domainbooking "fleetride/internal/domain/booking"
	domainpayout "fleetride/internal/domain/payout"
	"fleetride/internal/domain/period"
	"fleetride/internal/infra/storage/memory"
)

// respondError maps application errors onto HTTP status codes. Guard
// violations are conflicts, validation failures are unprocessable, and a
// status string the domain cannot parse means corrupted state, which is a
// server fault rather than a caller fault.
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, memory.ErrBookingNotFound),
		errors.Is(err, memory.ErrPayoutNotFound),
		errors.Is(err, mongo.ErrNoDocuments):
		return http.StatusNotFound
	case errors.Is(err, domainbooking.ErrUnknownStatus),
		errors.Is(err, domainpayout.ErrUnknownStatus):
		return http.StatusInternalServerError
	case errors.Is(err, domainbooking.ErrInvalidTransition),
		errors.Is(err, domainpayout.ErrInvalidTransition),
		errors.Is(err, bookingapp.ErrCancellationCutoffPassed):
		return http.StatusConflict
	case errors.Is(err, period.ErrInvalidPeriod),
		errors.Is(err, payoutapp.ErrNotEligible):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
