package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/pitchbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

// SessionReader exposes the signed-in user to handlers that act on their behalf.
type SessionReader interface {
	Current() (domain.User, bool)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidSchedule), errors.Is(err, domain.ErrUnknownVenue):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotCancellable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func currentUser(c *gin.Context, sessions SessionReader) (domain.User, bool) {
	user, ok := sessions.Current()
	if !ok {
		writeError(c, domain.ErrNoSession)
	}
	return user, ok
}
