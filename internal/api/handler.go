package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"station-billing-backend/internal/session"
	"station-billing-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	sessions *session.Manager
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, sessions *session.Manager, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		sessions: sessions,
		webpush:  webpushOptions,
	}
}

// abortWithError maps domain errors onto HTTP statuses. No handler ever
// terminates the process; every failure comes back as a JSON reason.
func abortWithError(c *gin.Context, err error) {
	switch {
	case session.IsValidation(err):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrAlreadyRunning), errors.Is(err, session.ErrNotRunning):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrUnknownStation), errors.Is(err, store.ErrStationNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
