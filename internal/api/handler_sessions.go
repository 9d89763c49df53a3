package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StartSession handles the POST /api/stations/{id}/start request.
func (h *Handler) StartSession(c *gin.Context) {
	id, err := stationID(c)
	if err != nil {
		return
	}

	engine, err := h.sessions.Engine(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := engine.Start(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Status())
}

// StopSession handles the POST /api/stations/{id}/stop request and returns
// the completed ledger record.
func (h *Handler) StopSession(c *gin.Context) {
	id, err := stationID(c)
	if err != nil {
		return
	}

	engine, err := h.sessions.Engine(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	rec, err := engine.Stop(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec, "status": engine.Status()})
}
