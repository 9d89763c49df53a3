package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type addStationRequest struct {
	Name string `json:"name"`
}

// AddStation handles the POST /api/stations request.
func (h *Handler) AddStation(c *gin.Context) {
	var req addStationRequest
	// An empty body is fine; the registry generates a name.
	_ = c.ShouldBindJSON(&req)

	status, err := h.sessions.AddStation(c.Request.Context(), req.Name)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

type renameStationRequest struct {
	Name string `json:"name" binding:"required"`
}

// RenameStation handles the PUT /api/stations/{id}/name request.
func (h *Handler) RenameStation(c *gin.Context) {
	id, err := stationID(c)
	if err != nil {
		return
	}

	var req renameStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessions.Rename(c.Request.Context(), id, req.Name); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateSettingsRequest struct {
	HourlyRate   *string `json:"hourly_rate"`
	Mode         *string `json:"mode"`
	FixedMinutes *int    `json:"fixed_minutes"`
	CustomerName *string `json:"customer_name"`
}

// UpdateSettings handles the PUT /api/stations/{id}/settings request. The
// engine ignores every field while a session is running, so the response
// status reflects what actually stuck.
func (h *Handler) UpdateSettings(c *gin.Context) {
	id, err := stationID(c)
	if err != nil {
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	engine, err := h.sessions.Engine(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if req.HourlyRate != nil {
		if err := engine.SetRate(ctx, *req.HourlyRate); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if req.Mode != nil {
		if err := engine.SetMode(ctx, *req.Mode); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if req.FixedMinutes != nil {
		if err := engine.SetFixedDuration(ctx, *req.FixedMinutes); err != nil {
			abortWithError(c, err)
			return
		}
	}
	if req.CustomerName != nil {
		if err := engine.SetCustomerName(ctx, *req.CustomerName); err != nil {
			abortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, engine.Status())
}

// ListStations handles the GET /api/stations request with live session status.
func (h *Handler) ListStations(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Statuses())
}

func stationID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid station ID"})
		return 0, err
	}
	return id, nil
}
