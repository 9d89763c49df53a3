package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListLedger handles the GET /api/ledger request, newest records first.
func (h *Handler) ListLedger(c *gin.Context) {
	records, err := h.store.ListRecords(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// TotalRevenue handles the GET /api/ledger/total request.
func (h *Handler) TotalRevenue(c *gin.Context) {
	total, err := h.store.TotalRevenue(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_revenue": total})
}

// DeleteRecord handles the DELETE /api/ledger/{id} request. Deleting an
// unknown record succeeds; the ledger ends up in the same state either way.
func (h *Handler) DeleteRecord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid record ID"})
		return
	}

	if err := h.store.DeleteRecord(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetLedger handles the DELETE /api/ledger request.
func (h *Handler) ResetLedger(c *gin.Context) {
	if err := h.store.ResetLedger(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
