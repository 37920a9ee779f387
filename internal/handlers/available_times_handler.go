package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/httpresp"
	"github.com/BruksfildServices01/haircut-booking/internal/usecase/ledger"
)

// ======================================================
// HANDLER
// ======================================================

type AvailableTimesHandler struct {
	list *ledger.ListAvailable
	set  *ledger.SetAvailable
}

func NewAvailableTimesHandler(list *ledger.ListAvailable, set *ledger.SetAvailable) *AvailableTimesHandler {
	return &AvailableTimesHandler{list: list, set: set}
}

// ======================================================
// REQUESTS
// ======================================================

type SetAvailableTimesRequest struct {
	// UID is accepted for older clients; the caller comes from the token.
	UID   string   `json:"uid"`
	Date  string   `json:"date" binding:"omitempty,isodate"`
	Times []string `json:"times" binding:"dive,hhmm"`
	Mode  string   `json:"mode" binding:"omitempty,oneof=replace merge"`
}

// ======================================================
// LIST
// ======================================================

func (h *AvailableTimesHandler) List(c *gin.Context) {
	date := param(c, "date")
	if date == "" {
		httperr.BadRequest(c, "missing_date")
		return
	}

	times, err := h.list.Execute(c.Request.Context(), date)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"times": times})
}

// ======================================================
// SET (admin)
// ======================================================

// Set serves POST /api/admin/available-times.
func (h *AvailableTimesHandler) Set(c *gin.Context) {
	caller, ok := requireAdmin(c)
	if !ok {
		return
	}

	var req SetAvailableTimesRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.UID != "" && req.UID != caller.UID {
		httperr.Forbidden(c, "not_authorized")
		return
	}
	if req.Date == "" || req.Times == nil {
		httperr.BadRequest(c, "missing_date_or_times")
		return
	}

	stored, err := h.set.Execute(c.Request.Context(), ledger.SetAvailableInput{
		ActorID: caller.UID,
		Date:    req.Date,
		Times:   req.Times,
		Mode:    ledger.Mode(req.Mode),
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"message": "Available times set",
		"times":   stored,
	})
}

// SetLegacy serves POST /api/available-times, which only sets times
// when called with admin=true.
func (h *AvailableTimesHandler) SetLegacy(c *gin.Context) {
	if c.Query("admin") != "true" {
		httperr.MethodNotAllowed(c)
		return
	}
	h.Set(c)
}
