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

type AppointmentHandler struct {
	reserve    *ledger.Reserve
	get        *ledger.GetAppointment
	cancel     *ledger.Cancel
	reschedule *ledger.Reschedule
	list       *ledger.ListAppointments
}

func NewAppointmentHandler(
	reserve *ledger.Reserve,
	get *ledger.GetAppointment,
	cancel *ledger.Cancel,
	reschedule *ledger.Reschedule,
	list *ledger.ListAppointments,
) *AppointmentHandler {
	return &AppointmentHandler{
		reserve:    reserve,
		get:        get,
		cancel:     cancel,
		reschedule: reschedule,
		list:       list,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type ReserveRequest struct {
	UserID string `json:"userId"`
	Date   string `json:"date" binding:"omitempty,isodate"`
	Time   string `json:"time" binding:"omitempty,hhmm"`
}

type ChangeDateRequest struct {
	Date string `json:"date" binding:"omitempty,isodate"`
	Time string `json:"time" binding:"omitempty,hhmm"`
}

// ======================================================
// POST /api/appointments
// ======================================================

// Post reserves a slot, or reschedules when called with
// ?userId=..&action=change-date.
func (h *AppointmentHandler) Post(c *gin.Context) {
	if uid := c.Query("userId"); uid != "" {
		if c.Query("action") != "change-date" {
			httperr.MethodNotAllowed(c)
			return
		}
		h.changeDate(c, uid)
		return
	}

	var req ReserveRequest
	if !bindJSON(c, &req) {
		return
	}

	_, uid, ok := actingFor(c, req.UserID)
	if !ok {
		return
	}
	if req.Date == "" || req.Time == "" {
		httperr.BadRequest(c, "missing_reserve_fields")
		return
	}

	if _, err := h.reserve.Execute(c.Request.Context(), ledger.ReserveInput{
		UserID: uid,
		Date:   req.Date,
		Time:   req.Time,
	}); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Message(c, "Appointment reserved")
}

// ======================================================
// GET /api/appointments
// ======================================================

// Get returns one user's appointment, or every appointment for an
// admin when no userId is given.
func (h *AppointmentHandler) Get(c *gin.Context) {
	if param(c, "userId") == "" {
		h.listAll(c)
		return
	}

	_, uid, ok := actingFor(c, param(c, "userId"))
	if !ok {
		return
	}

	ap, err := h.get.Execute(c.Request.Context(), uid)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"appointment": ap})
}

func (h *AppointmentHandler) listAll(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	views, err := h.list.Execute(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"appointments": views})
}

// ======================================================
// DELETE /api/appointments
// ======================================================

func (h *AppointmentHandler) Delete(c *gin.Context) {
	caller, uid, ok := actingFor(c, param(c, "userId"))
	if !ok {
		return
	}

	if _, err := h.cancel.Execute(c.Request.Context(), caller.UID, uid); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Message(c, "Appointment deleted")
}

// ======================================================
// CHANGE DATE (admin)
// ======================================================

// ChangeDate serves POST /api/appointments/:userId/change-date.
func (h *AppointmentHandler) ChangeDate(c *gin.Context) {
	h.changeDate(c, c.Param("userId"))
}

func (h *AppointmentHandler) changeDate(c *gin.Context, uid string) {
	caller, ok := requireAdmin(c)
	if !ok {
		return
	}

	var req ChangeDateRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Date == "" || req.Time == "" {
		httperr.BadRequest(c, "missing_date_or_time")
		return
	}

	if _, err := h.reschedule.Execute(c.Request.Context(), ledger.RescheduleInput{
		ActorID: caller.UID,
		UserID:  uid,
		NewDate: req.Date,
		NewTime: req.Time,
	}); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Message(c, "Appointment date updated")
}
