package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/httpresp"
	"github.com/BruksfildServices01/haircut-booking/internal/usecase/ledger"
	ucUser "github.com/BruksfildServices01/haircut-booking/internal/usecase/user"
)

// MeHandler answers for the caller without any uid in the URL.
type MeHandler struct {
	profile     *ucUser.GetProfile
	appointment *ledger.GetAppointment
}

func NewMeHandler(profile *ucUser.GetProfile, appointment *ledger.GetAppointment) *MeHandler {
	return &MeHandler{profile: profile, appointment: appointment}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	caller, ok := mustCaller(c)
	if !ok {
		return
	}

	profile, err := h.profile.Execute(c.Request.Context(), caller.UID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	ap, err := h.appointment.Execute(c.Request.Context(), caller.UID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{
		"user":        profile,
		"appointment": ap,
	})
}
