package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/middleware"
)

// tagCodes maps a failed binding tag to the error code sent back.
var tagCodes = map[string]string{
	"isodate": "invalid_date",
	"hhmm":    "invalid_time",
	"oneof":   "invalid_mode",
	"email":   "invalid_email",
}

// bindJSON decodes the body into req and writes a 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if code, ok := tagCodes[verrs[0].Tag()]; ok {
			httperr.BadRequest(c, code)
			return false
		}
	}

	httperr.BadRequest(c, "invalid_request")
	return false
}

// param returns the path parameter name, falling back to the query
// parameter of the same name, so both URL shapes share one handler.
func param(c *gin.Context, name string) string {
	if v := c.Param(name); v != "" {
		return v
	}
	return c.Query(name)
}

func mustCaller(c *gin.Context) (identity.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		httperr.Unauthorized(c, "missing_token")
	}
	return caller, ok
}

// actingFor resolves the uid a request targets. An empty uid means the
// caller; anybody else's uid requires admin.
func actingFor(c *gin.Context, uid string) (identity.Caller, string, bool) {
	caller, ok := mustCaller(c)
	if !ok {
		return caller, "", false
	}
	if uid == "" {
		uid = caller.UID
	}
	if !caller.CanActFor(uid) {
		httperr.Forbidden(c, "not_authorized")
		return caller, "", false
	}
	return caller, uid, true
}

func requireAdmin(c *gin.Context) (identity.Caller, bool) {
	caller, ok := mustCaller(c)
	if !ok {
		return caller, false
	}
	if !caller.IsAdmin {
		httperr.Forbidden(c, "not_authorized")
		return caller, false
	}
	return caller, true
}
