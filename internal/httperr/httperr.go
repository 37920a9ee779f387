package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPError keeps the "error" key the booking frontend reads and adds
// a stable machine code.
type HTTPError struct {
	Message string `json:"error"`
	Code    string `json:"error_code"`
}

var messages = map[string]string{
	"invalid_request":          "Invalid request",
	"missing_fields":           "Missing required fields",
	"missing_date":             "Missing date",
	"missing_reserve_fields":   "Missing userId, date, or time",
	"missing_date_or_time":     "Missing date or time",
	"missing_date_or_times":    "Missing date or times",
	"invalid_date":             "Invalid date",
	"invalid_time":             "Invalid time",
	"invalid_mode":             "Invalid mode",
	"missing_name":             "Missing name",
	"missing_profile_fields":   "Missing uid, name, or email",
	"invalid_email":            "Invalid email",
	"time_not_available":       "Time not available",
	"already_booked":           "User already has an appointment",
	"appointment_not_found":    "No appointment found",
	"reschedule_not_found":     "Appointment not found",
	"user_not_found":           "User not found",
	"not_authorized":           "Not authorized",
	"missing_token":            "Missing authorization token",
	"invalid_token":            "Invalid token",
	"invalid_credentials":      "Invalid credentials",
	"email_already_registered": "Email already registered",
	"invalid_email_domain":     "Email domain does not look valid",
	"too_many_requests":        "Too many requests",
	"method_not_allowed":       "Method not allowed",
	"internal_error":           "Internal server error",
}

// Message returns the human text for a business code.
func Message(code string) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return code
}

func Write(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, HTTPError{
		Message: message,
		Code:    code,
	})
}

func BadRequest(c *gin.Context, code string) {
	Write(c, http.StatusBadRequest, code, Message(code))
}

func NotFound(c *gin.Context, code string) {
	Write(c, http.StatusNotFound, code, Message(code))
}

func Forbidden(c *gin.Context, code string) {
	Write(c, http.StatusForbidden, code, Message(code))
}

func Unauthorized(c *gin.Context, code string) {
	Write(c, http.StatusUnauthorized, code, Message(code))
}

func MethodNotAllowed(c *gin.Context) {
	Write(c, http.StatusMethodNotAllowed, "method_not_allowed", Message("method_not_allowed"))
}

func TooManyRequests(c *gin.Context) {
	Write(c, http.StatusTooManyRequests, "too_many_requests", Message("too_many_requests"))
}

// Internal never echoes err; it is attached to the gin context for the
// request logger.
func Internal(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	Write(c, http.StatusInternalServerError, "internal_error", Message("internal_error"))
}

// Respond maps a use-case error to its HTTP response.
func Respond(c *gin.Context, err error) {
	be, ok := AsBusiness(err)
	if !ok {
		Internal(c, err)
		return
	}

	switch be.Kind {
	case KindNotFound:
		NotFound(c, be.Code)
	case KindForbidden:
		Forbidden(c, be.Code)
	case KindUnauthorized:
		Unauthorized(c, be.Code)
	default:
		BadRequest(c, be.Code)
	}
}
