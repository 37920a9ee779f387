package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/httpresp"
	"github.com/BruksfildServices01/haircut-booking/internal/validators"
)

type AuthHandler struct {
	auth identity.PasswordAuthenticator

	// EmailDomainOK rejects sign-ups whose domain does not resolve.
	EmailDomainOK func(email string) bool
}

func NewAuthHandler(auth identity.PasswordAuthenticator) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		EmailDomainOK: validators.IsEmailDomainValid,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// --------- Handlers ---------

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	email := validators.NormalizeEmail(req.Email)
	if h.EmailDomainOK != nil && !h.EmailDomainOK(email) {
		httperr.BadRequest(c, "invalid_email_domain")
		return
	}

	sess, err := h.auth.Register(c.Request.Context(), req.Name, email, req.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, sessionResponse(sess))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, sessionResponse(sess))
}

func sessionResponse(sess *identity.Session) gin.H {
	return gin.H{
		"user": gin.H{
			"uid":     sess.User.UID,
			"name":    sess.User.DisplayName,
			"email":   sess.User.Email,
			"isAdmin": sess.User.IsAdmin,
		},
		"token": sess.Token,
	}
}
