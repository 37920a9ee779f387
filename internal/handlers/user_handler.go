package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/httpresp"
	ucUser "github.com/BruksfildServices01/haircut-booking/internal/usecase/user"
)

// ======================================================
// HANDLER
// ======================================================

type UserHandler struct {
	getProfile    *ucUser.GetProfile
	updateProfile *ucUser.UpdateProfile
	createProfile *ucUser.CreateProfile
	listUsers     *ucUser.ListUsers
	adminUpdate   *ucUser.AdminUpdateUser
}

func NewUserHandler(
	getProfile *ucUser.GetProfile,
	updateProfile *ucUser.UpdateProfile,
	createProfile *ucUser.CreateProfile,
	listUsers *ucUser.ListUsers,
	adminUpdate *ucUser.AdminUpdateUser,
) *UserHandler {
	return &UserHandler{
		getProfile:    getProfile,
		updateProfile: updateProfile,
		createProfile: createProfile,
		listUsers:     listUsers,
		adminUpdate:   adminUpdate,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type CreateProfileRequest struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AdminUpdateUserRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email" binding:"omitempty,email"`
	IsAdmin bool   `json:"isAdmin"`
}

// ======================================================
// /api/users (query shape)
// ======================================================

// Get serves GET /api/users: a profile with ?profile=true&uid=, the
// full listing for admins otherwise.
func (h *UserHandler) Get(c *gin.Context) {
	if c.Query("profile") != "" {
		if c.Query("uid") == "" {
			httperr.MethodNotAllowed(c)
			return
		}
		h.GetProfile(c)
		return
	}
	h.List(c)
}

// Post serves POST /api/users in its three query shapes.
func (h *UserHandler) Post(c *gin.Context) {
	uid := c.Query("uid")

	switch {
	case c.Query("profile") != "" && uid != "":
		h.UpdateProfile(c)
	case uid != "" && c.Query("action") == "update":
		h.AdminUpdate(c)
	case uid == "":
		h.Create(c)
	default:
		httperr.MethodNotAllowed(c)
	}
}

// ======================================================
// PROFILE
// ======================================================

func (h *UserHandler) GetProfile(c *gin.Context) {
	_, uid, ok := actingFor(c, param(c, "uid"))
	if !ok {
		return
	}

	profile, err := h.getProfile.Execute(c.Request.Context(), uid)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	caller, uid, ok := actingFor(c, param(c, "uid"))
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.updateProfile.Execute(c.Request.Context(), caller.UID, uid, req.Name); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Message(c, "Profile updated!")
}

// Create finishes sign-up for the caller.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.UID == "" {
		httperr.BadRequest(c, "missing_profile_fields")
		return
	}
	if _, _, ok := actingFor(c, req.UID); !ok {
		return
	}

	if err := h.createProfile.Execute(c.Request.Context(), req.UID, req.Name, req.Email); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Message(c, "User created successfully")
}

// ======================================================
// ADMIN
// ======================================================

func (h *UserHandler) List(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}

	users, err := h.listUsers.Execute(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, gin.H{"users": users})
}

func (h *UserHandler) AdminUpdate(c *gin.Context) {
	caller, ok := requireAdmin(c)
	if !ok {
		return
	}

	var req AdminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.adminUpdate.Execute(c.Request.Context(), ucUser.AdminUpdateInput{
		ActorID: caller.UID,
		UID:     param(c, "uid"),
		Name:    req.Name,
		Email:   req.Email,
		IsAdmin: req.IsAdmin,
	}); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Message(c, "User updated")
}
