// Package user holds the profile and user administration use cases on
// top of the identity provider.
package user

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/validators"
)

var (
	ErrMissingName          = httperr.ErrBusiness("missing_name")
	ErrMissingProfileFields = httperr.ErrBusiness("missing_profile_fields")
	ErrInvalidEmail         = httperr.ErrBusiness("invalid_email")
)

// Profile is what a user sees of their own account. Empty name and
// email are reported as null.
type Profile struct {
	UID     string  `json:"uid"`
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	IsAdmin bool    `json:"isAdmin"`
}

// Summary is one row of the admin user listing.
type Summary struct {
	UID         string  `json:"uid"`
	DisplayName *string `json:"displayName"`
	Email       *string `json:"email"`
	IsAdmin     bool    `json:"isAdmin"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ======================================================
// GET PROFILE
// ======================================================

type GetProfile struct {
	users identity.Provider
}

func NewGetProfile(users identity.Provider) *GetProfile {
	return &GetProfile{users: users}
}

func (uc *GetProfile) Execute(ctx context.Context, uid string) (*Profile, error) {
	u, err := uc.users.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Profile{
		UID:     u.UID,
		Name:    nullable(u.DisplayName),
		Email:   nullable(u.Email),
		IsAdmin: u.IsAdmin,
	}, nil
}

// ======================================================
// UPDATE PROFILE
// ======================================================

type UpdateProfile struct {
	users identity.Provider
	audit *audit.Dispatcher
}

func NewUpdateProfile(users identity.Provider, audit *audit.Dispatcher) *UpdateProfile {
	return &UpdateProfile{users: users, audit: audit}
}

func (uc *UpdateProfile) Execute(ctx context.Context, actorID, uid, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMissingName
	}

	if err := uc.users.UpdateUser(ctx, uid, identity.UserUpdate{DisplayName: &name}); err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  actorID,
		Action:   "profile_updated",
		Entity:   "user",
		EntityID: uid,
	})
	return nil
}

// ======================================================
// CREATE PROFILE
// ======================================================

// CreateProfile completes a sign-up made through the client SDK by
// storing the chosen display name.
type CreateProfile struct {
	users identity.Provider
	audit *audit.Dispatcher
}

func NewCreateProfile(users identity.Provider, audit *audit.Dispatcher) *CreateProfile {
	return &CreateProfile{users: users, audit: audit}
}

func (uc *CreateProfile) Execute(ctx context.Context, uid, name, email string) error {
	name = strings.TrimSpace(name)
	if uid == "" || name == "" || strings.TrimSpace(email) == "" {
		return ErrMissingProfileFields
	}

	if err := uc.users.UpdateUser(ctx, uid, identity.UserUpdate{DisplayName: &name}); err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  uid,
		Action:   "user_created",
		Entity:   "user",
		EntityID: uid,
		Metadata: map[string]string{"email": validators.NormalizeEmail(email)},
	})
	return nil
}

// ======================================================
// LIST USERS
// ======================================================

type ListUsers struct {
	users identity.Provider
}

func NewListUsers(users identity.Provider) *ListUsers {
	return &ListUsers{users: users}
}

func (uc *ListUsers) Execute(ctx context.Context) ([]Summary, error) {
	users, err := uc.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, len(users))
	for _, u := range users {
		out = append(out, Summary{
			UID:         u.UID,
			DisplayName: nullable(u.DisplayName),
			Email:       nullable(u.Email),
			IsAdmin:     u.IsAdmin,
		})
	}
	return out, nil
}

// ======================================================
// ADMIN UPDATE
// ======================================================

type AdminUpdateInput struct {
	ActorID string
	UID     string
	Name    string
	Email   string
	IsAdmin bool
}

// AdminUpdateUser edits another user's name and email and sets their
// admin flag. Empty name or email leave the stored value unchanged.
type AdminUpdateUser struct {
	users identity.Provider
	audit *audit.Dispatcher
}

func NewAdminUpdateUser(users identity.Provider, audit *audit.Dispatcher) *AdminUpdateUser {
	return &AdminUpdateUser{users: users, audit: audit}
}

func (uc *AdminUpdateUser) Execute(ctx context.Context, in AdminUpdateInput) error {
	if in.UID == "" {
		return ErrMissingProfileFields
	}

	var upd identity.UserUpdate
	if name := strings.TrimSpace(in.Name); name != "" {
		upd.DisplayName = &name
	}
	if in.Email != "" {
		email := validators.NormalizeEmail(in.Email)
		if !validators.IsEmail(email) {
			return ErrInvalidEmail
		}
		upd.Email = &email
	}

	if upd.DisplayName != nil || upd.Email != nil {
		if err := uc.users.UpdateUser(ctx, in.UID, upd); err != nil {
			return err
		}
	}
	if err := uc.users.SetAdmin(ctx, in.UID, in.IsAdmin); err != nil {
		return err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  in.ActorID,
		Action:   "user_updated",
		Entity:   "user",
		EntityID: in.UID,
		Metadata: map[string]any{"isAdmin": in.IsAdmin},
	})
	return nil
}
