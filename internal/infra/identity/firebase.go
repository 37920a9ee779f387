package identity

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
)

// ClaimAdmin is the custom claim that marks an administrator.
const ClaimAdmin = "isAdmin"

// FirebaseProvider delegates users and sign-in to Firebase Auth.
type FirebaseProvider struct {
	client *auth.Client
}

func NewFirebaseProvider(client *auth.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

func (p *FirebaseProvider) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return nil, mapAuthError(err, "get user "+uid)
	}
	u := fromRecord(rec)
	return &u, nil
}

func (p *FirebaseProvider) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User

	it := p.client.Users(ctx, "")
	for {
		rec, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, fromRecord(rec.UserRecord))
	}
	return out, nil
}

func (p *FirebaseProvider) UpdateUser(ctx context.Context, uid string, upd domain.UserUpdate) error {
	params := &auth.UserToUpdate{}
	if upd.DisplayName != nil {
		params = params.DisplayName(*upd.DisplayName)
	}
	if upd.Email != nil {
		params = params.Email(*upd.Email)
	}

	if _, err := p.client.UpdateUser(ctx, uid, params); err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return domain.ErrEmailTaken
		}
		return mapAuthError(err, "update user "+uid)
	}
	return nil
}

// SetAdmin rewrites the admin claim and keeps any other custom claims.
func (p *FirebaseProvider) SetAdmin(ctx context.Context, uid string, isAdmin bool) error {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return mapAuthError(err, "get user "+uid)
	}

	if err := p.client.SetCustomUserClaims(ctx, uid, withAdminClaim(rec.CustomClaims, isAdmin)); err != nil {
		return mapAuthError(err, "set claims "+uid)
	}
	return nil
}

func (p *FirebaseProvider) VerifyToken(ctx context.Context, token string) (*domain.Caller, error) {
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	tok, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	return &domain.Caller{UID: tok.UID, IsAdmin: adminClaim(tok.Claims)}, nil
}

func fromRecord(rec *auth.UserRecord) domain.User {
	u := domain.User{IsAdmin: adminClaim(rec.CustomClaims)}
	if rec.UserInfo != nil {
		u.UID = rec.UID
		u.DisplayName = rec.DisplayName
		u.Email = rec.Email
	}
	return u
}

func adminClaim(claims map[string]interface{}) bool {
	v, _ := claims[ClaimAdmin].(bool)
	return v
}

func withAdminClaim(claims map[string]interface{}, isAdmin bool) map[string]interface{} {
	out := make(map[string]interface{}, len(claims)+1)
	for k, v := range claims {
		out[k] = v
	}
	out[ClaimAdmin] = isAdmin
	return out
}

func mapAuthError(err error, op string) error {
	if auth.IsUserNotFound(err) {
		return domain.ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Compile-time check
var _ domain.Provider = (*FirebaseProvider)(nil)
