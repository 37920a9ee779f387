package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
	"github.com/BruksfildServices01/haircut-booking/internal/validators"
)

// LocalProvider keeps users in its own store and signs its own session
// tokens.
type LocalProvider struct {
	store  UserStore
	tokens *TokenIssuer
}

func NewLocalProvider(store UserStore, tokens *TokenIssuer) *LocalProvider {
	return &LocalProvider{store: store, tokens: tokens}
}

func (p *LocalProvider) GetUser(ctx context.Context, uid string) (*domain.User, error) {
	u, err := p.store.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := toDomainUser(u)
	return &out, nil
}

func (p *LocalProvider) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := p.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(users))
	for i := range users {
		out = append(out, toDomainUser(&users[i]))
	}
	return out, nil
}

func (p *LocalProvider) UpdateUser(ctx context.Context, uid string, upd domain.UserUpdate) error {
	u, err := p.store.FindByUID(ctx, uid)
	if err != nil {
		return err
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if upd.Email != nil {
		u.Email = validators.NormalizeEmail(*upd.Email)
	}
	return p.store.Save(ctx, u)
}

func (p *LocalProvider) SetAdmin(ctx context.Context, uid string, isAdmin bool) error {
	u, err := p.store.FindByUID(ctx, uid)
	if err != nil {
		return err
	}
	u.IsAdmin = isAdmin
	return p.store.Save(ctx, u)
}

// VerifyToken trusts the admin flag signed into the token, so a changed
// flag takes effect on the user's next sign-in.
func (p *LocalProvider) VerifyToken(_ context.Context, token string) (*domain.Caller, error) {
	return p.tokens.Verify(token)
}

// --------- Password auth ---------

func (p *LocalProvider) Register(ctx context.Context, name, email, password string) (*domain.Session, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	u := &models.User{
		UID:          uuid.NewString(),
		DisplayName:  strings.TrimSpace(name),
		Email:        validators.NormalizeEmail(email),
		PasswordHash: string(hashed),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.store.Create(ctx, u); err != nil {
		return nil, err
	}

	return p.session(u)
}

func (p *LocalProvider) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	u, err := p.store.FindByEmail(ctx, validators.NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return p.session(u)
}

func (p *LocalProvider) session(u *models.User) (*domain.Session, error) {
	token, err := p.tokens.Issue(u.UID, u.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &domain.Session{User: toDomainUser(u), Token: token}, nil
}

func toDomainUser(u *models.User) domain.User {
	return domain.User{
		UID:         u.UID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
	}
}

// Compile-time checks
var (
	_ domain.Provider              = (*LocalProvider)(nil)
	_ domain.PasswordAuthenticator = (*LocalProvider)(nil)
)
