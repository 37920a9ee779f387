package identity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

// UserStore persists local identity records. Lookups of unknown users
// return domain.ErrUserNotFound; a clashing email returns
// domain.ErrEmailTaken.
type UserStore interface {
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
	List(ctx context.Context) ([]models.User, error)
}

// --------------------------------------------------
// gorm
// --------------------------------------------------

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	return s.take(ctx, "uid = ?", uid)
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.take(ctx, "email = ?", strings.ToLower(email))
}

func (s *GormUserStore) take(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where(query, arg).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (s *GormUserStore) Create(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormUserStore) Save(ctx context.Context, u *models.User) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("uid = ?", u.UID).
		Updates(map[string]any{
			"display_name": u.DisplayName,
			"email":        u.Email,
			"is_admin":     u.IsAdmin,
		})
	if res.Error != nil {
		if isDuplicate(res.Error) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("save user %s: %w", u.UID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *GormUserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("email ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --------------------------------------------------
// memory
// --------------------------------------------------

type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) FindByUID(_ context.Context, uid string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[uid]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *MemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(u.UID, u.Email) {
		return domain.ErrEmailTaken
	}
	s.users[u.UID] = *u
	return nil
}

func (s *MemoryUserStore) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[u.UID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if s.emailTakenLocked(u.UID, u.Email) {
		return domain.ErrEmailTaken
	}

	current.DisplayName = u.DisplayName
	current.Email = u.Email
	current.IsAdmin = u.IsAdmin
	s.users[u.UID] = current
	return nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *MemoryUserStore) emailTakenLocked(uid, email string) bool {
	for _, other := range s.users {
		if other.UID != uid && strings.EqualFold(other.Email, email) {
			return true
		}
	}
	return false
}

// Compile-time checks
var (
	_ UserStore = (*GormUserStore)(nil)
	_ UserStore = (*MemoryUserStore)(nil)
)
