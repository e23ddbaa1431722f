package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/database"
	"github.com/elskow/airdrop-journal/internal/httpx"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// TokenKind selects which single-use token column pair a lookup targets.
type TokenKind int

const (
	TokenPasswordReset TokenKind = iota + 1
	TokenEmailVerification
)

func (k TokenKind) String() string {
	switch k {
	case TokenPasswordReset:
		return "password_reset"
	case TokenEmailVerification:
		return "email_verification"
	default:
		return "unknown"
	}
}

func (k TokenKind) columns() (hash, expires string) {
	switch k {
	case TokenPasswordReset:
		return "password_reset_token_hash", "password_reset_expires_at"
	case TokenEmailVerification:
		return "email_verification_token_hash", "email_verification_expires_at"
	default:
		return "", ""
	}
}

type UserFilter struct {
	Role   string
	Active *bool
}

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByTokenHash(ctx context.Context, kind TokenKind, hash string, now time.Time) (*User, error)
	Save(ctx context.Context, user *User) error
	PurgeExpiredTokens(ctx context.Context, kind TokenKind, now time.Time) (int64, error)
	List(ctx context.Context, filter UserFilter, q httpx.ListQuery) ([]User, int64, error)
}

type repository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepository(db *gorm.DB, timeout time.Duration) Repository {
	return &repository{db: db, timeout: timeout}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return database.Classify(err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByTokenHash finds the active account holding an unexpired token of kind.
func (r *repository) GetByTokenHash(ctx context.Context, kind TokenKind, hash string, now time.Time) (*User, error) {
	hashCol, expiresCol := kind.columns()
	if hashCol == "" {
		return nil, ErrUserNotFound
	}
	return r.first(ctx, hashCol+" = ? AND "+expiresCol+" > ? AND active = ?", hash, now, true)
}

// Save writes every column of user. Concurrent writers to the same account
// overwrite each other.
func (r *repository) Save(ctx context.Context, user *User) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return database.Classify(err)
	}
	return nil
}

// PurgeExpiredTokens clears token hashes of kind that expired before now and
// returns how many accounts were touched.
func (r *repository) PurgeExpiredTokens(ctx context.Context, kind TokenKind, now time.Time) (int64, error) {
	hashCol, expiresCol := kind.columns()
	if hashCol == "" {
		return 0, nil
	}

	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Model(&User{}).
		Where(expiresCol+" <= ?", now).
		UpdateColumns(map[string]any{hashCol: nil, expiresCol: nil})
	if res.Error != nil {
		return 0, database.Classify(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *repository) List(ctx context.Context, filter UserFilter, q httpx.ListQuery) ([]User, int64, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	scope := func(tx *gorm.DB) *gorm.DB {
		if filter.Role != "" {
			tx = tx.Where("role = ?", filter.Role)
		}
		if filter.Active != nil {
			tx = tx.Where("active = ?", *filter.Active)
		}
		if q.Search != "" {
			p := q.SearchPattern()
			tx = tx.Where(
				`(LOWER(email) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\')`,
				p, p, p,
			)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&User{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}

	users := make([]User, 0, q.Limit)
	if err := q.Apply(r.db.WithContext(ctx).Scopes(scope)).Find(&users).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return users, total, nil
}

func (r *repository) first(ctx context.Context, query string, args ...any) (*User, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, database.Classify(err)
	}
	return &user, nil
}
