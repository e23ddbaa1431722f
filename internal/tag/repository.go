package tag

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/database"
)

var (
	ErrNotFound      = errors.New("tag not found")
	ErrDuplicateName = errors.New("a tag with this name already exists")
)

type Repository interface {
	Create(ctx context.Context, t *Tag) error
	Get(ctx context.Context, userID, id string) (*Tag, error)
	GetByName(ctx context.Context, userID, name string) (*Tag, error)
	List(ctx context.Context, userID string) ([]Tag, error)
	FindOwned(ctx context.Context, userID string, ids []string) ([]Tag, error)
	Update(ctx context.Context, t *Tag) error
	Delete(ctx context.Context, userID, id string) error
}

type repository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepository(db *gorm.DB, timeout time.Duration) Repository {
	return &repository{db: db, timeout: timeout}
}

func (r *repository) Create(ctx context.Context, t *Tag) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, userID, id string) (*Tag, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.first(ctx, "user_id = ? AND id = ?", userID, id)
}

// GetByName matches case-insensitively.
func (r *repository) GetByName(ctx context.Context, userID, name string) (*Tag, error) {
	return r.first(ctx, "user_id = ? AND LOWER(name) = ?", userID, strings.ToLower(name))
}

func (r *repository) List(ctx context.Context, userID string) ([]Tag, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var tags []Tag
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("LOWER(name) ASC").Find(&tags).Error; err != nil {
		return nil, database.Classify(err)
	}
	return tags, nil
}

func (r *repository) FindOwned(ctx context.Context, userID string, ids []string) ([]Tag, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var tags []Tag
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, ids).Find(&tags).Error; err != nil {
		return nil, database.Classify(err)
	}
	return tags, nil
}

func (r *repository) Update(ctx context.Context, t *Tag) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Delete removes the tag and its airdrop links.
func (r *repository) Delete(ctx context.Context, userID, id string) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&Tag{}).Where("user_id = ? AND id = ?", userID, id).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return ErrNotFound
		}
		if err := tx.Exec("DELETE FROM airdrop_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Tag{}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return database.Classify(err)
}

func (r *repository) first(ctx context.Context, query string, args ...any) (*Tag, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var t Tag
	if err := r.db.WithContext(ctx).Where(query, args...).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, database.Classify(err)
	}
	return &t, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateName
	}
	return database.Classify(err)
}
