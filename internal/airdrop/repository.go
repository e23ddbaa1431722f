package airdrop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/database"
	"github.com/elskow/airdrop-journal/internal/httpx"
	"github.com/elskow/airdrop-journal/internal/tag"
)

var ErrNotFound = errors.New("airdrop not found")

type Filter struct {
	Status   string
	Chain    string
	TagID    string
	Favorite *bool
}

type Repository interface {
	Create(ctx context.Context, a *Airdrop) error
	Get(ctx context.Context, userID, id string) (*Airdrop, error)
	Exists(ctx context.Context, userID, id string) (bool, error)
	List(ctx context.Context, userID string, f Filter, q httpx.ListQuery) ([]Airdrop, int64, error)
	// Update writes a's columns and, when tags is non-nil, replaces its tags.
	Update(ctx context.Context, a *Airdrop, tags []tag.Tag) error
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string) (Stats, error)
}

type repository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepository(db *gorm.DB, timeout time.Duration) Repository {
	return &repository{db: db, timeout: timeout}
}

func (r *repository) Create(ctx context.Context, a *Airdrop) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	// Tags already exist; only the join rows are written.
	if err := r.db.WithContext(ctx).Omit("Tags.*").Create(a).Error; err != nil {
		return database.Classify(err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, userID, id string) (*Airdrop, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var a Airdrop
	err := r.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Where("user_id = ? AND id = ?", userID, id).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, database.Classify(err)
	}
	return &a, nil
}

func (r *repository) Exists(ctx context.Context, userID, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var n int64
	if err := r.db.WithContext(ctx).Model(&Airdrop{}).Where("user_id = ? AND id = ?", userID, id).Count(&n).Error; err != nil {
		return false, database.Classify(err)
	}
	return n > 0, nil
}

func (r *repository) List(ctx context.Context, userID string, f Filter, q httpx.ListQuery) ([]Airdrop, int64, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("user_id = ?", userID)
		if f.Status != "" {
			tx = tx.Where("status = ?", f.Status)
		}
		if f.Chain != "" {
			tx = tx.Where("LOWER(chain) = LOWER(?)", f.Chain)
		}
		if f.Favorite != nil {
			tx = tx.Where("favorite = ?", *f.Favorite)
		}
		if f.TagID != "" {
			tx = tx.Where("id IN (SELECT airdrop_id FROM airdrop_tags WHERE tag_id = ?)", f.TagID)
		}
		if q.Search != "" {
			p := q.SearchPattern()
			tx = tx.Where(
				`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(chain) LIKE ? ESCAPE '\')`,
				p, p, p,
			)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&Airdrop{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}

	airdrops := make([]Airdrop, 0, q.Limit)
	err := q.Apply(r.db.WithContext(ctx).Scopes(scope)).
		Preload("Tags", orderTags).
		Find(&airdrops).Error
	if err != nil {
		return nil, 0, database.Classify(err)
	}
	return airdrops, total, nil
}

func (r *repository) Update(ctx context.Context, a *Airdrop, tags []tag.Tag) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Save(a).Error; err != nil {
			return err
		}
		if tags == nil {
			return nil
		}
		if err := tx.Model(a).Association("Tags").Replace(tags); err != nil {
			return err
		}
		a.Tags = tags
		return nil
	})
	return database.Classify(err)
}

// Delete removes the airdrop together with its tasks and tag links.
func (r *repository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&Airdrop{}).Where("user_id = ? AND id = ?", userID, id).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return ErrNotFound
		}
		if err := tx.Exec("DELETE FROM tasks WHERE airdrop_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM airdrop_tags WHERE airdrop_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Airdrop{}).Error
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return database.Classify(err)
}

func (r *repository) Stats(ctx context.Context, userID string) (Stats, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rows []struct {
		Status    string
		Count     int64
		Favorites int64
		Estimated float64
		Reward    float64
	}
	err := r.db.WithContext(ctx).Model(&Airdrop{}).
		Select(`status,
			COUNT(*) AS count,
			SUM(CASE WHEN favorite THEN 1 ELSE 0 END) AS favorites,
			COALESCE(SUM(estimated_value), 0) AS estimated,
			COALESCE(SUM(reward_value), 0) AS reward`).
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return Stats{}, database.Classify(err)
	}

	stats := Stats{ByStatus: make(map[string]int64, len(Statuses))}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
		stats.Favorites += row.Favorites
		stats.EstimatedValue += row.Estimated
		stats.RewardValue += row.Reward
	}
	return stats, nil
}

func orderTags(tx *gorm.DB) *gorm.DB {
	return tx.Order("LOWER(tags.name) ASC")
}
