package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elskow/airdrop-journal/internal/database"
	"github.com/elskow/airdrop-journal/internal/httpx"
)

var ErrNotFound = errors.New("task not found")

type Filter struct {
	AirdropID string
	Completed *bool
	Priority  string
	// OverdueAt, when set, keeps open tasks due before it.
	OverdueAt *time.Time
}

type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, userID, id string) (*Task, error)
	List(ctx context.Context, userID string, f Filter, q httpx.ListQuery) ([]Task, int64, error)
	Save(ctx context.Context, t *Task) error
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string, now time.Time) (Stats, error)
}

type repository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewRepository(db *gorm.DB, timeout time.Duration) Repository {
	return &repository{db: db, timeout: timeout}
}

func (r *repository) Create(ctx context.Context, t *Task) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return database.Classify(r.db.WithContext(ctx).Create(t).Error)
}

func (r *repository) Get(ctx context.Context, userID, id string) (*Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	var t Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, database.Classify(err)
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, userID string, f Filter, q httpx.ListQuery) ([]Task, int64, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	scope := func(tx *gorm.DB) *gorm.DB {
		tx = tx.Where("user_id = ?", userID)
		if f.AirdropID != "" {
			tx = tx.Where("airdrop_id = ?", f.AirdropID)
		}
		if f.Completed != nil {
			tx = tx.Where("completed = ?", *f.Completed)
		}
		if f.Priority != "" {
			tx = tx.Where("priority = ?", f.Priority)
		}
		if f.OverdueAt != nil {
			tx = tx.Where("completed = ? AND due_date IS NOT NULL AND due_date < ?", false, *f.OverdueAt)
		}
		if q.Search != "" {
			p := q.SearchPattern()
			tx = tx.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&Task{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err)
	}

	tasks := make([]Task, 0, q.Limit)
	if err := q.Apply(r.db.WithContext(ctx).Scopes(scope)).Find(&tasks).Error; err != nil {
		return nil, 0, database.Classify(err)
	}
	return tasks, total, nil
}

func (r *repository) Save(ctx context.Context, t *Task) error {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	return database.Classify(r.db.WithContext(ctx).Save(t).Error)
}

func (r *repository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&Task{})
	if res.Error != nil {
		return database.Classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts tasks relative to now. "Due today" is the UTC day containing
// now and excludes tasks already overdue.
func (r *repository) Stats(ctx context.Context, userID string, now time.Time) (Stats, error) {
	ctx, cancel := database.WithTimeout(ctx, r.timeout)
	defer cancel()

	now = now.UTC()
	endOfDay := now.Truncate(24 * time.Hour).Add(24 * time.Hour)

	var row struct {
		Total     int64
		Completed int64
		Overdue   int64
		DueToday  int64
	}
	err := r.db.WithContext(ctx).Model(&Task{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN NOT completed AND due_date < ? THEN 1 ELSE 0 END), 0) AS overdue,
			COALESCE(SUM(CASE WHEN NOT completed AND due_date >= ? AND due_date < ? THEN 1 ELSE 0 END), 0) AS due_today`,
			now, now, endOfDay).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return Stats{}, database.Classify(err)
	}

	return Stats{
		Total:     row.Total,
		Completed: row.Completed,
		Pending:   row.Total - row.Completed,
		Overdue:   row.Overdue,
		DueToday:  row.DueToday,
	}, nil
}
