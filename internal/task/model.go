package task

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

type Task struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"-"`
	AirdropID   *string    `gorm:"type:uuid;index" json:"airdropId"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"not null;default:''" json:"description"`
	Priority    string     `gorm:"size:8;not null;default:medium" json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Task) TableName() string {
	return "tasks"
}

// Stats summarises a user's tasks at a point in time.
type Stats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
	Overdue   int64 `json:"overdue"`
	DueToday  int64 `json:"dueToday"`
}
