package tag

import "time"

const DefaultColor = "#6366F1"

type Tag struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_tags_user_name,priority:1" json:"-"`
	Name      string    `gorm:"size:30;not null;uniqueIndex:idx_tags_user_name,priority:2" json:"name"`
	Color     string    `gorm:"size:7;not null" json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Tag) TableName() string {
	return "tags"
}
