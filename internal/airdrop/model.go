package airdrop

import (
	"time"

	"github.com/elskow/airdrop-journal/internal/tag"
)

const (
	StatusPlanned   = "planned"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusClaimed   = "claimed"
	StatusMissed    = "missed"
)

var Statuses = []string{StatusPlanned, StatusActive, StatusCompleted, StatusClaimed, StatusMissed}

type Airdrop struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string     `gorm:"type:uuid;not null;index" json:"-"`
	Name           string     `gorm:"size:100;not null" json:"name"`
	Description    string     `gorm:"not null;default:''" json:"description"`
	Chain          string     `gorm:"size:50;not null;default:''" json:"chain"`
	Status         string     `gorm:"size:16;not null;default:planned" json:"status"`
	Website        string     `gorm:"size:500;not null;default:''" json:"website"`
	Twitter        string     `gorm:"size:500;not null;default:''" json:"twitter"`
	Discord        string     `gorm:"size:500;not null;default:''" json:"discord"`
	Deadline       *time.Time `json:"deadline"`
	EstimatedValue float64    `gorm:"not null;default:0" json:"estimatedValue"`
	RewardValue    float64    `gorm:"not null;default:0" json:"rewardValue"`
	Notes          string     `gorm:"not null;default:''" json:"notes"`
	Favorite       bool       `gorm:"not null;default:false" json:"favorite"`
	Tags           []tag.Tag  `gorm:"many2many:airdrop_tags;constraint:OnDelete:CASCADE" json:"tags"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (Airdrop) TableName() string {
	return "airdrops"
}

// Stats summarises a user's airdrops.
type Stats struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"byStatus"`
	Favorites      int64            `json:"favorites"`
	EstimatedValue float64          `json:"estimatedValue"`
	RewardValue    float64          `json:"rewardValue"`
}
