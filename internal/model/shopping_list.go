package model

import (
	"time"

	"github.com/google/uuid"
)

// Shopping list lifecycle: draft → active → completed → archived, plus
// active → archived. Archived is terminal. Draft lists are only deleted when
// auto-generation yields zero items.
const (
	ListDraft     = "draft"
	ListActive    = "active"
	ListCompleted = "completed"
	ListArchived  = "archived"
)

type ShoppingList struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Title           string    `gorm:"not null"`
	Status          string    `gorm:"type:varchar(20);not null;default:'draft'"`
	IsAutoGenerated bool      `gorm:"not null;default:false"`
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time

	Items []ShoppingListItem `gorm:"foreignKey:ShoppingListID"`
}

// CompletionPercentage is the checked-item ratio, 0–100.
func (l *ShoppingList) CompletionPercentage() int {
	if len(l.Items) == 0 {
		return 0
	}
	checked := 0
	for _, it := range l.Items {
		if it.IsChecked {
			checked++
		}
	}
	return checked * 100 / len(l.Items)
}
