package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы посадки.
const (
	BatchStatusActive    = "active"
	BatchStatusCompleted = "completed"
	BatchStatusCancelled = "cancelled"
)

// Batch — одна посадка аттракциона: до capacity гостей, снятых с головы очереди.
// На один аттракцион в любой момент не больше одной активной посадки.
type Batch struct {
	gorm.Model
	RideID uint `gorm:"not null;index:idx_batches_ride_status,priority:1"`
	Ride   Ride `gorm:"foreignKey:RideID"`
	Status string `gorm:"not null;default:active;index:idx_batches_ride_status,priority:2"`

	Capacity      int       `gorm:"not null"` // Снимок вместимости аттракциона на момент старта
	StartedAt     time.Time `gorm:"not null"`
	ExpectedEndAt time.Time `gorm:"not null;index"` // StartedAt + длительность посадки; по нему работает авто-завершение
	EndedAt       *time.Time

	StartedBy uint  `gorm:"not null"`
	EndedBy   *uint
}
