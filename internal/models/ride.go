package models

import (
	"gorm.io/gorm"
)

// Статусы аттракциона.
const (
	RideStatusOpen        = "open"
	RideStatusClosed      = "closed"
	RideStatusMaintenance = "maintenance"
)

type Ride struct {
	gorm.Model
	Name            string `gorm:"not null"`
	Capacity        int    `gorm:"not null"`            // Вместимость одной посадки (>= 1)
	DurationMinutes int    `gorm:"not null"`            // Длительность одной посадки в минутах (>= 1)
	Status          string `gorm:"not null;default:open"` // open, closed, maintenance
}
