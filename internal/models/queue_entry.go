package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы записи в очереди.
const (
	EntryStatusWaiting   = "waiting"
	EntryStatusActive    = "active"
	EntryStatusCompleted = "completed"
	EntryStatusCancelled = "cancelled"
)

// QueueEntry — место гостя в очереди одного аттракциона.
// Позиция и ETA имеют смысл только пока status = waiting.
type QueueEntry struct {
	gorm.Model
	RideID uint `gorm:"not null;index:idx_entries_ride_status_joined,priority:1;index:idx_entries_ride_user_status,priority:1"`
	Ride   Ride `gorm:"foreignKey:RideID"`
	UserID uint `gorm:"not null;index;index:idx_entries_ride_user_status,priority:2"`
	User   User `gorm:"foreignKey:UserID"`
	Status string `gorm:"not null;default:waiting;index;index:idx_entries_ride_status_joined,priority:2;index:idx_entries_ride_user_status,priority:3"`

	Position int       `gorm:"not null;default:0"` // Текущая позиция в очереди (1..N среди waiting)
	JoinedAt time.Time `gorm:"not null;index:idx_entries_ride_status_joined,priority:3"` // Время последнего входа в очередь; pushback сдвигает его на "сейчас"

	BatchID *uint  `gorm:"index"` // Заполнен только пока запись в активной посадке
	Batch   *Batch `gorm:"foreignKey:BatchID"`

	EtaMinutes        int        // Расчётное ожидание в минутах (производное от позиции)
	EstimatedReturnAt *time.Time // Расчётное время вызова

	EndedAt   *time.Time // Время завершения посадки (status = completed)
	RemovedBy *uint      // Кто снял запись (сам гость или сотрудник)
	RemovedAt *time.Time // Когда запись была снята
}
