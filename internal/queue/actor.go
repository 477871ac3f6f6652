package queue

import "park_queue/internal/models"

// Actor — идентичность вызывающего, извлечённая из JWT (или тестовой заглушки).
type Actor struct {
	ID   uint
	Role string
}

func (a Actor) IsStaff() bool {
	return a.Role == models.RoleStaff || a.Role == models.RoleAdmin
}
