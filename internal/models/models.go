package models

import (
	"gorm.io/gorm"
)

// Роли пользователей.
const (
	RoleGuest = "guest"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Name         string `gorm:"not null"`
	Surname      string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:guest"` // guest, staff или admin
	Verified     bool   `gorm:"not null;default:false"` // Подтверждённый гость (в очередь пускаем только подтверждённых)
}

// IsStaff — сотрудник парка или администратор.
func (u *User) IsStaff() bool {
	return u.Role == RoleStaff || u.Role == RoleAdmin
}
