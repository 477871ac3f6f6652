package queue

import (
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/storage"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

var setupOnce sync.Once

// Заведомо несуществующий идентификатор для NotFound-проверок.
const missingID = 99999999

// setupTestDB подключается к тестовой базе. Тесты не чистят базу, а работают
// каждый со своим аттракционом и своими гостями, поэтому не мешают ни друг
// другу, ни тестам других пакетов на той же базе.
func setupTestDB(t *testing.T) {
	setupOnce.Do(func() {
		key := os.Getenv("ENV_CHEK")
		if key == "" {
			fmt.Println("Подключение к .env")
			if err := godotenv.Load("../../.env"); err != nil {
				log.Fatal("Ошибка получения .env")
			}
		}

		storage.ConnectTestingDatabase()

		if err := storage.DB.AutoMigrate(&models.User{}, &models.Ride{}, &models.QueueEntry{}, &models.Batch{}); err != nil {
			log.Fatal("Ошибка при миграции... ", err.Error())
		}
	})
}

func createRide(t *testing.T, capacity, durationMinutes int) models.Ride {
	ride := models.Ride{
		Name:            "Тестовый аттракцион",
		Capacity:        capacity,
		DurationMinutes: durationMinutes,
		Status:          models.RideStatusOpen,
	}
	err := storage.DB.Create(&ride).Error
	assert.NoError(t, err, "Ошибка создания тестового аттракциона")
	return ride
}

func createGuest(t *testing.T, verified bool) models.User {
	user := models.User{
		Name:         "Иван",
		Surname:      "Иванов",
		Email:        fmt.Sprintf("guest_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hashed123",
		Role:         models.RoleGuest,
		Verified:     verified,
	}
	err := storage.DB.Create(&user).Error
	assert.NoError(t, err, "Ошибка создания тестового гостя")
	return user
}

func createStaff(t *testing.T) Actor {
	user := models.User{
		Name:         "Петр",
		Surname:      "Петров",
		Email:        fmt.Sprintf("staff_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hashed456",
		Role:         models.RoleStaff,
		Verified:     true,
	}
	err := storage.DB.Create(&user).Error
	assert.NoError(t, err, "Ошибка создания тестового сотрудника")
	return Actor{ID: user.ID, Role: user.Role}
}

// waitingPositions возвращает позиции waiting-записей аттракциона по порядку joined_at.
func waitingPositions(t *testing.T, rideID uint) []int {
	var entries []models.QueueEntry
	err := storage.DB.
		Where("ride_id = ? AND status = ?", rideID, models.EntryStatusWaiting).
		Order("joined_at ASC").
		Find(&entries).Error
	assert.NoError(t, err)
	positions := make([]int, 0, len(entries))
	for _, e := range entries {
		positions = append(positions, e.Position)
	}
	return positions
}
