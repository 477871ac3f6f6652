package tasks

import (
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/queue"
	"park_queue/internal/storage"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

var setupOnce sync.Once

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

func TestCompleteOverdueBatches(t *testing.T) {
	setupTestDB(t)

	staffUser := models.User{
		Name: "Петр", Surname: "Петров",
		Email:        fmt.Sprintf("staff_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hashed456",
		Role:         models.RoleStaff,
		Verified:     true,
	}
	assert.NoError(t, storage.DB.Create(&staffUser).Error)
	staff := queue.Actor{ID: staffUser.ID, Role: staffUser.Role}

	ride := models.Ride{Name: "Колесо", Capacity: 2, DurationMinutes: 10, Status: models.RideStatusOpen}
	assert.NoError(t, storage.DB.Create(&ride).Error)

	guest := models.User{
		Name: "Иван", Surname: "Иванов",
		Email:        fmt.Sprintf("guest_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hashed123",
		Role:         models.RoleGuest,
		Verified:     true,
	}
	assert.NoError(t, storage.DB.Create(&guest).Error)

	_, err := queue.Join(ride.ID, guest.ID, staff)
	assert.NoError(t, err)

	result, err := queue.StartBatch(ride.ID, staff, false)
	assert.NoError(t, err)

	// Симулируем рестарт процесса: таймер потерян, время посадки вышло.
	assert.NoError(t, storage.DB.Model(&models.Batch{}).
		Where("id = ?", result.Batch.ID).
		Update("expected_end_at", time.Now().Add(-time.Minute)).Error)

	CompleteOverdueBatches()

	var batch models.Batch
	assert.NoError(t, storage.DB.First(&batch, result.Batch.ID).Error)
	assert.Equal(t, models.BatchStatusCompleted, batch.Status, "Обход должен завершить просроченную посадку")

	var entry models.QueueEntry
	assert.NoError(t, storage.DB.Where("ride_id = ? AND user_id = ?", ride.ID, guest.ID).First(&entry).Error)
	assert.Equal(t, models.EntryStatusCompleted, entry.Status)
	assert.Nil(t, entry.BatchID)

	// Повторный обход ничего не трогает.
	CompleteOverdueBatches()
	assert.NoError(t, storage.DB.First(&batch, result.Batch.ID).Error)
	assert.Equal(t, models.BatchStatusCompleted, batch.Status)
}
