package tasks

import (
	"log"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/monitoring"
	"park_queue/internal/queue"
	"park_queue/internal/storage"

	"github.com/robfig/cron/v3"
)

// CompleteOverdueBatches находит активные посадки, у которых expected_end_at в
// прошлом, и завершает их. Дублирует per-batch таймеры осознанно: таймеры не
// переживают рестарт процесса, обход — переживает.
func CompleteOverdueBatches() {
	var batches []models.Batch
	if err := storage.DB.
		Where("status = ? AND expected_end_at <= ?", models.BatchStatusActive, time.Now()).
		Find(&batches).Error; err != nil {
		log.Println("Ошибка поиска просроченных посадок:", err)
		return
	}

	for _, b := range batches {
		if err := queue.CompleteExpiredBatch(b.ID); err != nil {
			log.Println("Ошибка завершения просроченной посадки", b.ID, ":", err)
		}
	}
}

// CleanResolvedEntries удаляет снятые и завершённые записи старше 30 дней.
// Аудитные поля (кто и когда снял) живут эти 30 дней, дольше они не нужны.
func CleanResolvedEntries() {
	threshold := time.Now().Add(-30 * 24 * time.Hour)
	if err := storage.DB.
		Where("status IN ? AND updated_at < ?",
			[]string{models.EntryStatusCompleted, models.EntryStatusCancelled}, threshold).
		Delete(&models.QueueEntry{}).Error; err != nil {
		log.Println("Ошибка при удалении старых записей очереди:", err)
	} else {
		log.Println("Старые записи очереди успешно удалены.")
	}
}

// InitScheduler инициализирует планировщик cron-задач.
func InitScheduler() *cron.Cron {
	c := cron.New(cron.WithSeconds())

	// Завершение просроченных посадок раз в минуту.
	_, err := c.AddFunc("0 * * * * *", CompleteOverdueBatches)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи CompleteOverdueBatches:", err)
	}

	// Обновление метрик очередей раз в минуту.
	_, err = c.AddFunc("30 * * * * *", monitoring.CollectWaitingCounts)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи CollectWaitingCounts:", err)
	}

	// Очистка старых записей каждый день в 03:00.
	_, err = c.AddFunc("0 0 3 * * *", CleanResolvedEntries)
	if err != nil {
		log.Println("Ошибка запуска cron-задачи CleanResolvedEntries:", err)
	}

	c.Start()
	log.Println("Cron-планировщик запущен.")
	return c
}
