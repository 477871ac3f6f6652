package queue

import (
	"time"

	"park_queue/internal/models"

	"gorm.io/gorm"
)

// etaMinutes — чистая функция от позиции и текущих параметров аттракциона.
// Гость с позицией p попадает в посадку номер ceil(p/capacity) и ждёт
// (номер-1) полных посадок. Историю реальных посадок формула сознательно
// игнорирует: при смене capacity/duration оценка сама себя поправит на
// следующем пересчёте.
func etaMinutes(position, capacity, durationMinutes int) int {
	if capacity < 1 {
		capacity = 1
	}
	batchNumber := (position + capacity - 1) / capacity
	return (batchNumber - 1) * durationMinutes
}

// recomputePositions перенумеровывает waiting-записи аттракциона в 1..N по
// joined_at и пересчитывает ETA каждой. Вызывается внутри той же транзакции,
// что и мутация списка: пересчёт — часть атомарной операции, а не "догонка"
// после неё, иначе записи остаются со старыми позициями.
func recomputePositions(tx *gorm.DB, ride *models.Ride) error {
	var entries []models.QueueEntry
	if err := tx.
		Where("ride_id = ? AND status = ?", ride.ID, models.EntryStatusWaiting).
		Order("joined_at ASC").
		Find(&entries).Error; err != nil {
		return err
	}

	now := time.Now()
	for i := range entries {
		entry := &entries[i]
		position := i + 1
		eta := etaMinutes(position, ride.Capacity, ride.DurationMinutes)
		returnAt := now.Add(time.Duration(eta) * time.Minute)

		entry.Position = position
		entry.EtaMinutes = eta
		entry.EstimatedReturnAt = &returnAt
		if err := tx.Save(entry).Error; err != nil {
			return err
		}
	}
	return nil
}
