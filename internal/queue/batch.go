package queue

import (
	"errors"
	"log"
	"sync"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/monitoring"
	"park_queue/internal/storage"
	"park_queue/internal/ws"

	"gorm.io/gorm"
)

// Таймеры авто-завершения активных посадок, по одному на посадку.
// Таймер — ускоритель, а не источник истины: та же работа продублирована
// cron-обходом (tasks.CompleteOverdueBatches), который переживает рестарт.
var (
	batchTimersMu sync.Mutex
	batchTimers   = make(map[uint]*time.Timer)
)

func scheduleExpiry(batchID uint, at time.Time) {
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	batchTimersMu.Lock()
	defer batchTimersMu.Unlock()
	if t, ok := batchTimers[batchID]; ok {
		t.Stop()
	}
	batchTimers[batchID] = time.AfterFunc(d, func() {
		if err := CompleteExpiredBatch(batchID); err != nil {
			log.Println("Ошибка авто-завершения посадки:", err)
		}
	})
}

func cancelExpiry(batchID uint) {
	batchTimersMu.Lock()
	defer batchTimersMu.Unlock()
	if t, ok := batchTimers[batchID]; ok {
		t.Stop()
		delete(batchTimers, batchID)
	}
}

// ReArmBatchTimers взводит таймеры всех активных посадок. Вызывается при
// старте процесса: таймеры, жившие до рестарта, потеряны.
func ReArmBatchTimers() {
	var batches []models.Batch
	if err := storage.DB.Where("status = ?", models.BatchStatusActive).Find(&batches).Error; err != nil {
		log.Println("Ошибка загрузки активных посадок при старте:", err)
		return
	}
	for _, b := range batches {
		scheduleExpiry(b.ID, b.ExpectedEndAt)
	}
	if len(batches) > 0 {
		log.Printf("Взведены таймеры для %d активных посадок\n", len(batches))
	}
}

// StartBatchResult — результат старта посадки.
type StartBatchResult struct {
	Batch      models.Batch        `json:"batch"`
	MovedCount int                 `json:"moved_count"`
	Moved      []models.QueueEntry `json:"moved"`
}

// StartBatch снимает с головы очереди до capacity гостей и открывает посадку.
// capacity берётся из аттракциона на момент вызова, а не из какого-либо
// снимка. При force уже активная посадка принудительно отменяется, а её
// гости получают статус cancelled — обратно в очередь они не возвращаются.
func StartBatch(rideID uint, actor Actor, force bool) (*StartBatchResult, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	mu := lockRide(rideID)
	mu.Lock()
	defer mu.Unlock()

	var result StartBatchResult
	var forcedBatchID uint
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		var ride models.Ride
		if err := tx.First(&ride, rideID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRideNotFound
			}
			return err
		}
		if ride.Status != models.RideStatusOpen {
			return rideNotOpen(ride.Status)
		}

		now := time.Now()

		var existing models.Batch
		err := tx.Where("ride_id = ? AND status = ?", rideID, models.BatchStatusActive).First(&existing).Error
		switch {
		case err == nil:
			if !force {
				return ErrActiveBatchExists
			}
			existing.Status = models.BatchStatusCancelled
			existing.EndedAt = &now
			existing.EndedBy = &actor.ID
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			// Гости принудительно отменённой посадки теряют место.
			if err := tx.Model(&models.QueueEntry{}).
				Where("batch_id = ? AND status = ?", existing.ID, models.EntryStatusActive).
				Updates(map[string]interface{}{
					"status":     models.EntryStatusCancelled,
					"batch_id":   nil,
					"removed_by": actor.ID,
					"removed_at": now,
				}).Error; err != nil {
				return err
			}
			forcedBatchID = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Активной посадки нет, можно стартовать.
		default:
			return err
		}

		var head []models.QueueEntry
		if err := tx.
			Where("ride_id = ? AND status = ?", rideID, models.EntryStatusWaiting).
			Order("joined_at ASC").
			Limit(ride.Capacity).
			Find(&head).Error; err != nil {
			return err
		}
		if len(head) == 0 {
			return ErrNothingToStart
		}

		batch := models.Batch{
			RideID:        rideID,
			Status:        models.BatchStatusActive,
			Capacity:      ride.Capacity,
			StartedAt:     now,
			ExpectedEndAt: now.Add(time.Duration(ride.DurationMinutes) * time.Minute),
			StartedBy:     actor.ID,
		}
		if err := tx.Create(&batch).Error; err != nil {
			return err
		}

		for i := range head {
			entry := &head[i]
			entry.Status = models.EntryStatusActive
			entry.BatchID = &batch.ID
			entry.Position = 0
			entry.EtaMinutes = 0
			entry.EstimatedReturnAt = nil
			if err := tx.Save(entry).Error; err != nil {
				return err
			}
		}

		if err := recomputePositions(tx, &ride); err != nil {
			return err
		}

		result = StartBatchResult{Batch: batch, MovedCount: len(head), Moved: head}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if forcedBatchID != 0 {
		cancelExpiry(forcedBatchID)
	}
	scheduleExpiry(result.Batch.ID, result.Batch.ExpectedEndAt)

	monitoring.TrackBatchStarted(rideID, force)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "batch_started",
		RideID:    rideID,
		Data: map[string]interface{}{
			"batch_id":        result.Batch.ID,
			"moved_count":     result.MovedCount,
			"expected_end_at": result.Batch.ExpectedEndAt,
			"forced":          force,
		},
	})

	return &result, nil
}

// EndBatch — ручное завершение посадки сотрудником. Все её записи переходят
// в completed, таймер снимается. Повторный вызов — Conflict.
func EndBatch(batchID uint, actor Actor) (*models.Batch, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	var probe models.Batch
	if err := storage.DB.First(&probe, batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	batch, err := resolveBatchCompleted(probe.RideID, batchID, &actor.ID)
	if err != nil {
		return nil, err
	}

	cancelExpiry(batchID)
	monitoring.TrackBatchCompleted(batch.RideID, "manual")
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "batch_ended",
		RideID:    batch.RideID,
		Data: map[string]interface{}{
			"batch_id": batch.ID,
			"ended_by": actor.ID,
		},
	})

	return batch, nil
}

// CompleteExpiredBatch завершает посадку по истечении её времени. Идемпотентна:
// если посадку уже завершили вручную (или её вовсе нет) — тихий no-op.
func CompleteExpiredBatch(batchID uint) error {
	var probe models.Batch
	if err := storage.DB.First(&probe, batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if probe.Status != models.BatchStatusActive {
		return nil
	}

	batch, err := resolveBatchCompleted(probe.RideID, batchID, nil)
	if err != nil {
		if errors.Is(err, ErrBatchNotActive) || errors.Is(err, ErrBatchNotFound) {
			return nil
		}
		return err
	}

	cancelExpiry(batchID)
	monitoring.TrackBatchCompleted(batch.RideID, "expired")
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "batch_ended",
		RideID:    batch.RideID,
		Data: map[string]interface{}{
			"batch_id": batch.ID,
			"expired":  true,
		},
	})

	log.Printf("Посадка %d завершена по таймеру\n", batchID)
	return nil
}

// resolveBatchCompleted переводит активную посадку и все её записи в
// completed под блокировкой аттракциона. endedBy == nil означает
// авто-завершение по таймеру.
func resolveBatchCompleted(rideID, batchID uint, endedBy *uint) (*models.Batch, error) {
	mu := lockRide(rideID)
	mu.Lock()
	defer mu.Unlock()

	var batch models.Batch
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&batch, batchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBatchNotFound
			}
			return err
		}
		if batch.Status != models.BatchStatusActive {
			return ErrBatchNotActive
		}

		now := time.Now()
		batch.Status = models.BatchStatusCompleted
		batch.EndedAt = &now
		batch.EndedBy = endedBy
		if err := tx.Save(&batch).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.QueueEntry{}).
			Where("batch_id = ? AND status = ?", batchID, models.EntryStatusActive).
			Updates(map[string]interface{}{
				"status":   models.EntryStatusCompleted,
				"batch_id": nil,
				"ended_at": now,
			}).Error; err != nil {
			return err
		}

		// Состав очереди не изменился, но capacity/duration могли поменяться
		// с прошлого пересчёта, поэтому пересчитываем и здесь.
		var ride models.Ride
		if err := tx.First(&ride, rideID).Error; err != nil {
			return err
		}
		return recomputePositions(tx, &ride)
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}
