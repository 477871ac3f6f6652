package queue

import (
	"errors"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/monitoring"
	"park_queue/internal/storage"
	"park_queue/internal/ws"

	"gorm.io/gorm"
)

// Leave — добровольный выход гостя из очереди. Снять можно только собственную
// запись в статусе waiting: из активной посадки гость сам не выходит.
func Leave(rideID, userID uint) (*models.QueueEntry, error) {
	mu := lockRide(rideID)
	mu.Lock()
	defer mu.Unlock()

	var entry models.QueueEntry
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		var ride models.Ride
		if err := tx.First(&ride, rideID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRideNotFound
			}
			return err
		}

		if err := tx.
			Where("ride_id = ? AND user_id = ? AND status IN ?", rideID, userID, inQueueStatuses).
			First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if entry.Status != models.EntryStatusWaiting {
			return ErrEntryNotWaiting
		}

		now := time.Now()
		entry.Status = models.EntryStatusCancelled
		entry.RemovedBy = &entry.UserID
		entry.RemovedAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		return recomputePositions(tx, &ride)
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackQueueOperation("leave", rideID)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "user_left",
		RideID:    rideID,
		Data: map[string]interface{}{
			"user_id":  userID,
			"entry_id": entry.ID,
		},
	})

	return &entry, nil
}

// CancelByStaff — снятие записи сотрудником. В отличие от Leave снимает и
// записи в активной посадке (гость не явился на посадку). Повторное снятие
// уже снятой или завершённой записи — Conflict.
func CancelByStaff(entryID uint, actor Actor) (*models.QueueEntry, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	var probe models.QueueEntry
	if err := storage.DB.First(&probe, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	mu := lockRide(probe.RideID)
	mu.Lock()
	defer mu.Unlock()

	var entry models.QueueEntry
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		// Перечитываем под блокировкой: запись могли снять, пока мы её искали.
		if err := tx.First(&entry, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if entry.Status != models.EntryStatusWaiting && entry.Status != models.EntryStatusActive {
			return ErrEntryResolved
		}

		var ride models.Ride
		if err := tx.First(&ride, entry.RideID).Error; err != nil {
			return err
		}

		now := time.Now()
		entry.Status = models.EntryStatusCancelled
		entry.BatchID = nil
		entry.RemovedBy = &actor.ID
		entry.RemovedAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		return recomputePositions(tx, &ride)
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackQueueOperation("cancel", entry.RideID)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "user_removed",
		RideID:    entry.RideID,
		Data: map[string]interface{}{
			"user_id":    entry.UserID,
			"entry_id":   entry.ID,
			"removed_by": actor.ID,
		},
	})

	return &entry, nil
}

// Pushback переносит ожидающего гостя в конец очереди: joined_at становится
// "сейчас", остальные подтягиваются на пересчёте. Используется для гостей,
// пропустивших вызов; снимать ли запись после второго пропуска — решение
// вызывающего слоя, движок это правило не навязывает.
func Pushback(entryID uint, actor Actor) (*models.QueueEntry, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}

	var probe models.QueueEntry
	if err := storage.DB.First(&probe, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	mu := lockRide(probe.RideID)
	mu.Lock()
	defer mu.Unlock()

	var entry models.QueueEntry
	err := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&entry, entryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEntryNotFound
			}
			return err
		}
		if entry.Status != models.EntryStatusWaiting {
			return ErrEntryNotWaiting
		}

		var ride models.Ride
		if err := tx.First(&ride, entry.RideID).Error; err != nil {
			return err
		}

		entry.JoinedAt = time.Now()
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		if err := recomputePositions(tx, &ride); err != nil {
			return err
		}
		// Отдаём запись уже с новой позицией.
		return tx.First(&entry, entryID).Error
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackQueueOperation("pushback", entry.RideID)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "pushback",
		RideID:    entry.RideID,
		Data: map[string]interface{}{
			"user_id":  entry.UserID,
			"entry_id": entry.ID,
			"position": entry.Position,
		},
	})

	return &entry, nil
}

// Participant — одна строка в сводке очереди.
type Participant struct {
	EntryID    uint   `json:"entry_id"`
	UserID     uint   `json:"user_id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Position   int    `json:"position"`
	EtaMinutes int    `json:"eta_minutes"`
}

// QueueStatus — краткая сводка очереди: сколько ждут и ближайшие N записей.
type QueueStatus struct {
	RideID       uint          `json:"ride_id"`
	RideStatus   string        `json:"ride_status"`
	WaitingCount int64         `json:"waiting_count"`
	Next         []Participant `json:"next"`
}

// Status возвращает сводку без блокировки: чтение текущего сохранённого
// состояния, мутаций нет.
func Status(rideID uint, limit int) (*QueueStatus, error) {
	var ride models.Ride
	if err := storage.DB.First(&ride, rideID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}

	status := QueueStatus{RideID: ride.ID, RideStatus: ride.Status, Next: []Participant{}}
	if err := storage.DB.Model(&models.QueueEntry{}).
		Where("ride_id = ? AND status = ?", rideID, models.EntryStatusWaiting).
		Count(&status.WaitingCount).Error; err != nil {
		return nil, err
	}

	var entries []models.QueueEntry
	if err := storage.DB.
		Preload("User").
		Where("ride_id = ? AND status = ?", rideID, models.EntryStatusWaiting).
		Order("joined_at ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	for _, entry := range entries {
		status.Next = append(status.Next, Participant{
			EntryID:    entry.ID,
			UserID:     entry.UserID,
			Name:       entry.User.Name,
			Surname:    entry.User.Surname,
			Position:   entry.Position,
			EtaMinutes: entry.EtaMinutes,
		})
	}

	return &status, nil
}
