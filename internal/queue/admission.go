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

// MaxActiveEntriesPerUser — сколько очередей гость может занимать одновременно
// (записи в статусах waiting/active по всем аттракционам).
const MaxActiveEntriesPerUser = 3

var inQueueStatuses = []string{models.EntryStatusWaiting, models.EntryStatusActive}

// Join ставит гостя в конец очереди аттракциона. Проверки идут строго по
// порядку, первая неудавшаяся определяет ошибку; до первой записи в базу
// операция ничего не меняет. Повторной попытки движок не делает — при ошибке
// вызывающая сторона шлёт идентичный Join заново.
func Join(rideID, userID uint, actor Actor) (*models.QueueEntry, error) {
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

		if !actor.IsStaff() {
			return ErrForbidden
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if !user.Verified {
			return ErrNotVerified
		}

		if ride.Status != models.RideStatusOpen {
			return rideNotOpen(ride.Status)
		}

		var total int64
		if err := tx.Model(&models.QueueEntry{}).
			Where("user_id = ? AND status IN ?", userID, inQueueStatuses).
			Count(&total).Error; err != nil {
			return err
		}
		if total >= MaxActiveEntriesPerUser {
			return ErrQueueLimit
		}

		var duplicate int64
		if err := tx.Model(&models.QueueEntry{}).
			Where("ride_id = ? AND user_id = ? AND status IN ?", rideID, userID, inQueueStatuses).
			Count(&duplicate).Error; err != nil {
			return err
		}
		if duplicate > 0 {
			return ErrAlreadyQueued
		}

		var waiting int64
		if err := tx.Model(&models.QueueEntry{}).
			Where("ride_id = ? AND status = ?", rideID, models.EntryStatusWaiting).
			Count(&waiting).Error; err != nil {
			return err
		}

		now := time.Now()
		position := int(waiting) + 1
		eta := etaMinutes(position, ride.Capacity, ride.DurationMinutes)
		returnAt := now.Add(time.Duration(eta) * time.Minute)

		entry = models.QueueEntry{
			RideID:            rideID,
			UserID:            userID,
			Status:            models.EntryStatusWaiting,
			Position:          position,
			JoinedAt:          now,
			EtaMinutes:        eta,
			EstimatedReturnAt: &returnAt,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackQueueOperation("join", rideID)
	ws.HubInstance.BroadcastWSMessage(ws.WSMessage{
		EventType: "user_joined",
		RideID:    rideID,
		Data: map[string]interface{}{
			"user_id":  userID,
			"position": entry.Position,
			"eta":      entry.EtaMinutes,
		},
	})

	return &entry, nil
}
