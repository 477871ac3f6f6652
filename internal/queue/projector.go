package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/storage"

	"gorm.io/gorm"
)

// boardCacheTTL — табло опрашивается киосками с произвольной частотой,
// поэтому готовую проекцию держим в Redis пару секунд.
const boardCacheTTL = 3 * time.Second

// BoardEntry — одна строка табло.
type BoardEntry struct {
	EntryID           uint       `json:"entry_id"`
	UserID            uint       `json:"user_id"`
	Name              string     `json:"name"`
	Surname           string     `json:"surname"`
	Position          int        `json:"position"`
	EtaMinutes        int        `json:"eta_minutes"`
	EstimatedReturnAt *time.Time `json:"estimated_return_at,omitempty"`
}

// BoardBatch — активная посадка на табло.
type BoardBatch struct {
	BatchID       uint      `json:"batch_id"`
	Capacity      int       `json:"capacity"`
	StartedAt     time.Time `json:"started_at"`
	ExpectedEndAt time.Time `json:"expected_end_at"`
}

// Board — проекция очереди для табло: текущая посадка, следующая посадка и
// остальной хвост очереди. Только чтение, ничего не мутирует.
type Board struct {
	RideID        uint         `json:"ride_id"`
	RideName      string       `json:"ride_name"`
	Capacity      int          `json:"capacity"`
	CurrentBatch  []BoardEntry `json:"current_batch"`
	Batch         *BoardBatch  `json:"batch,omitempty"`
	UpcomingBatch []BoardEntry `json:"upcoming_batch"`
	Waiting       []BoardEntry `json:"waiting"`
	WaitingCount  int          `json:"waiting_count"`
}

// Project собирает табло аттракциона. Отражает сохранённое состояние на
// момент вызова; короткий Redis-кеш сглаживает частый опрос.
func Project(rideID uint) (*Board, error) {
	cacheKey := fmt.Sprintf("board:%d", rideID)
	if storage.RedisClient != nil {
		if cached, err := storage.RedisClient.Get(storage.Ctx, cacheKey).Result(); err == nil && cached != "" {
			var board Board
			if err := json.Unmarshal([]byte(cached), &board); err == nil {
				return &board, nil
			}
		}
	}

	var ride models.Ride
	if err := storage.DB.First(&ride, rideID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}

	board := Board{
		RideID:        ride.ID,
		RideName:      ride.Name,
		Capacity:      ride.Capacity,
		CurrentBatch:  []BoardEntry{},
		UpcomingBatch: []BoardEntry{},
		Waiting:       []BoardEntry{},
	}

	var batch models.Batch
	err := storage.DB.Where("ride_id = ? AND status = ?", rideID, models.BatchStatusActive).First(&batch).Error
	switch {
	case err == nil:
		board.Batch = &BoardBatch{
			BatchID:       batch.ID,
			Capacity:      batch.Capacity,
			StartedAt:     batch.StartedAt,
			ExpectedEndAt: batch.ExpectedEndAt,
		}
		var active []models.QueueEntry
		if err := storage.DB.
			Preload("User").
			Where("batch_id = ? AND status = ?", batch.ID, models.EntryStatusActive).
			Order("joined_at ASC").
			Find(&active).Error; err != nil {
			return nil, err
		}
		for _, e := range active {
			board.CurrentBatch = append(board.CurrentBatch, boardEntry(e))
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Посадки сейчас нет, табло показывает только очередь.
	default:
		return nil, err
	}

	var waiting []models.QueueEntry
	if err := storage.DB.
		Preload("User").
		Where("ride_id = ? AND status = ?", rideID, models.EntryStatusWaiting).
		Order("joined_at ASC").
		Find(&waiting).Error; err != nil {
		return nil, err
	}
	board.WaitingCount = len(waiting)
	for i, e := range waiting {
		if i < ride.Capacity {
			board.UpcomingBatch = append(board.UpcomingBatch, boardEntry(e))
		} else {
			board.Waiting = append(board.Waiting, boardEntry(e))
		}
	}

	if storage.RedisClient != nil {
		if data, err := json.Marshal(board); err == nil {
			storage.RedisClient.Set(storage.Ctx, cacheKey, data, boardCacheTTL)
		}
	}

	return &board, nil
}

func boardEntry(e models.QueueEntry) BoardEntry {
	return BoardEntry{
		EntryID:           e.ID,
		UserID:            e.UserID,
		Name:              e.User.Name,
		Surname:           e.User.Surname,
		Position:          e.Position,
		EtaMinutes:        e.EtaMinutes,
		EstimatedReturnAt: e.EstimatedReturnAt,
	}
}
