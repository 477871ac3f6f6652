package queue

import (
	"testing"

	"park_queue/internal/models"
	"park_queue/internal/storage"

	"github.com/stretchr/testify/assert"
)

func TestStartBatchTakesHeadOfQueue(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 3, 10)

	guests := make([]models.User, 5)
	for i := range guests {
		guests[i] = createGuest(t, true)
		_, err := Join(ride.ID, guests[i].ID, staff)
		assert.NoError(t, err)
	}

	result, err := StartBatch(ride.ID, staff, false)
	assert.NoError(t, err)
	assert.Equal(t, 3, result.MovedCount)
	assert.Equal(t, models.BatchStatusActive, result.Batch.Status)
	assert.Equal(t, 3, result.Batch.Capacity)
	assert.Equal(t, staff.ID, result.Batch.StartedBy)

	// Уехали первые трое по времени входа.
	for i, moved := range result.Moved {
		assert.Equal(t, guests[i].ID, moved.UserID)
		assert.Equal(t, models.EntryStatusActive, moved.Status)
		assert.NotNil(t, moved.BatchID)
	}

	// Оставшиеся двое перенумерованы с головы.
	assert.Equal(t, []int{1, 2}, waitingPositions(t, ride.ID))
	var tail []models.QueueEntry
	err = storage.DB.
		Where("ride_id = ? AND status = ?", ride.ID, models.EntryStatusWaiting).
		Order("joined_at ASC").
		Find(&tail).Error
	assert.NoError(t, err)
	assert.Equal(t, guests[3].ID, tail[0].UserID)
	assert.Equal(t, 0, tail[0].EtaMinutes)
	assert.Equal(t, 0, tail[1].EtaMinutes)
}

func TestStartBatchConflictsAndForce(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)

	// Пустая очередь — стартовать нечего.
	_, err := StartBatch(ride.ID, staff, false)
	assert.ErrorIs(t, err, ErrNothingToStart)

	for i := 0; i < 3; i++ {
		guest := createGuest(t, true)
		_, err := Join(ride.ID, guest.ID, staff)
		assert.NoError(t, err)
	}

	first, err := StartBatch(ride.ID, staff, false)
	assert.NoError(t, err)

	// Вторая посадка без force — конфликт.
	_, err = StartBatch(ride.ID, staff, false)
	assert.ErrorIs(t, err, ErrActiveBatchExists)

	// С force старая посадка отменяется, её гости теряют место.
	second, err := StartBatch(ride.ID, staff, true)
	assert.NoError(t, err)
	assert.NotEqual(t, first.Batch.ID, second.Batch.ID)
	assert.Equal(t, 1, second.MovedCount)

	var old models.Batch
	assert.NoError(t, storage.DB.First(&old, first.Batch.ID).Error)
	assert.Equal(t, models.BatchStatusCancelled, old.Status)
	assert.NotNil(t, old.EndedAt)

	var displaced []models.QueueEntry
	err = storage.DB.
		Where("ride_id = ? AND status = ?", ride.ID, models.EntryStatusCancelled).
		Find(&displaced).Error
	assert.NoError(t, err)
	assert.Len(t, displaced, 2, "Оба гостя отменённой посадки должны быть сняты")
	for _, e := range displaced {
		assert.Nil(t, e.BatchID)
		assert.Equal(t, staff.ID, *e.RemovedBy)
	}
}

func TestEndBatchCompletesEntries(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)

	for i := 0; i < 3; i++ {
		guest := createGuest(t, true)
		_, err := Join(ride.ID, guest.ID, staff)
		assert.NoError(t, err)
	}

	result, err := StartBatch(ride.ID, staff, false)
	assert.NoError(t, err)

	batch, err := EndBatch(result.Batch.ID, staff)
	assert.NoError(t, err)
	assert.Equal(t, models.BatchStatusCompleted, batch.Status)
	assert.NotNil(t, batch.EndedAt)
	assert.Equal(t, staff.ID, *batch.EndedBy)

	var completed []models.QueueEntry
	err = storage.DB.
		Where("ride_id = ? AND status = ?", ride.ID, models.EntryStatusCompleted).
		Find(&completed).Error
	assert.NoError(t, err)
	assert.Len(t, completed, 2)
	for _, e := range completed {
		assert.Nil(t, e.BatchID, "batch_id должен быть очищен при завершении")
		assert.NotNil(t, e.EndedAt)
	}

	// Оставшийся в очереди стал первым.
	assert.Equal(t, []int{1}, waitingPositions(t, ride.ID))

	// Повторное завершение — конфликт.
	_, err = EndBatch(result.Batch.ID, staff)
	assert.ErrorIs(t, err, ErrBatchNotActive)
}

func TestCompleteExpiredBatchIdempotent(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)

	guest := createGuest(t, true)
	_, err := Join(ride.ID, guest.ID, staff)
	assert.NoError(t, err)

	result, err := StartBatch(ride.ID, staff, false)
	assert.NoError(t, err)

	// Авто-завершение по таймеру.
	assert.NoError(t, CompleteExpiredBatch(result.Batch.ID))

	var batch models.Batch
	assert.NoError(t, storage.DB.First(&batch, result.Batch.ID).Error)
	assert.Equal(t, models.BatchStatusCompleted, batch.Status)
	assert.Nil(t, batch.EndedBy, "Авто-завершение идёт без актора")

	// Повторный срабатывание таймера и несуществующая посадка — тихие no-op.
	assert.NoError(t, CompleteExpiredBatch(result.Batch.ID))
	assert.NoError(t, CompleteExpiredBatch(missingID))
}

func TestProjectBoard(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)

	for i := 0; i < 5; i++ {
		guest := createGuest(t, true)
		_, err := Join(ride.ID, guest.ID, staff)
		assert.NoError(t, err)
	}

	// До старта посадки: текущей нет, следующая — первые двое, хвост — трое.
	board, err := Project(ride.ID)
	assert.NoError(t, err)
	assert.Nil(t, board.Batch)
	assert.Len(t, board.CurrentBatch, 0)
	assert.Len(t, board.UpcomingBatch, 2)
	assert.Len(t, board.Waiting, 3)
	assert.Equal(t, 5, board.WaitingCount)

	_, err = StartBatch(ride.ID, staff, false)
	assert.NoError(t, err)

	board, err = Project(ride.ID)
	assert.NoError(t, err)
	assert.NotNil(t, board.Batch)
	assert.Len(t, board.CurrentBatch, 2)
	assert.Len(t, board.UpcomingBatch, 2)
	assert.Len(t, board.Waiting, 1)
	assert.Equal(t, 3, board.WaitingCount)
	assert.Equal(t, 1, board.UpcomingBatch[0].Position)

	_, err = Project(missingID)
	assert.ErrorIs(t, err, ErrRideNotFound)
}
