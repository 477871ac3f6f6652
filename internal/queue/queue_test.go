package queue

import (
	"testing"

	"park_queue/internal/models"
	"park_queue/internal/storage"

	"github.com/stretchr/testify/assert"
)

func TestEtaMinutes(t *testing.T) {
	// Вместимость 2, посадка 10 минут: первая двойка ждёт 0, вторая 10, третья 20.
	assert.Equal(t, 0, etaMinutes(1, 2, 10))
	assert.Equal(t, 0, etaMinutes(2, 2, 10))
	assert.Equal(t, 10, etaMinutes(3, 2, 10))
	assert.Equal(t, 10, etaMinutes(4, 2, 10))
	assert.Equal(t, 20, etaMinutes(5, 2, 10))

	// Вместимость 1 — каждый ждёт полную посадку предыдущих.
	assert.Equal(t, 0, etaMinutes(1, 1, 5))
	assert.Equal(t, 20, etaMinutes(5, 1, 5))

	// Некорректная вместимость не роняет расчёт.
	assert.Equal(t, 0, etaMinutes(1, 0, 5))
}

func TestJoinAssignsPositionsAndETA(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)

	expectedETAs := []int{0, 0, 10, 10}
	for i := 0; i < 4; i++ {
		guest := createGuest(t, true)
		entry, err := Join(ride.ID, guest.ID, staff)
		assert.NoError(t, err, "Гость не смог встать в очередь")
		assert.Equal(t, i+1, entry.Position)
		assert.Equal(t, expectedETAs[i], entry.EtaMinutes)
		assert.NotNil(t, entry.EstimatedReturnAt)
	}

	assert.Equal(t, []int{1, 2, 3, 4}, waitingPositions(t, ride.ID))
}

func TestJoinPreconditions(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)
	guest := createGuest(t, true)

	// Несуществующий аттракцион проверяется раньше прав вызывающего.
	_, err := Join(missingID, guest.ID, Actor{ID: guest.ID, Role: models.RoleGuest})
	assert.ErrorIs(t, err, ErrRideNotFound)

	// Гость сам себя в очередь не ставит.
	_, err = Join(ride.ID, guest.ID, Actor{ID: guest.ID, Role: models.RoleGuest})
	assert.ErrorIs(t, err, ErrForbidden)

	// Неподтверждённый гость не проходит.
	unverified := createGuest(t, false)
	_, err = Join(ride.ID, unverified.ID, staff)
	assert.ErrorIs(t, err, ErrNotVerified)

	// Закрытый аттракцион — конфликт с текущим статусом.
	closed := createRide(t, 2, 10)
	storage.DB.Model(&closed).Update("status", models.RideStatusMaintenance)
	_, err = Join(closed.ID, guest.ID, staff)
	var qerr *Error
	assert.ErrorAs(t, err, &qerr)
	assert.Equal(t, "RIDE_NOT_OPEN", qerr.Code)
}

func TestJoinDuplicateRejected(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)
	guest := createGuest(t, true)

	_, err := Join(ride.ID, guest.ID, staff)
	assert.NoError(t, err)

	_, err = Join(ride.ID, guest.ID, staff)
	assert.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestJoinGlobalLimit(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	guest := createGuest(t, true)

	// Третья очередь ещё проходит, четвёртая — уже нет.
	for i := 0; i < MaxActiveEntriesPerUser; i++ {
		ride := createRide(t, 2, 10)
		_, err := Join(ride.ID, guest.ID, staff)
		assert.NoError(t, err, "Вступление в очередь №%d должно проходить", i+1)
	}

	ride := createRide(t, 2, 10)
	_, err := Join(ride.ID, guest.ID, staff)
	assert.ErrorIs(t, err, ErrQueueLimit)
}

func TestLeaveRenumbersQueue(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)

	guests := make([]models.User, 3)
	for i := range guests {
		guests[i] = createGuest(t, true)
		_, err := Join(ride.ID, guests[i].ID, staff)
		assert.NoError(t, err)
	}

	// Уходит средний, остальные сдвигаются без дыр.
	entry, err := Leave(ride.ID, guests[1].ID)
	assert.NoError(t, err)
	assert.Equal(t, models.EntryStatusCancelled, entry.Status)
	assert.NotNil(t, entry.RemovedAt)
	assert.Equal(t, guests[1].ID, *entry.RemovedBy)

	assert.Equal(t, []int{1, 2}, waitingPositions(t, ride.ID))

	// Повторный выход — записи в ожидании больше нет.
	_, err = Leave(ride.ID, guests[1].ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestCancelByStaffTwiceConflicts(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)
	guest := createGuest(t, true)

	entry, err := Join(ride.ID, guest.ID, staff)
	assert.NoError(t, err)

	cancelled, err := CancelByStaff(entry.ID, staff)
	assert.NoError(t, err)
	assert.Equal(t, models.EntryStatusCancelled, cancelled.Status)
	assert.Equal(t, staff.ID, *cancelled.RemovedBy)

	_, err = CancelByStaff(entry.ID, staff)
	assert.ErrorIs(t, err, ErrEntryResolved)

	// Не сотрудник снимать записи не может.
	_, err = CancelByStaff(entry.ID, Actor{ID: guest.ID, Role: models.RoleGuest})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPushbackMovesToTail(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 2, 10)

	var first models.QueueEntry
	for i := 0; i < 4; i++ {
		guest := createGuest(t, true)
		entry, err := Join(ride.ID, guest.ID, staff)
		assert.NoError(t, err)
		if i == 0 {
			first = *entry
		}
	}

	moved, err := Pushback(first.ID, staff)
	assert.NoError(t, err)
	assert.Equal(t, 4, moved.Position, "Первый должен оказаться последним")
	assert.Equal(t, 10, moved.EtaMinutes)

	assert.Equal(t, []int{1, 2, 3, 4}, waitingPositions(t, ride.ID))

	// Pushback активной записи не бывает.
	_, err = StartBatch(ride.ID, staff, false)
	assert.NoError(t, err)
	var active models.QueueEntry
	err = storage.DB.Where("ride_id = ? AND status = ?", ride.ID, models.EntryStatusActive).First(&active).Error
	assert.NoError(t, err)
	_, err = Pushback(active.ID, staff)
	assert.ErrorIs(t, err, ErrEntryNotWaiting)
}

func TestStatusSummary(t *testing.T) {
	setupTestDB(t)
	staff := createStaff(t)
	ride := createRide(t, 3, 5)

	for i := 0; i < 5; i++ {
		guest := createGuest(t, true)
		_, err := Join(ride.ID, guest.ID, staff)
		assert.NoError(t, err)
	}

	status, err := Status(ride.ID, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), status.WaitingCount)
	assert.Len(t, status.Next, 3)
	assert.Equal(t, 1, status.Next[0].Position)
	assert.Equal(t, 3, status.Next[2].Position)

	_, err = Status(missingID, 3)
	assert.ErrorIs(t, err, ErrRideNotFound)
}
