package queue

import (
	"fmt"
	"net/http"
)

// Error — терминальная ошибка движка очереди. Движок ничего не повторяет сам:
// решение о повторной отправке остаётся за вызывающей стороной.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func notFound(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusNotFound, Message: message}
}

func forbidden(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusForbidden, Message: message}
}

func conflict(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusConflict, Message: message}
}

var (
	ErrRideNotFound  = notFound("RIDE_NOT_FOUND", "Аттракцион не найден")
	ErrUserNotFound  = notFound("USER_NOT_FOUND", "Гость не найден")
	ErrEntryNotFound = notFound("ENTRY_NOT_FOUND", "Запись в очереди не найдена")
	ErrBatchNotFound = notFound("BATCH_NOT_FOUND", "Посадка не найдена")

	ErrForbidden   = forbidden("FORBIDDEN", "Требуется роль сотрудника или администратора")
	ErrNotVerified = forbidden("USER_NOT_VERIFIED", "Гость не подтверждён")

	ErrQueueLimit        = conflict("QUEUE_LIMIT", "Гость уже состоит в максимальном числе очередей")
	ErrAlreadyQueued     = conflict("ALREADY_IN_QUEUE", "Гость уже состоит в очереди этого аттракциона")
	ErrActiveBatchExists = conflict("ACTIVE_BATCH_EXISTS", "У аттракциона уже есть активная посадка")
	ErrNothingToStart    = conflict("NOTHING_TO_START", "В очереди нет ожидающих гостей")
	ErrBatchNotActive    = conflict("BATCH_NOT_ACTIVE", "Посадка уже завершена или отменена")
	ErrEntryNotWaiting   = conflict("ENTRY_NOT_WAITING", "Запись не находится в состоянии ожидания")
	ErrEntryResolved     = conflict("ENTRY_ALREADY_RESOLVED", "Запись уже снята или завершена")
)

// rideNotOpen возвращает Conflict с текущим статусом аттракциона.
func rideNotOpen(status string) *Error {
	return conflict("RIDE_NOT_OPEN", fmt.Sprintf("Аттракцион не принимает гостей (статус: %s)", status))
}
