package handlers

import (
	"net/http"
	"strconv"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/queue"
	"park_queue/internal/response"
	"park_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

// Сколько ближайших записей отдаёт статус очереди.
const statusNextLimit = 10

type JoinQueueRequest struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

type JoinQueueResponse struct {
	EntryID           uint       `json:"entry_id"`
	Position          int        `json:"position"`
	EtaMinutes        int        `json:"eta_minutes"`
	EstimatedReturnAt *time.Time `json:"estimated_return_at"`
}

// JoinQueueHandler обрабатывает постановку гостя в очередь сотрудником
// @Summary		Постановка гостя в очередь
// @Description	Сотрудник ставит гостя в очередь аттракциона по user_id или email
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id		path		string				true	"ID аттракциона"
// @Param			guest	body		JoinQueueRequest	true	"Гость (user_id или email)"
// @Security		BearerAuth
// @Success		200	{object}	JoinQueueResponse		"Гость поставлен в очередь"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_RIDE_ID, INVALID_INPUT)"
// @Failure		403	{object}	response.ErrorResponse	"Нет прав или гость не подтверждён (FORBIDDEN, USER_NOT_VERIFIED)"
// @Failure		404	{object}	response.ErrorResponse	"Аттракцион или гость не найден (RIDE_NOT_FOUND, USER_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Конфликт состояния (RIDE_NOT_OPEN, QUEUE_LIMIT, ALREADY_IN_QUEUE)"
// @Router			/api/rides/{id}/join [post]
func JoinQueueHandler(c *gin.Context) {
	rideID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RIDE_ID",
			Message: "Неверный идентификатор аттракциона",
		})
		return
	}

	var req JoinQueueRequest
	if err := c.ShouldBindJSON(&req); err != nil || (req.UserID == 0 && req.Email == "") {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_INPUT",
			Message: "Нужно указать user_id или email гостя",
		})
		return
	}

	userID := req.UserID
	if userID == 0 {
		// Киоск сотрудника присылает email гостя, резолвим его в user_id.
		var user models.User
		if err := storage.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "USER_NOT_FOUND",
				Message: "Гость с таким email не найден",
			})
			return
		}
		userID = user.ID
	}

	entry, err := queue.Join(uint(rideID), userID, actorFromContext(c))
	if err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, JoinQueueResponse{
		EntryID:           entry.ID,
		Position:          entry.Position,
		EtaMinutes:        entry.EtaMinutes,
		EstimatedReturnAt: entry.EstimatedReturnAt,
	})
}

// LeaveQueueHandler обрабатывает добровольный выход гостя из очереди
// @Summary		Выход из очереди
// @Description	Гость снимает собственную запись в очереди аттракциона
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID аттракциона"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Успешный выход из очереди"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (INVALID_RIDE_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse		"Запись уже не в ожидании (ENTRY_NOT_WAITING)"
// @Router			/api/rides/{id}/leave [post]
func LeaveQueueHandler(c *gin.Context) {
	rideID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RIDE_ID",
			Message: "Неверный идентификатор аттракциона",
		})
		return
	}

	userID := c.GetUint("userID")
	if _, err := queue.Leave(uint(rideID), userID); err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Вы успешно вышли из очереди"})
}

type CancelEntryResponse struct {
	EntryID   uint       `json:"entry_id"`
	RemovedBy *uint      `json:"removed_by"`
	RemovedAt *time.Time `json:"removed_at"`
}

// CancelEntryHandler обрабатывает снятие записи сотрудником
// @Summary		Снятие записи сотрудником
// @Description	Сотрудник снимает запись гостя (в том числе из активной посадки)
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID записи"
// @Security		BearerAuth
// @Success		200	{object}	CancelEntryResponse		"Запись снята"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ENTRY_ID)"
// @Failure		403	{object}	response.ErrorResponse	"Нет прав (FORBIDDEN)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Запись уже снята или завершена (ENTRY_ALREADY_RESOLVED)"
// @Router			/api/entries/{id}/cancel [post]
func CancelEntryHandler(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи",
		})
		return
	}

	entry, err := queue.CancelByStaff(uint(entryID), actorFromContext(c))
	if err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, CancelEntryResponse{
		EntryID:   entry.ID,
		RemovedBy: entry.RemovedBy,
		RemovedAt: entry.RemovedAt,
	})
}

type PushbackResponse struct {
	EntryID    uint `json:"entry_id"`
	Position   int  `json:"position"`
	EtaMinutes int  `json:"eta_minutes"`
}

// PushbackEntryHandler обрабатывает перенос гостя в конец очереди
// @Summary		Перенос в конец очереди
// @Description	Сотрудник переносит пропустившего вызов гостя в конец очереди
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID записи"
// @Security		BearerAuth
// @Success		200	{object}	PushbackResponse		"Гость перенесён в конец очереди"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_ENTRY_ID)"
// @Failure		403	{object}	response.ErrorResponse	"Нет прав (FORBIDDEN)"
// @Failure		404	{object}	response.ErrorResponse	"Запись не найдена (ENTRY_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Запись не в ожидании (ENTRY_NOT_WAITING)"
// @Router			/api/entries/{id}/pushback [post]
func PushbackEntryHandler(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи",
		})
		return
	}

	entry, err := queue.Pushback(uint(entryID), actorFromContext(c))
	if err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, PushbackResponse{
		EntryID:    entry.ID,
		Position:   entry.Position,
		EtaMinutes: entry.EtaMinutes,
	})
}

// GetQueueStatusHandler обрабатывает запрос на получение статуса очереди
// @Summary		Статус очереди
// @Description	Возвращает число ожидающих и ближайшие записи очереди аттракциона
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID аттракциона"
// @Success		200	{object}	queue.QueueStatus		"Статус очереди"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_RIDE_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Аттракцион не найден (RIDE_NOT_FOUND)"
// @Router			/api/rides/{id}/status [get]
func GetQueueStatusHandler(c *gin.Context) {
	rideID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RIDE_ID",
			Message: "Неверный идентификатор аттракциона",
		})
		return
	}

	status, err := queue.Status(uint(rideID), statusNextLimit)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
