package handlers

import (
	"net/http"
	"strconv"
	"time"

	"park_queue/internal/queue"
	"park_queue/internal/response"

	"github.com/gin-gonic/gin"
)

type StartBatchRequest struct {
	Force bool `json:"force"`
}

// StartBatchHandler обрабатывает старт посадки
// @Summary		Старт посадки
// @Description	Снимает с головы очереди до capacity гостей и открывает посадку. force принудительно отменяет текущую активную посадку.
// @Tags			batch
// @Accept			json
// @Produce		json
// @Param			id		path		string				true	"ID аттракциона"
// @Param			params	body		StartBatchRequest	false	"Параметры старта"
// @Security		BearerAuth
// @Success		200	{object}	queue.StartBatchResult	"Посадка открыта"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_RIDE_ID)"
// @Failure		403	{object}	response.ErrorResponse	"Нет прав (FORBIDDEN)"
// @Failure		404	{object}	response.ErrorResponse	"Аттракцион не найден (RIDE_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Конфликт состояния (RIDE_NOT_OPEN, ACTIVE_BATCH_EXISTS, NOTHING_TO_START)"
// @Router			/api/rides/{id}/batches [post]
func StartBatchHandler(c *gin.Context) {
	rideID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RIDE_ID",
			Message: "Неверный идентификатор аттракциона",
		})
		return
	}

	var req StartBatchRequest
	// Тело опционально: без него force = false.
	_ = c.ShouldBindJSON(&req)

	result, err := queue.StartBatch(uint(rideID), actorFromContext(c), req.Force)
	if err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type EndBatchResponse struct {
	BatchID uint       `json:"batch_id"`
	EndedAt *time.Time `json:"ended_at"`
	EndedBy *uint      `json:"ended_by"`
}

// EndBatchHandler обрабатывает ручное завершение посадки
// @Summary		Завершение посадки
// @Description	Завершает активную посадку, все её записи переходят в completed
// @Tags			batch
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID посадки"
// @Security		BearerAuth
// @Success		200	{object}	EndBatchResponse		"Посадка завершена"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_BATCH_ID)"
// @Failure		403	{object}	response.ErrorResponse	"Нет прав (FORBIDDEN)"
// @Failure		404	{object}	response.ErrorResponse	"Посадка не найдена (BATCH_NOT_FOUND)"
// @Failure		409	{object}	response.ErrorResponse	"Посадка уже завершена (BATCH_NOT_ACTIVE)"
// @Router			/api/batches/{id}/end [post]
func EndBatchHandler(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_BATCH_ID",
			Message: "Неверный идентификатор посадки",
		})
		return
	}

	batch, err := queue.EndBatch(uint(batchID), actorFromContext(c))
	if err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, EndBatchResponse{
		BatchID: batch.ID,
		EndedAt: batch.EndedAt,
		EndedBy: batch.EndedBy,
	})
}
