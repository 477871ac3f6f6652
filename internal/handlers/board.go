package handlers

import (
	"net/http"
	"strconv"

	"park_queue/internal/queue"
	"park_queue/internal/response"

	"github.com/gin-gonic/gin"
)

// GetBoardHandler обрабатывает запрос табло аттракциона
// @Summary		Табло аттракциона
// @Description	Текущая посадка, следующая посадка и хвост очереди. Только чтение, безопасно опрашивать с любой частотой.
// @Tags			board
// @Produce		json
// @Param			id	path		string	true	"ID аттракциона"
// @Success		200	{object}	queue.Board				"Табло"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_RIDE_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Аттракцион не найден (RIDE_NOT_FOUND)"
// @Router			/api/rides/{id}/board [get]
func GetBoardHandler(c *gin.Context) {
	rideID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RIDE_ID",
			Message: "Неверный идентификатор аттракциона",
		})
		return
	}

	board, err := queue.Project(uint(rideID))
	if err != nil {
		respondQueueError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}
