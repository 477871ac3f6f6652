package handlers

import (
	"errors"
	"net/http"

	"park_queue/internal/queue"
	"park_queue/internal/response"

	"github.com/gin-gonic/gin"
)

// respondQueueError переводит типизированную ошибку движка очереди в HTTP-ответ.
// Всё, что движком не классифицировано — ошибка сервера (DB_ERROR).
func respondQueueError(c *gin.Context, err error) {
	var qerr *queue.Error
	if errors.As(err, &qerr) {
		c.JSON(qerr.Status, response.ErrorResponse{
			Code:    qerr.Code,
			Message: qerr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, response.ErrorResponse{
		Code:    "DB_ERROR",
		Message: "Внутренняя ошибка сервера",
		Details: err.Error(),
	})
}

// actorFromContext собирает идентичность вызывающего из контекста gin
// (заполняется auth-middleware или тестовой заглушкой).
func actorFromContext(c *gin.Context) queue.Actor {
	return queue.Actor{
		ID:   c.GetUint("userID"),
		Role: c.GetString("role"),
	}
}
