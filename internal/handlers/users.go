package handlers

import (
	"net/http"
	"strconv"
	"time"

	"park_queue/internal/models"
	"park_queue/internal/response"
	"park_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

// VerifyUserHandler обрабатывает подтверждение гостя администратором
// @Summary		Подтверждение гостя
// @Description	Администратор отмечает гостя как подтверждённого; только подтверждённые гости встают в очереди
// @Tags			users
// @Produce		json
// @Param			id	path		string	true	"ID гостя"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Гость подтверждён"
// @Failure		400	{object}	response.ErrorResponse		"Ошибка валидации (INVALID_USER_ID)"
// @Failure		404	{object}	response.ErrorResponse		"Гость не найден (USER_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse		"Ошибка сервера (DB_ERROR)"
// @Router			/api/users/{id}/verify [post]
func VerifyUserHandler(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_USER_ID",
			Message: "Неверный идентификатор гостя",
		})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "Гость не найден",
		})
		return
	}

	user.Verified = true
	if err := storage.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при подтверждении гостя",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Гость подтверждён"})
}

// UserEntryItem — запись гостя в одной из очередей.
type UserEntryItem struct {
	EntryID           uint       `json:"entry_id"`
	RideID            uint       `json:"ride_id"`
	RideName          string     `json:"ride_name"`
	Status            string     `json:"status"`
	Position          int        `json:"position"`
	EtaMinutes        int        `json:"eta_minutes"`
	EstimatedReturnAt *time.Time `json:"estimated_return_at,omitempty"`
	JoinedAt          time.Time  `json:"joined_at"`
}

// GetMyEntriesHandler обрабатывает запрос гостем своих очередей
// @Summary		Мои очереди
// @Description	Возвращает waiting/active записи гостя по всем аттракционам
// @Tags			profile
// @Produce		json
// @Security		BearerAuth
// @Success		200	{array}		UserEntryItem			"Записи гостя"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/profile/entries [get]
func GetMyEntriesHandler(c *gin.Context) {
	userID := c.GetUint("userID")

	var entries []models.QueueEntry
	if err := storage.DB.
		Preload("Ride").
		Where("user_id = ? AND status IN ?", userID, []string{models.EntryStatusWaiting, models.EntryStatusActive}).
		Order("joined_at ASC").
		Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки записей гостя",
			Details: err.Error(),
		})
		return
	}

	result := make([]UserEntryItem, 0, len(entries))
	for _, entry := range entries {
		result = append(result, UserEntryItem{
			EntryID:           entry.ID,
			RideID:            entry.RideID,
			RideName:          entry.Ride.Name,
			Status:            entry.Status,
			Position:          entry.Position,
			EtaMinutes:        entry.EtaMinutes,
			EstimatedReturnAt: entry.EstimatedReturnAt,
			JoinedAt:          entry.JoinedAt,
		})
	}

	c.JSON(http.StatusOK, result)
}
