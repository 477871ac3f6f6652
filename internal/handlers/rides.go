package handlers

import (
	"net/http"
	"strconv"

	"park_queue/internal/models"
	"park_queue/internal/response"
	"park_queue/internal/storage"

	"github.com/gin-gonic/gin"
)

type CreateRideRequest struct {
	Name            string `json:"name" binding:"required"`
	Capacity        int    `json:"capacity" binding:"required,min=1"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1"`
}

// CreateRideHandler обрабатывает создание аттракциона
// @Summary		Создание аттракциона
// @Description	Администратор заводит аттракцион с вместимостью и длительностью посадки
// @Tags			rides
// @Accept			json
// @Produce		json
// @Param			ride	body		CreateRideRequest	true	"Параметры аттракциона"
// @Security		BearerAuth
// @Success		201	{object}	models.Ride				"Аттракцион создан"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/rides [post]
func CreateRideHandler(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	ride := models.Ride{
		Name:            req.Name,
		Capacity:        req.Capacity,
		DurationMinutes: req.DurationMinutes,
		Status:          models.RideStatusOpen,
	}
	if err := storage.DB.Create(&ride).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании аттракциона",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, ride)
}

type UpdateRideRequest struct {
	Name            *string `json:"name"`
	Capacity        *int    `json:"capacity"`
	DurationMinutes *int    `json:"duration_minutes"`
	Status          *string `json:"status"`
}

// UpdateRideHandler обрабатывает изменение аттракциона
// @Summary		Изменение аттракциона
// @Description	Администратор меняет параметры или статус аттракциона. Вместимость и длительность движок перечитывает на каждой операции, так что очередь подстроится сама.
// @Tags			rides
// @Accept			json
// @Produce		json
// @Param			id		path		string				true	"ID аттракциона"
// @Param			ride	body		UpdateRideRequest	true	"Изменяемые поля"
// @Security		BearerAuth
// @Success		200	{object}	models.Ride				"Аттракцион обновлён"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_RIDE_ID, VALIDATION_ERROR)"
// @Failure		404	{object}	response.ErrorResponse	"Аттракцион не найден (RIDE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/rides/{id} [put]
func UpdateRideHandler(c *gin.Context) {
	rideID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RIDE_ID",
			Message: "Неверный идентификатор аттракциона",
		})
		return
	}

	var ride models.Ride
	if err := storage.DB.First(&ride, rideID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "RIDE_NOT_FOUND",
			Message: "Аттракцион не найден",
		})
		return
	}

	var req UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	if req.Name != nil {
		ride.Name = *req.Name
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Вместимость должна быть не меньше 1",
			})
			return
		}
		ride.Capacity = *req.Capacity
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes < 1 {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Длительность должна быть не меньше 1 минуты",
			})
			return
		}
		ride.DurationMinutes = *req.DurationMinutes
	}
	if req.Status != nil {
		switch *req.Status {
		case models.RideStatusOpen, models.RideStatusClosed, models.RideStatusMaintenance:
			ride.Status = *req.Status
		default:
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Недопустимый статус аттракциона",
			})
			return
		}
	}

	if err := storage.DB.Save(&ride).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при обновлении аттракциона",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ride)
}

// ListRidesHandler обрабатывает запрос списка аттракционов
// @Summary		Список аттракционов
// @Tags			rides
// @Produce		json
// @Success		200	{array}		models.Ride				"Список аттракционов"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/rides [get]
func ListRidesHandler(c *gin.Context) {
	var rides []models.Ride
	if err := storage.DB.Order("id ASC").Find(&rides).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки аттракционов",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, rides)
}

// GetRideHandler обрабатывает запрос одного аттракциона
// @Summary		Аттракцион по ID
// @Tags			rides
// @Produce		json
// @Param			id	path		string	true	"ID аттракциона"
// @Success		200	{object}	models.Ride				"Аттракцион"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (INVALID_RIDE_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Аттракцион не найден (RIDE_NOT_FOUND)"
// @Router			/api/rides/{id} [get]
func GetRideHandler(c *gin.Context) {
	rideID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_RIDE_ID",
			Message: "Неверный идентификатор аттракциона",
		})
		return
	}

	var ride models.Ride
	if err := storage.DB.First(&ride, rideID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "RIDE_NOT_FOUND",
			Message: "Аттракцион не найден",
		})
		return
	}
	c.JSON(http.StatusOK, ride)
}
