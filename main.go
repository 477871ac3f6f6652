package main

import (
	"fmt"
	"log"
	"os"

	_ "park_queue/docs"
	"park_queue/internal/auth"
	"park_queue/internal/handlers"
	"park_queue/internal/models"
	"park_queue/internal/queue"
	"park_queue/internal/storage"
	"park_queue/internal/tasks"
	"park_queue/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Электронная очередь аттракционов
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(&models.User{}, &models.Ride{}, &models.QueueEntry{}, &models.Batch{}); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	storage.InitRedis()

	tasks.InitScheduler()

	// Таймеры активных посадок не переживают рестарт, взводим заново.
	queue.ReArmBatchTimers()

	go ws.HubInstance.Run()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/refresh", handlers.RefreshToken)
	}

	rides := r.Group("/api/rides")
	{
		// Публичные чтения: табло и статус очереди опрашиваются киосками без токена.
		rides.GET("", handlers.ListRidesHandler)
		rides.GET("/:id", handlers.GetRideHandler)
		rides.GET("/:id/status", handlers.GetQueueStatusHandler)
		rides.GET("/:id/board", handlers.GetBoardHandler)
		rides.GET("/:id/ws", ws.RideWebSocketHandler)
	}

	rideAdmin := r.Group("/api/rides", auth.AuthMiddleware(), auth.RequireRole(models.RoleAdmin))
	{
		rideAdmin.POST("", handlers.CreateRideHandler)
		rideAdmin.PUT("/:id", handlers.UpdateRideHandler)
	}

	rideStaff := r.Group("/api/rides", auth.AuthMiddleware(), auth.RequireRole(models.RoleStaff, models.RoleAdmin))
	{
		rideStaff.POST("/:id/join", handlers.JoinQueueHandler)
		rideStaff.POST("/:id/batches", handlers.StartBatchHandler)
	}

	entries := r.Group("/api/entries", auth.AuthMiddleware(), auth.RequireRole(models.RoleStaff, models.RoleAdmin))
	{
		entries.POST("/:id/cancel", handlers.CancelEntryHandler)
		entries.POST("/:id/pushback", handlers.PushbackEntryHandler)
	}

	batches := r.Group("/api/batches", auth.AuthMiddleware(), auth.RequireRole(models.RoleStaff, models.RoleAdmin))
	{
		batches.POST("/:id/end", handlers.EndBatchHandler)
	}

	users := r.Group("/api/users", auth.AuthMiddleware(), auth.RequireRole(models.RoleAdmin))
	{
		users.POST("/:id/verify", handlers.VerifyUserHandler)
	}

	profile := r.Group("/api/profile", auth.AuthMiddleware())
	{
		profile.GET("/entries", handlers.GetMyEntriesHandler)
	}

	selfService := r.Group("/api/rides", auth.AuthMiddleware())
	{
		selfService.POST("/:id/leave", handlers.LeaveQueueHandler)
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
