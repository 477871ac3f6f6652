package monitoring

import (
	"fmt"
	"strconv"

	"park_queue/internal/models"
	"park_queue/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations per ride",
		},
		[]string{"operation", "ride_id"},
	)

	batchesStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batches_started_total",
			Help: "Total batches started per ride",
		},
		[]string{"ride_id", "forced"},
	)

	batchesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batches_completed_total",
			Help: "Total batches completed per ride",
		},
		[]string{"ride_id", "reason"},
	)

	waitingGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queue_waiting_total",
			Help: "Current number of waiting guests per ride",
		},
		[]string{"ride_id"},
	)
)

// TrackQueueOperation учитывает операцию над очередью (join, leave, cancel, pushback).
func TrackQueueOperation(operation string, rideID uint) {
	queueOperations.WithLabelValues(operation, strconv.Itoa(int(rideID))).Inc()
}

// TrackBatchStarted учитывает старт посадки.
func TrackBatchStarted(rideID uint, forced bool) {
	batchesStarted.WithLabelValues(strconv.Itoa(int(rideID)), fmt.Sprintf("%t", forced)).Inc()
}

// TrackBatchCompleted учитывает завершение посадки (manual или expired).
func TrackBatchCompleted(rideID uint, reason string) {
	batchesCompleted.WithLabelValues(strconv.Itoa(int(rideID)), reason).Inc()
}

// CollectWaitingCounts обновляет gauge числа ожидающих по всем аттракционам.
// Вызывается планировщиком раз в минуту.
func CollectWaitingCounts() {
	type row struct {
		RideID uint
		Count  int64
	}
	var rows []row
	if err := storage.DB.Model(&models.QueueEntry{}).
		Select("ride_id, count(*) as count").
		Where("status = ?", models.EntryStatusWaiting).
		Group("ride_id").
		Scan(&rows).Error; err != nil {
		return
	}
	for _, r := range rows {
		waitingGauge.WithLabelValues(strconv.Itoa(int(r.RideID))).Set(float64(r.Count))
	}
}
