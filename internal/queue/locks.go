package queue

import "sync"

// Единица взаимного исключения — очередь одного аттракциона: все мутации
// (вступление, выход, снятие, pushback, старт и завершение посадки, включая
// фоновое авто-завершение) для одного rideID выполняются под одним мьютексом.
// Очереди разных аттракционов друг с другом не конкурируют.
var rideLocks sync.Map

func lockRide(rideID uint) *sync.Mutex {
	mu, _ := rideLocks.LoadOrStore(rideID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
