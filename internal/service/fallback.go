package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aahara/rescue-backend/internal/goroutine"
)

// FallbackScheduler хранит отложенные одноразовые задачи, привязанные к
// заказу. Задача должна быть идемпотентной и перечитывать актуальное
// состояние заказа в момент срабатывания: Cancel лишь убирает таймер,
// гонка с уже запущенной задачей безопасна.
type FallbackScheduler struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// NewFallbackScheduler создаёт новый планировщик.
func NewFallbackScheduler() *FallbackScheduler {
	return &FallbackScheduler{
		timers: make(map[uuid.UUID]*time.Timer),
	}
}

// Schedule ставит задачу для заказа. Повторный вызов для того же заказа
// заменяет предыдущий таймер.
func (s *FallbackScheduler) Schedule(orderID uuid.UUID, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[orderID]; ok {
		existing.Stop()
	}

	s.timers[orderID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, orderID)
		s.mu.Unlock()

		goroutine.SafeGo(fn)
	})
}

// Cancel снимает таймер заказа, если он ещё не сработал.
func (s *FallbackScheduler) Cancel(orderID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[orderID]; ok {
		timer.Stop()
		delete(s.timers, orderID)
	}
}

// Pending сообщает, запланирована ли задача для заказа.
func (s *FallbackScheduler) Pending(orderID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[orderID]
	return ok
}
