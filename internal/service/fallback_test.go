package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFallbackSchedulerFires(t *testing.T) {
	scheduler := NewFallbackScheduler()
	orderID := uuid.New()

	fired := make(chan struct{})
	scheduler.Schedule(orderID, 10*time.Millisecond, func() {
		close(fired)
	})

	assert.True(t, scheduler.Pending(orderID))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("таймер не сработал")
	}

	assert.Eventually(t, func() bool {
		return !scheduler.Pending(orderID)
	}, time.Second, 10*time.Millisecond)
}

func TestFallbackSchedulerCancel(t *testing.T) {
	scheduler := NewFallbackScheduler()
	orderID := uuid.New()

	var fired atomic.Bool
	scheduler.Schedule(orderID, 30*time.Millisecond, func() {
		fired.Store(true)
	})
	scheduler.Cancel(orderID)

	assert.False(t, scheduler.Pending(orderID))

	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired.Load(), "отменённый таймер не должен срабатывать")
}

func TestFallbackSchedulerReplaces(t *testing.T) {
	scheduler := NewFallbackScheduler()
	orderID := uuid.New()

	var first, second atomic.Bool
	scheduler.Schedule(orderID, 30*time.Millisecond, func() {
		first.Store(true)
	})
	scheduler.Schedule(orderID, 10*time.Millisecond, func() {
		second.Store(true)
	})

	time.Sleep(150 * time.Millisecond)

	assert.False(t, first.Load(), "заменённый таймер не должен срабатывать")
	assert.True(t, second.Load())
}

func TestFallbackSchedulerIndependentOrders(t *testing.T) {
	scheduler := NewFallbackScheduler()
	first := uuid.New()
	second := uuid.New()

	var fired atomic.Int32
	scheduler.Schedule(first, 10*time.Millisecond, func() {
		fired.Add(1)
	})
	scheduler.Schedule(second, 10*time.Millisecond, func() {
		fired.Add(1)
	})
	scheduler.Cancel(first)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}
