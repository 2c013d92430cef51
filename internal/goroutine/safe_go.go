package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/aahara/rescue-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic. Используется для фоновой
// работы движка (диспетчеризация, отложенные задачи, рассылка уведомлений),
// падение которой не должно ронять процесс.
func SafeGo(fn func()) {
	go func() {
		defer recoverPanic()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer recoverPanic()
		fn(ctx)
	}()
}

func recoverPanic() {
	if r := recover(); r != nil {
		if logger.Log != nil {
			logger.Log.Errorf("panic в горутине: %v\n%s", r, debug.Stack())
		}
	}
}
