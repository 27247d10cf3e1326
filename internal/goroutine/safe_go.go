package goroutine

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/mkuleshov/gigmarket-backend/internal/logger"
)

// SafeGo запускает фоновую горутину и перехватывает panic, чтобы
// отправка уведомлений не роняла весь процесс.
func SafeGo(fn func()) {
	go func() {
		defer recoverPanic()
		fn()
	}()
}

// SafeGoWithContext — то же самое, но функция получает контекст.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer recoverPanic()
		fn(ctx)
	}()
}

func recoverPanic() {
	r := recover()
	if r == nil {
		return
	}

	if logger.Log != nil {
		logger.Log.Errorf("panic в фоновой горутине: %v\n%s", r, debug.Stack())
		return
	}
	log.Printf("panic в фоновой горутине: %v\n%s", r, debug.Stack())
}
