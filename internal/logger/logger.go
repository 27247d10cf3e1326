package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Log — общий логгер приложения. До вызова Init равен nil.
var Log *logrus.Logger

// Init настраивает уровень и JSON-формат логов.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
}

// SetTextFormatter переключает вывод на человекочитаемый текст.
// Используется вне production.
func SetTextFormatter() {
	if Log == nil {
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}
