package logger

import (
	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text включается через SetTextFormatter
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

// Setup настраивает уровень и формат логов под окружение.
func Setup(env string) {
	if env == "development" {
		Init("debug")
		SetTextFormatter()
		return
	}
	Init("info")
}

// L возвращает настроенный логгер или стандартный, если Init ещё не вызывался.
func L() *logrus.Logger {
	if Log != nil {
		return Log
	}
	return logrus.StandardLogger()
}
