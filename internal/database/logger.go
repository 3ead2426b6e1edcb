package database

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// zapWriter feeds gorm's formatted log lines into a zap logger.
type zapWriter struct {
	log   *zap.SugaredLogger
	debug bool
}

func (w zapWriter) Printf(format string, args ...any) {
	if w.debug {
		w.log.Debugf(format, args...)
		return
	}
	w.log.Warnf(format, args...)
}

// NewLogger builds a gorm logger on top of log. Misses (gorm.ErrRecordNotFound)
// are expected on lookups and are not logged, and SQL is logged with
// placeholders so bound values such as email addresses never reach the log.
// debug also traces every statement.
func NewLogger(log *zap.SugaredLogger, debug bool) logger.Interface {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(zapWriter{log: log, debug: debug}, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
		Colorful:                  false,
	})
}
