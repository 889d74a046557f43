package debuglogger

import (
	"io"
	stdlog "log"
)

func newLogger(writer io.Writer, prefix string, flags int) *Logger {
	return &Logger{
		level:  -1,
		logger: stdlog.New(writer, prefix, flags),
	}
}

func (l *Logger) enabled(level uint8) bool {
	return l.level >= 0 && int16(level) <= l.level
}
