package debuglogger

import (
	"io"
	stdlog "log"
)

type Logger struct {
	level  int16
	logger *stdlog.Logger
}

// New creates a Logger which writes to writer. Debug messages are discarded
// until SetLevel is called with a non-negative level.
func New(writer io.Writer, prefix string, flags int) *Logger {
	return newLogger(writer, prefix, flags)
}

// Upgrade wraps an existing standard logger.
func Upgrade(logger *stdlog.Logger) *Logger {
	return &Logger{level: -1, logger: logger}
}

// SetLevel sets the maximum debug level which is logged. A negative level
// disables debug messages.
func (l *Logger) SetLevel(maxLevel int16) {
	l.level = maxLevel
}

func (l *Logger) Debug(level uint8, v ...interface{}) {
	if l.enabled(level) {
		l.logger.Print(v...)
	}
}

func (l *Logger) Debugf(level uint8, format string, v ...interface{}) {
	if l.enabled(level) {
		l.logger.Printf(format, v...)
	}
}

func (l *Logger) Debugln(level uint8, v ...interface{}) {
	if l.enabled(level) {
		l.logger.Println(v...)
	}
}

func (l *Logger) Fatal(v ...interface{}) { l.logger.Fatal(v...) }

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatalf(format, v...)
}

func (l *Logger) Fatalln(v ...interface{}) { l.logger.Fatalln(v...) }

func (l *Logger) Panic(v ...interface{}) { l.logger.Panic(v...) }

func (l *Logger) Panicf(format string, v ...interface{}) {
	l.logger.Panicf(format, v...)
}

func (l *Logger) Panicln(v ...interface{}) { l.logger.Panicln(v...) }

func (l *Logger) Print(v ...interface{}) { l.logger.Print(v...) }

func (l *Logger) Printf(format string, v ...interface{}) {
	l.logger.Printf(format, v...)
}

func (l *Logger) Println(v ...interface{}) { l.logger.Println(v...) }
