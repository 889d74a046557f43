package testlogger

import (
	"sync"
)

// TestLogger is the subset of *testing.T used for logging.
type TestLogger interface {
	Fatal(v ...interface{})
	Log(v ...interface{})
}

// Logger adapts a TestLogger to the log.DebugLogger interface. Every message
// is also recorded so that tests may assert on what was logged.
type Logger struct {
	logger TestLogger
	mutex  sync.Mutex
	lines  []string
}

// New creates a Logger. Trailing newlines are removed from messages.
func New(logger TestLogger) *Logger {
	return &Logger{logger: logger}
}

// Lines returns a copy of every message logged so far.
func (l *Logger) Lines() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.lines...)
}

// Contains returns true if any logged message contains substr.
func (l *Logger) Contains(substr string) bool {
	return l.contains(substr)
}

func (l *Logger) Debug(level uint8, v ...interface{}) {
	l.log(sprint(v...))
}

func (l *Logger) Debugf(level uint8, format string, v ...interface{}) {
	l.log(sprintf(format, v...))
}

func (l *Logger) Debugln(level uint8, v ...interface{}) {
	l.log(sprint(v...))
}

func (l *Logger) Fatal(v ...interface{}) {
	l.fatal(sprint(v...))
}

func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.fatal(sprintf(format, v...))
}

func (l *Logger) Fatalln(v ...interface{}) {
	l.fatal(sprint(v...))
}

// Panic calls the Fatal method of the underlying TestLogger and then panics.
func (l *Logger) Panic(v ...interface{}) {
	s := sprint(v...)
	l.fatal(s)
	panic(s)
}

func (l *Logger) Panicf(format string, v ...interface{}) {
	s := sprintf(format, v...)
	l.fatal(s)
	panic(s)
}

func (l *Logger) Panicln(v ...interface{}) {
	s := sprint(v...)
	l.fatal(s)
	panic(s)
}

func (l *Logger) Print(v ...interface{}) {
	l.log(sprint(v...))
}

func (l *Logger) Printf(format string, v ...interface{}) {
	l.log(sprintf(format, v...))
}

func (l *Logger) Println(v ...interface{}) {
	l.log(sprint(v...))
}
