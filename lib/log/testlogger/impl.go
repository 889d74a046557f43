package testlogger

import (
	"fmt"
	"strings"
)

func sprint(v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprint(v...), "\n")
}

func sprintf(format string, v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintf(format, v...), "\n")
}

func (l *Logger) record(s string) {
	l.mutex.Lock()
	l.lines = append(l.lines, s)
	l.mutex.Unlock()
}

func (l *Logger) log(s string) {
	l.record(s)
	l.logger.Log(s)
}

func (l *Logger) fatal(s string) {
	l.record(s)
	l.logger.Fatal(s)
}

func (l *Logger) contains(substr string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
