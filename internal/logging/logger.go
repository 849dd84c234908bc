package logging

import (
	"sync"
	"time"
)

// Enumeration of the different log levels
const (
	LevelSilent  = iota // no output at all
	LevelError          // only errors
	LevelWarning        // errors and warnings
	LevelVerbose        // errors, warnings and pipeline phases
)

// Logger stores the reporting state shared by the driver and the pipeline
type Logger struct {
	Level int

	errorCount   int
	warningCount int

	// phase is the pipeline phase currently running, empty between phases
	phase      string
	phaseStart time.Time

	m *sync.Mutex
}

func newLogger(level int) *Logger {
	return &Logger{Level: level, m: &sync.Mutex{}}
}

func (l *Logger) reportError(tag string, err error) {
	l.m.Lock()
	defer l.m.Unlock()

	l.errorCount++
	if l.Level >= LevelError {
		l.endPhase(false)
		displayError(tag, err)
	}
}

func (l *Logger) reportWarning(tag, msg string) {
	l.m.Lock()
	defer l.m.Unlock()

	l.warningCount++
	if l.Level >= LevelWarning {
		displayWarning(tag, msg)
	}
}

func (l *Logger) beginPhase(phase string) {
	l.m.Lock()
	defer l.m.Unlock()

	l.endPhase(true)
	l.phase = phase
	l.phaseStart = time.Now()
}

// endPhase closes the running phase, if any. The caller holds the lock.
func (l *Logger) endPhase(success bool) {
	if l.phase == "" {
		return
	}
	if l.Level >= LevelVerbose {
		displayPhase(l.phase, success, time.Since(l.phaseStart))
	}
	l.phase = ""
}
