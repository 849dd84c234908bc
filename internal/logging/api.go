package logging

// logger is the shared Logger used by the driver and the compiler pipeline
var logger = newLogger(LevelWarning)

// LevelNames lists the accepted log level names, quietest first
var LevelNames = []string{"silent", "error", "warn", "verbose"}

// ParseLevel maps a level name to its level. ok is false for unknown names.
func ParseLevel(name string) (level int, ok bool) {
	switch name {
	case "silent":
		return LevelSilent, true
	case "error":
		return LevelError, true
	case "warn", "warning":
		return LevelWarning, true
	case "verbose":
		return LevelVerbose, true
	}
	return LevelVerbose, false
}

// Initialize resets the shared logger. Unknown level names select verbose.
func Initialize(levelName string) {
	level, _ := ParseLevel(levelName)
	logger = newLogger(level)
}

// Level returns the level of the shared logger
func Level() int {
	return logger.Level
}

// ShouldProceed reports whether no error has been logged since Initialize
func ShouldProceed() bool {
	logger.m.Lock()
	defer logger.m.Unlock()
	return logger.errorCount == 0
}

// ErrorCount returns the number of errors logged since Initialize
func ErrorCount() int {
	logger.m.Lock()
	defer logger.m.Unlock()
	return logger.errorCount
}

// WarningCount returns the number of warnings logged since Initialize
func WarningCount() int {
	logger.m.Lock()
	defer logger.m.Unlock()
	return logger.warningCount
}

// LogError logs an error under tag. It fails any running phase.
func LogError(tag string, err error) {
	logger.reportError(tag, err)
}

// LogWarning logs a warning under tag
func LogWarning(tag, msg string) {
	logger.reportWarning(tag, msg)
}

// BeginPhase starts a named pipeline phase, closing the previous one as a
// success. Phases are only displayed at verbose level.
func BeginPhase(phase string) {
	logger.beginPhase(phase)
}

// EndPhase closes the running phase
func EndPhase(success bool) {
	logger.m.Lock()
	defer logger.m.Unlock()
	logger.endPhase(success)
}
