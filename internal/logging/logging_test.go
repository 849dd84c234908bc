package logging

import (
	"errors"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level int
		ok    bool
	}{
		{"silent", LevelSilent, true},
		{"error", LevelError, true},
		{"warn", LevelWarning, true},
		{"warning", LevelWarning, true},
		{"verbose", LevelVerbose, true},
		{"loud", LevelVerbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.name)
			if level != tt.level || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %d, %v; want %d, %v", tt.name, level, ok, tt.level, tt.ok)
			}
		})
	}
}

func TestLevelNamesParse(t *testing.T) {
	for i, name := range LevelNames {
		level, ok := ParseLevel(name)
		if !ok || level != i {
			t.Errorf("LevelNames[%d] = %q parses to %d, %v", i, name, level, ok)
		}
	}
}

func TestCounting(t *testing.T) {
	Initialize("silent")
	defer Initialize("warn")

	if !ShouldProceed() {
		t.Fatal("fresh logger should proceed")
	}

	BeginPhase("Parsing")
	LogWarning("Check", "unused binding")
	LogError("Generate", errors.New("no lowering for (foo)"))
	LogError("Validate", errors.New("stack underflow"))

	if ShouldProceed() {
		t.Error("logger with errors should not proceed")
	}
	if got := ErrorCount(); got != 2 {
		t.Errorf("ErrorCount() = %d, want 2", got)
	}
	if got := WarningCount(); got != 1 {
		t.Errorf("WarningCount() = %d, want 1", got)
	}
}

func TestInitializeResets(t *testing.T) {
	Initialize("silent")
	LogError("Parse", errors.New("unexpected ')'"))
	Initialize("error")
	defer Initialize("warn")

	if Level() != LevelError {
		t.Errorf("Level() = %d, want %d", Level(), LevelError)
	}
	if ErrorCount() != 0 {
		t.Errorf("ErrorCount() = %d after Initialize, want 0", ErrorCount())
	}
}

func TestPhasesSilent(t *testing.T) {
	Initialize("silent")
	defer Initialize("warn")

	BeginPhase("Parsing")
	BeginPhase("Checking")
	EndPhase(true)
	EndPhase(false)

	if logger.phase != "" {
		t.Errorf("phase = %q after EndPhase, want empty", logger.phase)
	}
}

func TestPhasePadding(t *testing.T) {
	tests := []struct {
		phase string
		width int
	}{
		{"Validating", 2},
		{"Parsing", 5},
		{"Generating code", 2},
	}

	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			if got := len(phasePadding(tt.phase)); got != tt.width {
				t.Errorf("padding for %q is %d spaces, want %d", tt.phase, got, tt.width)
			}
		})
	}
}

func TestLongPhaseName(t *testing.T) {
	Initialize("verbose")
	defer Initialize("warn")

	BeginPhase("Generating code")
	EndPhase(true)
}
