package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// PrintErrorMessage prints a standard Go error to the console
func PrintErrorMessage(tag string, err error) {
	ErrorStyleBG.Print(tag)
	ErrorColorFG.Println(" " + err.Error())
}

// PrintWarningMessage prints a warning message to the console
func PrintWarningMessage(tag, msg string) {
	WarnStyleBG.Print(tag)
	WarnColorFG.Println(" " + msg)
}

// PrintInfoMessage prints an informational message to the user
func PrintInfoMessage(tag, msg string) {
	InfoStyleBG.Print(tag)
	InfoColorFG.Println(" " + msg)
}

// displayError prints every line of a multi-line error under one banner
func displayError(tag string, err error) {
	lines := strings.Split(err.Error(), "\n")
	ErrorStyleBG.Print(tag + " Error")
	ErrorColorFG.Println(" " + lines[0])
	for _, line := range lines[1:] {
		fmt.Println("  " + line)
	}
}

func displayWarning(tag, msg string) {
	PrintWarningMessage(tag+" Warning", msg)
}

const maxPhaseLength = len("Validating")

// phasePadding aligns phase timings; longer names get the minimum gap
func phasePadding(phase string) string {
	if len(phase) > maxPhaseLength {
		return "  "
	}
	return strings.Repeat(" ", maxPhaseLength-len(phase)+2)
}

func displayPhase(phase string, success bool, elapsed time.Duration) {
	padding := phasePadding(phase)
	if success {
		SuccessStyleBG.Print("Done")
		fmt.Print(" " + phase + padding)
		InfoColorFG.Println(fmt.Sprintf("(%.3fs)", elapsed.Seconds()))
	} else {
		ErrorStyleBG.Print("Fail")
		fmt.Println(" " + phase)
	}
}
