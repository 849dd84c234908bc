package stdlib

import "fmt"

// ErrorCode identifies why generated code aborted
type ErrorCode int

const (
	CodeNone ErrorCode = iota
	CodeShortReturn
	CodeUnwrapFailure
	CodeOverflow
	CodeDivisionByZero
	CodeUnderflow
)

var codeMessages = map[ErrorCode]string{
	CodeNone:           "runtime error",
	CodeShortReturn:    "short return at the top level",
	CodeUnwrapFailure:  "unwrap failure",
	CodeOverflow:       "arithmetic overflow",
	CodeDivisionByZero: "division by zero",
	CodeUnderflow:      "arithmetic underflow",
}

// RuntimeError is raised by generated code through stdlib.runtime-error
// or by an arithmetic routine
type RuntimeError struct {
	Code ErrorCode
}

func (e *RuntimeError) Error() string {
	if msg, ok := codeMessages[e.Code]; ok {
		return msg
	}
	return fmt.Sprintf("runtime error %d", int(e.Code))
}
