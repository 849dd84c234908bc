package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/lhaig/clarwasm/internal/compiler"
	"github.com/lhaig/clarwasm/internal/logging"
)

const (
	historyFile = ".clarwasm_history"
	promptMain  = "clar> "
	promptCont  = "  ... "
)

const replHelp = `:defs   list the accepted definitions
:reset  forget every definition
:quit   leave the repl`

// execReplCommand evaluates one input at a time until end of input
func execReplCommand(cfg *compiler.Config) int {
	logging.PrintInfoMessage("clarwasm "+Version, "type :help for commands")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	session := compiler.NewSession(cfg)
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			case ":reset":
				session.Reset()
			case ":defs":
				for _, def := range session.Definitions() {
					fmt.Println(def)
				}
			case ":help":
				fmt.Println(replHelp)
			default:
				fmt.Println("unknown command, type :help for commands")
			}
			continue
		}

		// each input reports its own errors
		logging.Initialize(cfg.LogLevel)
		value, err := session.Eval(code)
		if err != nil {
			reportFailure("Runtime", err)
		} else if value != "" {
			fmt.Println(value)
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readByParseProbe reads lines until they form input that does not end
// inside an unclosed list. ok is false at end of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !compiler.Incomplete(src) {
			return src, true
		}
	}
}
