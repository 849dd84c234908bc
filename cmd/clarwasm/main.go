package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ComedicChimera/olive"

	"github.com/lhaig/clarwasm/internal/checker"
	"github.com/lhaig/clarwasm/internal/compiler"
	"github.com/lhaig/clarwasm/internal/diagnostic"
	"github.com/lhaig/clarwasm/internal/formatter"
	"github.com/lhaig/clarwasm/internal/linter"
	"github.com/lhaig/clarwasm/internal/logging"
	"github.com/lhaig/clarwasm/internal/parser"
)

// Version is the clarwasm release version
const Version = "0.1.0"

func main() {
	os.Exit(execute(os.Args))
}

// execute runs the clarwasm application and returns the process exit code
func execute(args []string) int {
	cli := olive.NewCLI("clarwasm", "clarwasm compiles Clarity contracts to WebAssembly", true)
	cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, logging.LevelNames)
	cli.AddStringArg("config", "c", "the configuration file (default ./"+compiler.ConfigFileName+")", false)

	buildCmd := cli.AddSubcommand("build", "compile a contract to a module file", true)
	buildCmd.AddPrimaryArg("file", "the contract to compile", true)
	buildCmd.AddSelectorArg("target", "t", "the output target", false, compiler.TargetNames())
	buildCmd.AddStringArg("output", "o", "the output path", false)

	checkCmd := cli.AddSubcommand("check", "parse and type-check a contract", true)
	checkCmd.AddPrimaryArg("file", "the contract to check", true)

	evalCmd := cli.AddSubcommand("eval", "compile a contract and run its top level", true)
	evalCmd.AddPrimaryArg("file", "the contract to run", true)

	lintCmd := cli.AddSubcommand("lint", "report style and best-practice warnings", true)
	lintCmd.AddPrimaryArg("file", "the contract to lint", true)

	fmtCmd := cli.AddSubcommand("fmt", "print a contract in canonical layout", true)
	fmtCmd.AddPrimaryArg("file", "the contract to format", true)
	fmtCmd.AddFlag("write", "w", "rewrite the file in place (refused when it has comments)")

	cli.AddSubcommand("repl", "evaluate expressions interactively", false)
	cli.AddSubcommand("version", "print the clarwasm version", false)

	result, err := olive.ParseArgs(cli, args)
	if err != nil {
		logging.PrintErrorMessage("CLI Usage Error", err)
		return 2
	}

	subcmdName, subResult, ok := result.Subcommand()
	if !ok {
		logging.PrintErrorMessage("CLI Usage Error", errors.New("expected a subcommand: build, check, eval, lint, fmt, repl or version"))
		return 2
	}

	if subcmdName == "version" {
		logging.PrintInfoMessage("clarwasm version", Version)
		return 0
	}

	cfg, err := loadConfig(result)
	if err != nil {
		logging.PrintErrorMessage("Config Error", err)
		return 1
	}
	logging.Initialize(cfg.LogLevel)

	switch subcmdName {
	case "build":
		return execBuildCommand(subResult, cfg)
	case "check":
		return execCheckCommand(subResult)
	case "eval":
		return execEvalCommand(subResult, cfg)
	case "lint":
		return execLintCommand(subResult)
	case "fmt":
		return execFmtCommand(subResult)
	case "repl":
		return execReplCommand(cfg)
	}
	return 0
}

// loadConfig reads the configuration file and applies the global overrides
func loadConfig(result *olive.ArgParseResult) (*compiler.Config, error) {
	path := compiler.ConfigFileName
	if v, ok := result.Arguments["config"]; ok {
		path = v.(string)
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}

	cfg, err := compiler.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if v, ok := result.Arguments["loglevel"]; ok {
		cfg.LogLevel = v.(string)
	}
	return cfg, cfg.Validate()
}

func readSource(result *olive.ArgParseResult) (string, string, bool) {
	path, _ := result.PrimaryArg()
	source, err := os.ReadFile(path)
	if err != nil {
		logging.PrintErrorMessage("File Error", err)
		return "", "", false
	}
	return path, string(source), true
}

// execBuildCommand compiles a contract and writes the selected target
func execBuildCommand(result *olive.ArgParseResult, cfg *compiler.Config) int {
	path, source, ok := readSource(result)
	if !ok {
		return 1
	}

	if v, ok := result.Arguments["target"]; ok {
		cfg.Target = v.(string)
	}

	outPath, err := compiler.OutputPath(path, cfg.Target)
	if err != nil {
		logging.PrintErrorMessage("Target Error", err)
		return 1
	}
	if v, ok := result.Arguments["output"]; ok {
		outPath = v.(string)
	}

	if err := compiler.BuildToTarget(path, source, cfg.Target, outPath, cfg); err != nil {
		reportFailure("Build", err)
		return 1
	}

	if logging.Level() >= logging.LevelError {
		logging.PrintInfoMessage("Wrote", outPath)
	}
	return 0
}

// execCheckCommand reports every diagnostic of a contract
func execCheckCommand(result *olive.ArgParseResult) int {
	path, source, ok := readSource(result)
	if !ok {
		return 1
	}

	diag := compiler.Check(path, source)
	if diag.HasErrors() {
		logging.LogError("Check", diag.Err(path))
		return 1
	}

	for _, d := range diag.All() {
		if d.Severity == diagnostic.Warning {
			logging.LogWarning("Check", fmt.Sprintf("%s:%d:%d: %s", path, d.Line, d.Column, d.Message))
		}
	}

	if logging.Level() >= logging.LevelError {
		logging.PrintInfoMessage("Check", "no errors found")
	}
	return 0
}

// execEvalCommand runs the top level of a contract and prints its value
func execEvalCommand(result *olive.ArgParseResult, cfg *compiler.Config) int {
	path, source, ok := readSource(result)
	if !ok {
		return 1
	}

	value, err := compiler.Eval(path, source, cfg)
	if err != nil {
		reportFailure("Runtime", err)
		return 1
	}

	if value != "" {
		fmt.Println(value)
	}
	return 0
}

// execLintCommand reports lint warnings for a contract
func execLintCommand(result *olive.ArgParseResult) int {
	path, source, ok := readSource(result)
	if !ok {
		return 1
	}

	p := parser.New(source)
	prog := p.Parse()
	if err := p.Diagnostics().Err(path); err != nil {
		logging.LogError("Syntax", err)
		return 1
	}

	checked := checker.Check(prog)
	if err := checked.Err(path); err != nil {
		logging.LogError("Type", err)
		return 1
	}

	diag := linter.Lint(prog)
	diag.Merge(checked)
	for _, d := range diag.All() {
		logging.LogWarning("Lint", fmt.Sprintf("%s:%d:%d: %s", path, d.Line, d.Column, d.Message))
	}

	if logging.Level() >= logging.LevelError {
		logging.PrintInfoMessage("Lint", fmt.Sprintf("%d warning(s) found", len(diag.All())))
	}
	return 0
}

// execFmtCommand prints or rewrites a contract in canonical layout
func execFmtCommand(result *olive.ArgParseResult) int {
	path, source, ok := readSource(result)
	if !ok {
		return 1
	}

	p := parser.New(source)
	prog := p.Parse()
	if err := p.Diagnostics().Err(path); err != nil {
		logging.LogError("Syntax", err)
		return 1
	}
	formatted := formatter.Format(prog)

	if !result.HasFlag("write") {
		fmt.Print(formatted)
		return 0
	}

	if strings.Contains(source, ";;") {
		logging.PrintErrorMessage("Format Error", fmt.Errorf("%s has comments, which formatting would drop", path))
		return 1
	}
	if err := os.WriteFile(path, []byte(formatted), 0644); err != nil {
		logging.PrintErrorMessage("File Error", err)
		return 1
	}
	return 0
}

// reportFailure logs err unless the pipeline already logged it
func reportFailure(tag string, err error) {
	if logging.ShouldProceed() {
		logging.LogError(tag, err)
	}
}
