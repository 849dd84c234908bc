package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lhaig/clarwasm/internal/backend"
)

var backends = map[string]backend.Backend{
	"wasm": &backend.WasmBackend{},
	"wat":  &backend.TextBackend{},
}

// getBackend returns the appropriate backend for the given target
func getBackend(target string) (backend.Backend, error) {
	if be, ok := backends[target]; ok {
		return be, nil
	}
	return nil, fmt.Errorf("unknown target: %s (expected one of %s)", target, strings.Join(TargetNames(), ", "))
}

// TargetNames lists the supported output targets
func TargetNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputPath returns the default output file for sourcePath: the source's
// base name with the target's extension, in the current directory.
func OutputPath(sourcePath, target string) (string, error) {
	be, err := getBackend(target)
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return base + be.Extension(), nil
}

// EmitToTarget compiles source to the given target and returns the output bytes
func EmitToTarget(filename, source, target string, cfg *Config) ([]byte, error) {
	be, err := getBackend(target)
	if err != nil {
		return nil, err
	}

	res, err := Compile(filename, source, cfg)
	if err != nil {
		return nil, err
	}

	out, err := be.Generate(res.Module)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", be.Name(), err)
	}
	return out, nil
}

// BuildToTarget compiles source to the given target and writes outPath
func BuildToTarget(filename, source, target, outPath string, cfg *Config) error {
	out, err := EmitToTarget(filename, source, target, cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	if err := os.WriteFile(outPath, out, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
