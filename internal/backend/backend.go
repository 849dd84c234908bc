// Package backend turns an assembled module into an output artifact.
package backend

import "github.com/lhaig/clarwasm/internal/wasm"

// Backend is the interface that all output backends implement.
type Backend interface {
	// Name returns the backend name (e.g., "wasm", "wat")
	Name() string
	// Extension returns the file extension of the output, including the dot.
	Extension() string
	// Generate renders the module.
	Generate(m *wasm.Module) ([]byte, error)
}
