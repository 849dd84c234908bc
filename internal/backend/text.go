package backend

import "github.com/lhaig/clarwasm/internal/wasm"

// TextBackend produces the readable text listing of a module.
type TextBackend struct{}

// Name returns the backend name.
func (b *TextBackend) Name() string {
	return "wat"
}

// Extension returns the output file extension.
func (b *TextBackend) Extension() string {
	return ".wat"
}

// Generate prints the module.
func (b *TextBackend) Generate(m *wasm.Module) ([]byte, error) {
	return []byte(wasm.Text(m)), nil
}
