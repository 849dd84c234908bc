package backend

import "github.com/lhaig/clarwasm/internal/wasm"

// WasmBackend produces the binary module format.
type WasmBackend struct{}

// Name returns the backend name.
func (b *WasmBackend) Name() string {
	return "wasm"
}

// Extension returns the output file extension.
func (b *WasmBackend) Extension() string {
	return ".wasm"
}

// Generate encodes the module.
func (b *WasmBackend) Generate(m *wasm.Module) ([]byte, error) {
	return wasm.Encode(m)
}
