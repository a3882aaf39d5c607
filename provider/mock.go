package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZaguanLabs/rpgtl"
)

// MockProvider is a mock translation provider for testing. It is safe for
// concurrent use.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation
	Failures     map[string]error  // Texts that fail with the given error
	CallCount    int               // Number of times Translate was called
	LastRequest  *TranslateRequest // Last request received

	mu sync.Mutex
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello, traveler!":      "¡Hola, viajero!",
			"Welcome to our town.":  "Bienvenido a nuestro pueblo.",
			"Yes, please.":          "Sí, por favor.",
			"No, thanks.":           "No, gracias.",
			"The door is locked...": "La puerta está cerrada...",
		},
		Failures: map[string]error{},
	}
}

// Translate returns mock translations.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastRequest = &req

	if req.Text == "" {
		return "", &rpgtl.ValidationError{Field: "text", Message: "must be a non-empty string"}
	}
	if err, ok := m.Failures[req.Text]; ok {
		return "", err
	}
	if translation, ok := m.Translations[req.Text]; ok {
		return translation, nil
	}
	// Return bracketed text for unknown translations
	return fmt.Sprintf("[%s]", req.Text), nil
}

// Calls returns the call count.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastRequest = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
