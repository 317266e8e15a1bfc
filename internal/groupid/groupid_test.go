package groupid

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	id := Generate()

	if len(id) != HandleLength {
		t.Errorf("expected %d characters, got %d", HandleLength, len(id))
	}

	if err := Validate(id); err != nil {
		t.Errorf("generated handle failed validation: %v", err)
	}
}

func TestGenerateUnique(t *testing.T) {
	ids := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := Generate()
		if ids[id] {
			t.Errorf("duplicate handle generated: %s", id)
		}
		ids[id] = true
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		handle  string
		wantErr bool
	}{
		{
			name:    "short word",
			handle:  "den",
			wantErr: false,
		},
		{
			name:    "dashed words",
			handle:  "movie-night",
			wantErr: false,
		},
		{
			name:    "generated shape",
			handle:  "7k2m9p3qxw",
			wantErr: false,
		},
		{
			name:    "empty",
			handle:  "",
			wantErr: true,
		},
		{
			name:    "too long",
			handle:  strings.Repeat("a", MaxHandleLength+1),
			wantErr: true,
		},
		{
			name:    "uppercase not allowed",
			handle:  "Den",
			wantErr: true,
		},
		{
			name:    "leading dash",
			handle:  "-den",
			wantErr: true,
		},
		{
			name:    "trailing dash",
			handle:  "den-",
			wantErr: true,
		},
		{
			name:    "space",
			handle:  "the den",
			wantErr: true,
		},
		{
			name:    "punctuation",
			handle:  "den!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.handle)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlphabet(t *testing.T) {
	if len(alphabet) != 32 {
		t.Errorf("alphabet should have 32 characters, got %d", len(alphabet))
	}

	seen := make(map[rune]bool)
	for _, char := range alphabet {
		if seen[char] {
			t.Errorf("duplicate character in alphabet: %c", char)
		}
		seen[char] = true
	}

	// Check specific requirements: no i, l, o, u
	forbidden := "ilou"
	for _, char := range forbidden {
		if strings.ContainsRune(alphabet, char) {
			t.Errorf("alphabet should not contain %c", char)
		}
	}
}

// MockRandSource for deterministic testing
type MockRandSource struct {
	values []int
	index  int
}

func NewMockRandSource(values ...int) *MockRandSource {
	return &MockRandSource{values: values, index: 0}
}

func (m *MockRandSource) Intn(n int) int {
	if m.index >= len(m.values) {
		return 0 // Default fallback
	}
	val := m.values[m.index] % n // Ensure it's within bounds
	m.index++
	return val
}

func TestGenerateWithRandSource(t *testing.T) {
	mockRand := NewMockRandSource(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	id1 := GenerateWithRandSource(mockRand)

	mockRand2 := NewMockRandSource(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	id2 := GenerateWithRandSource(mockRand2)

	// No timestamp component, so the same source means the same handle.
	if id1 != id2 {
		t.Errorf("expected identical handles, got %s and %s", id1, id2)
	}

	if err := Validate(id1); err != nil {
		t.Errorf("generated handle failed validation: %v", err)
	}
}
