package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty", input: "", expected: nil},
		{name: "only separators and spaces", input: " , ,", expected: nil},
		{name: "single broker", input: "localhost:9092", expected: []string{"localhost:9092"}},
		{
			name:     "trims whitespace",
			input:    " kafka-1:9092 ,kafka-2:9092 ",
			expected: []string{"kafka-1:9092", "kafka-2:9092"},
		},
		{
			name:     "drops duplicates keeping first position",
			input:    "b:1,a:1,b:1",
			expected: []string{"b:1", "a:1"},
		},
		{
			name:     "preserves case",
			input:    "Host:1,host:1",
			expected: []string{"Host:1", "host:1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.input, ","))
		})
	}
}
