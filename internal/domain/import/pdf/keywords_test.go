package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywords(t *testing.T) {
	k := newKeywords([]string{"  Total  Deposits", " Page ", "", "   "})
	assert.Equal(t, []string{"TOTAL DEPOSITS", "PAGE"}, k.patterns)

	tests := []struct {
		name    string
		line    string
		find    string
		leading string
	}{
		{"spacing differs from pattern", "TOTAL    DEPOSITS   1,250.00", "TOTAL DEPOSITS", "TOTAL DEPOSITS"},
		{"leading whitespace in line", "   total deposits", "TOTAL DEPOSITS", "TOTAL DEPOSITS"},
		{"contained but not leading", "CONTINUED ON PAGE 2", "PAGE", ""},
		{"no match", "1.00 0.00 1.00 01/02 A1", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, _ := k.find(tt.line)
			assert.Equal(t, tt.find, found)
			lead, _ := k.leading(tt.line)
			assert.Equal(t, tt.leading, lead)
		})
	}

	empty := newKeywords(nil)
	_, ok := empty.find("TOTAL")
	assert.False(t, ok)
}
