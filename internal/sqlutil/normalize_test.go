package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Already normalized",
			input:    "CustomerID",
			expected: "CustomerID",
		},
		{
			name:     "Single space becomes underscore",
			input:    "Order Date",
			expected: "Order_Date",
		},
		{
			name:     "Run of whitespace collapses to one underscore",
			input:    "Order \t  Date",
			expected: "Order_Date",
		},
		{
			name:     "Punctuation stripped",
			input:    "Unit Price ($)",
			expected: "Unit_Price_",
		},
		{
			name:     "Leading and trailing whitespace trimmed",
			input:    "  Name  ",
			expected: "Name",
		},
		{
			name:     "Accented characters stripped",
			input:    "Señor",
			expected: "Seor",
		},
		{
			name:     "Digits preserved",
			input:    "Address Line 2",
			expected: "Address_Line_2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeColumn(tt.input))
		})
	}
}

func TestNormalizeColumn_Idempotent(t *testing.T) {
	inputs := []string{
		"CustomerID",
		"Order Date",
		"Unit Price ($)",
		"  padded  ",
		"weird!@#chars",
		"a  b\tc",
	}

	for _, in := range inputs {
		once := NormalizeColumn(in)
		twice := NormalizeColumn(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", in)
	}
}

func TestNormalizeColumn_OutputCharset(t *testing.T) {
	out := NormalizeColumn("Ürün Adı (TL) #1")
	assert.True(t, IsValidIdentifier(out), "normalized output %q must be a valid identifier", out)
}
