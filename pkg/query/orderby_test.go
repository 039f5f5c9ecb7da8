package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		arg        string
		wantColumn string
		wantDesc   bool
	}{
		{"", "", false},
		{"created", "created", false},
		{"created+", "created", false},
		{"created-", "created", true},
		{"-", "", true},
		{"+", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			column, desc := ParseOrder(tt.arg)
			assert.Equal(t, tt.wantColumn, column)
			assert.Equal(t, tt.wantDesc, desc)
		})
	}
}
