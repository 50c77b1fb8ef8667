package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBatchStatusFor(t *testing.T) {
	tests := []struct {
		name      string
		remaining string
		total     string
		want      BatchStatus
	}{
		{"untouched", "100", "100", BatchStatusAvailable},
		{"partially drawn", "40", "100", BatchStatusPartiallyRetired},
		{"almost drained", "0.0001", "100", BatchStatusPartiallyRetired},
		{"drained", "0", "100", BatchStatusFullyRetired},
		{"drained with zero scale", "0.00", "100", BatchStatusFullyRetired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remaining := decimal.RequireFromString(tt.remaining)
			total := decimal.RequireFromString(tt.total)
			assert.Equal(t, tt.want, BatchStatusFor(remaining, total))
		})
	}
}
