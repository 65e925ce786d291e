package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredPlots(t *testing.T) {
	tests := []struct {
		name string
		area float64
		want int
	}{
		{"zero area still covers one plot", 0, 1},
		{"under one unit", 3.5, 1},
		{"exactly one unit", 4.0, 1},
		{"partial second unit rounds up", 4.1, 2},
		{"exactly two units", 8.0, 2},
		{"partial third unit rounds up", 9.0, 3},
		{"large stall", 25.0, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Request{AreaM2: tt.area}
			assert.Equal(t, tt.want, r.RequiredPlots())
		})
	}
}

func TestRequestApproved(t *testing.T) {
	assert.True(t, (&Request{Status: RequestApproved}).Approved())
	assert.False(t, (&Request{Status: RequestPending}).Approved())
	assert.False(t, (&Request{Status: RequestRejected}).Approved())
}
