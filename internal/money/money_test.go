package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gstfiling/internal/money"
)

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   float64
	}{
		{2.675, 2, 2.68},
		{-2.675, 2, -2.68},
		{1.0005, 3, 1.001},
		{100, 2, 100},
		{0.1 + 0.2, 2, 0.3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money.Round(tt.in, tt.places))
	}
}

func TestDiff(t *testing.T) {
	assert.Equal(t, 1.0, money.Diff(501, 500))
	assert.Equal(t, 1.01, money.Diff(500, 501.01))
	assert.Equal(t, 1.004, money.Diff(500, 498.996))
	assert.InDelta(t, 0, money.Diff(0.1+0.2, 0.3), 1e-12)
}

func TestWithin(t *testing.T) {
	tests := []struct {
		a, b, tol float64
		want      bool
	}{
		{501, 500, 1, true},
		{500, 498.996, 1, false},
		{500, 501.001, 1, false},
		{0.1 + 0.2, 0.3, 0, true},
		{500.01, 499.01, 1, true},
		{25.5, 25, 0.5, true},
		{25.51, 25, 0.5, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money.Within(tt.a, tt.b, tt.tol), "%v vs %v within %v", tt.a, tt.b, tt.tol)
	}
}

func TestSum(t *testing.T) {
	assert.Equal(t, 0.6, money.Sum(0.1, 0.2, 0.3))
	assert.Equal(t, 0.0, money.Sum())
}
