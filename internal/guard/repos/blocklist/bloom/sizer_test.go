package bloom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizer_Estimates(t *testing.T) {
	tests := []struct {
		n     uint64
		p     float64
		wantM uint64
		wantK uint8
	}{
		{1, 0.01, 10, 7},
		{1_000_000, 0.01, 9_585_059, 7},
		{100, 0.001, 1_438, 10},
	}
	s := NewSizer()
	for _, tt := range tests {
		m, k := s.Size(tt.n, tt.p)
		assert.Equal(t, tt.wantM, m, "m for n=%d p=%v", tt.n, tt.p)
		assert.Equal(t, tt.wantK, k, "k for n=%d p=%v", tt.n, tt.p)
	}
}

func TestSizer_Defaults(t *testing.T) {
	s := NewSizer()
	wantM, wantK := s.Size(100, DefaultFPRate)
	for _, p := range []float64{0, -1, 1, 1.5, math.NaN()} {
		m, k := s.Size(100, p)
		assert.Equal(t, wantM, m, "p=%v", p)
		assert.Equal(t, wantK, k, "p=%v", p)
	}

	m0, k0 := s.Size(0, 0.01)
	m1, k1 := s.Size(1, 0.01)
	assert.Equal(t, m1, m0)
	assert.Equal(t, k1, k0)
}
