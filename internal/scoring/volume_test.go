package scoring

import (
	"math"
	"testing"

	"github.com/ratemytip/tipscore/pkg/logger"
)

func TestVolumeFactor(t *testing.T) {
	calc := NewVolumeFactorCalculator(logger.NewNop())

	tests := []struct {
		name string
		tips int
		want float64
	}{
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"single tip", 1, 0}, // log10(1) = 0
		{"ceiling", 2000, 100},
		{"beyond ceiling clamps", 10000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calc.Calculate(tt.tips); math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("Calculate(%d) = %v, want %v", tt.tips, got, tt.want)
			}
		})
	}
}

func TestVolumeFactor_LogScale(t *testing.T) {
	calc := NewVolumeFactorCalculator(logger.NewNop())

	// 100 tips should land at log10(100)/log10(2000) of the scale.
	want := math.Log10(100) / math.Log10(2000) * 100
	if got := calc.Calculate(100); math.Abs(got-want) > 0.0001 {
		t.Errorf("Calculate(100) = %v, want %v", got, want)
	}

	// Monotonic: more tips never scores lower.
	prev := 0.0
	for _, n := range []int{1, 10, 50, 100, 500, 1000, 2000} {
		got := calc.Calculate(n)
		if got < prev {
			t.Errorf("Calculate(%d) = %v dropped below %v", n, got, prev)
		}
		prev = got
	}
}
