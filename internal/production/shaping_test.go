package production

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMap(t *testing.T) {
	tests := map[string]struct {
		suitability float64
		exp         float64
	}{
		"zero":          {suitability: 0, exp: 0.1},
		"below quarter": {suitability: 0.125, exp: 0.55},
		"quarter":       {suitability: 0.25, exp: 1},
		"midway":        {suitability: 0.625, exp: 2},
		"full":          {suitability: 1, exp: 3},
		"clamped low":   {suitability: -2, exp: 0.1},
		"clamped high":  {suitability: 7, exp: 3},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Map(0.1, 1, 3, tt.suitability)
			if !near(got, tt.exp) {
				t.Errorf("Map(%v) = %v, want %v", tt.suitability, got, tt.exp)
			}
		})
	}
}

func TestMix(t *testing.T) {
	tests := map[string]struct {
		factors []float64
		exp     float64
	}{
		"single":       {factors: []float64{0.49}, exp: 0.49},
		"two":          {factors: []float64{0.25, 1}, exp: 0.5},
		"three":        {factors: []float64{0.5, 0.5, 0.5}, exp: 0.5},
		"any zero":     {factors: []float64{1, 0, 1}, exp: 0},
		"clamped":      {factors: []float64{4, 0.25}, exp: 0.5},
		"negative":     {factors: []float64{-1, 1}, exp: 0},
		"no factors":   {factors: nil, exp: 0},
		"all complete": {factors: []float64{1, 1, 1, 1}, exp: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Mix(tt.factors...)
			if !near(got, tt.exp) {
				t.Errorf("Mix(%v) = %v, want %v", tt.factors, got, tt.exp)
			}
		})
	}
}

func TestTrapezoid(t *testing.T) {
	tests := map[string]struct {
		v   float64
		exp float64
	}{
		"inside":          {v: 15, exp: 1},
		"at low bound":    {v: 10, exp: 1},
		"at high bound":   {v: 20, exp: 1},
		"half fuzz below": {v: 9.5, exp: 0.5},
		"half fuzz above": {v: 20.5, exp: 0.5},
		"beyond fuzz":     {v: 8, exp: 0},
		"far above":       {v: 40, exp: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Trapezoid(tt.v, 10, 20)
			if !near(got, tt.exp) {
				t.Errorf("Trapezoid(%v) = %v, want %v", tt.v, got, tt.exp)
			}
		})
	}
}

func TestPeak(t *testing.T) {
	tests := map[string]struct {
		v   float64
		exp float64
	}{
		"low bound":       {v: 0, exp: 0.5},
		"rising":          {v: 10, exp: 0.75},
		"optimum":         {v: 20, exp: 1},
		"falling":         {v: 30, exp: 0.75},
		"high bound":      {v: 40, exp: 0.5},
		"half fuzz below": {v: -2, exp: 0.25},
		"half fuzz above": {v: 42, exp: 0.25},
		"beyond fuzz":     {v: 50, exp: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Peak(tt.v, 0, 20, 40)
			if !near(got, tt.exp) {
				t.Errorf("Peak(%v) = %v, want %v", tt.v, got, tt.exp)
			}
		})
	}
}
