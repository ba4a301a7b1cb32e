package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64 // meters
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: 9.5916, lon1: 76.5222,
			lat2: 9.5916, lon2: 76.5222,
			want: 0, tolerance: 0.001,
		},
		{
			name: "one degree of latitude",
			lat1: 0, lon1: 0,
			lat2: 1, lon2: 0,
			want: 111195, tolerance: 50,
		},
		{
			name: "kochi to trivandrum",
			lat1: 9.9312, lon1: 76.2673,
			lat2: 8.5241, lon2: 76.9366,
			want: 173000, tolerance: 2000,
		},
		{
			name: "across the campus",
			lat1: 9.5916, lon1: 76.5222,
			lat2: 9.5917, lon2: 76.5223,
			want: 15.6, tolerance: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("Distance() = %.2f, want %.2f +/- %.2f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceSymmetry(t *testing.T) {
	d1 := Distance(9.5916, 76.5222, 10.0, 77.0)
	d2 := Distance(10.0, 77.0, 9.5916, 76.5222)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}
