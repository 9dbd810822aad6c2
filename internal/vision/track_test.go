package vision

import "testing"

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"mismatched length", []float32{1, 0}, []float32{1, 0, 0}, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := CosineSimilarity(c.a, c.b)
			if got != c.want {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestCosineSimilarityClampsDrift(t *testing.T) {
	a := []float32{0.70710678, 0.70710678}
	got := CosineSimilarity(a, a)
	if got > 1 {
		t.Errorf("expected result clamped to <= 1, got %v", got)
	}
}
