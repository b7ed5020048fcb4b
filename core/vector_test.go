package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		var mag float64
		for _, x := range v {
			mag += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(mag), 1e-6)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		v := NormalizeVector([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, v)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, NormalizeVector(nil))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		_ = NormalizeVector(in)
		assert.Equal(t, []float32{3, 4}, in)
	})
}

func TestCosineDistance(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		d := CosineDistance([]float32{1, 2, 3}, []float32{1, 2, 3})
		assert.InDelta(t, 0.0, d, 1e-6)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		d := CosineDistance([]float32{1, 0}, []float32{0, 1})
		assert.InDelta(t, 1.0, d, 1e-6)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		d := CosineDistance([]float32{1, 0}, []float32{-1, 0})
		assert.InDelta(t, 2.0, d, 1e-6)
	})

	t.Run("length mismatch is max distance", func(t *testing.T) {
		assert.Equal(t, float32(1), CosineDistance([]float32{1}, []float32{1, 2}))
	})
}
