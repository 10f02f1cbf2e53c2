package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformColumns(t *testing.T) {
	rng := NewRNG(4711)

	cols := rng.UniformColumns(32, 3)

	require.Len(t, cols, 3)
	for _, col := range cols {
		assert.Len(t, col, 32)
		for _, v := range col {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(7)
	a := rng.UniformColumn(10)
	rng.Reset()
	b := rng.UniformColumn(10)
	assert.Equal(t, a, b)
	assert.Equal(t, int64(7), rng.Seed())
}

func TestSparseColumn(t *testing.T) {
	rng := NewRNG(1)
	col := rng.SparseColumn(1000, 0.2)

	zeros := 0
	for _, v := range col {
		if v == 0 {
			zeros++
		}
	}
	assert.InDelta(t, 800, zeros, 60)
}

func TestZipfColumn(t *testing.T) {
	rng := NewRNG(2)
	col := rng.ZipfColumn(1000, 10, 1.5)

	counts := make([]int, 10)
	for _, v := range col {
		counts[int(v)]++
	}
	assert.Greater(t, counts[0], counts[9])
}

func TestInjectMissing(t *testing.T) {
	rng := NewRNG(3)
	col := rng.UniformColumn(1000)
	rng.InjectMissing(col, 0.1)

	nan := 0
	for _, v := range col {
		if math.IsNaN(v) {
			nan++
		}
	}
	assert.InDelta(t, 100, nan, 40)
}

func TestThreshold(t *testing.T) {
	ctg := Threshold([]float64{0.1, 0.5, 0.9, math.NaN()}, 0.3, 0.7)
	assert.Equal(t, []uint32{0, 1, 2, 2}, ctg)
}

func TestStepResponse(t *testing.T) {
	rng := NewRNG(4)
	y := rng.StepResponse([]float64{0.2, 0.8}, 0.5, 0, 10, 0)
	assert.Equal(t, []float64{0, 10}, y)
}
