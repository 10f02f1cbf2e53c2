package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Rand returns a fresh *rand.Rand seeded from this RNG, for APIs that take
// one.
func (r *RNG) Rand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewSource(r.rand.Int63())) // nolint gosec
}

// UniformColumn generates n values in range [0, 1).
func (r *RNG) UniformColumn(n int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	col := make([]float64, n)
	for i := range col {
		col[i] = r.rand.Float64()
	}
	return col
}

// UniformColumns generates nPred uniform columns of n rows.
// Uses a single backing array for efficiency.
func (r *RNG) UniformColumns(n, nPred int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, n*nPred)
	cols := make([][]float64, nPred)
	for p := range nPred {
		col := data[p*n : (p+1)*n]
		for i := range col {
			col[i] = r.rand.Float64()
		}
		cols[p] = col
	}
	return cols
}

// DiscreteColumn generates n integers in [0, card), producing many ties.
func (r *RNG) DiscreteColumn(n, card int) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	col := make([]float64, n)
	for i := range col {
		col[i] = float64(r.rand.Intn(card))
	}
	return col
}

// SparseColumn generates n values that are zero except with probability
// density, where they are uniform in (0, 1].
func (r *RNG) SparseColumn(n int, density float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	col := make([]float64, n)
	for i := range col {
		if r.rand.Float64() < density {
			col[i] = 1 - r.rand.Float64()
		}
	}
	return col
}

// ZipfColumn generates n values in [0, card) following Zipf's law:
// P(k) ∝ 1/k^s where s is the skew parameter. Low values dominate.
func (r *RNG) ZipfColumn(n, card int, s float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	col := make([]float64, n)
	for i := range col {
		col[i] = float64(r.zipfLocked(card, s))
	}
	return col
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	// Inverse transform over the harmonic weights.
	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// InjectMissing replaces values with NaN with probability rate.
func (r *RNG) InjectMissing(col []float64, rate float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range col {
		if r.rand.Float64() < rate {
			col[i] = math.NaN()
		}
	}
}

// StepResponse returns lo where x <= at and hi above it, plus Gaussian
// noise of the given scale. NaN maps to hi.
func (r *RNG) StepResponse(x []float64, at, lo, hi, noise float64) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = hi
		if v <= at {
			y[i] = lo
		}
		y[i] += r.rand.NormFloat64() * noise
	}
	return y
}

// Threshold assigns category k to values between the k-th and (k+1)-th
// cut, so len(cuts)+1 categories. NaN maps to the last category.
func Threshold(x []float64, cuts ...float64) []uint32 {
	ctg := make([]uint32, len(x))
	for i, v := range x {
		k := len(cuts)
		for j, c := range cuts {
			if v <= c {
				k = j
				break
			}
		}
		ctg[i] = uint32(k)
	}
	return ctg
}

// Ones returns n sample counts of one.
func Ones(n int) []uint32 {
	c := make([]uint32, n)
	for i := range c {
		c[i] = 1
	}
	return c
}
