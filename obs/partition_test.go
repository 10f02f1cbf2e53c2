package obs

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/arbor/layout"
	"github.com/hupe1980/arbor/sample"
	"github.com/hupe1980/arbor/testutil"
)

// mapReacher sends sample keys along fixed paths; keys stay sample indices.
type mapReacher struct {
	paths map[uint32]uint8
}

func (m mapReacher) Reach(key uint32) (uint8, uint32, bool) {
	path, ok := m.paths[key]
	return path, key, ok
}

func newPartition(t *testing.T, cols [][]float64, plurality float64) *Partition {
	t.Helper()
	lay, err := layout.FromColumns(cols, plurality)
	require.NoError(t, err)
	nRow := lay.NRow()
	counts := make([]uint32, nRow)
	for i := range counts {
		counts[i] = 1
	}
	bag, err := sample.NewBag(make([]float64, nRow), nil, 0, counts)
	require.NoError(t, err)
	p, err := New(lay, bag)
	require.NoError(t, err)
	return p
}

func TestTag(t *testing.T) {
	tag, err := MakeTag(3, 17)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), tag.SCount())
	assert.Equal(t, uint32(17), tag.Ctg())
	assert.False(t, tag.Tie())

	tied := tag.WithTie(true)
	assert.True(t, tied.Tie())
	assert.Equal(t, uint32(3), tied.SCount())
	assert.Equal(t, uint32(17), tied.Ctg())
	assert.False(t, tied.WithTie(false).Tie())

	top, err := MakeTag(sample.MaxSCount, sample.MaxCategories-1)
	require.NoError(t, err)
	assert.Equal(t, uint32(sample.MaxSCount), top.SCount())
	assert.Equal(t, uint32(sample.MaxCategories-1), top.Ctg())

	_, err = MakeTag(0, 0)
	assert.Error(t, err)
	_, err = MakeTag(1, sample.MaxCategories)
	assert.Error(t, err)
}

func TestStage(t *testing.T) {
	p := newPartition(t, [][]float64{{4, 2, 2, 9, 1}}, 0.9)

	res, err := p.Stage(0, true)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Explicit)
	assert.Equal(t, 0, res.Implicit)
	assert.Equal(t, 4, res.RankCount)
	assert.Equal(t, 4, res.RunCount)
	assert.False(t, res.Singleton)

	cells := p.Cells(0, 0, 0, 5)
	keys := p.Keys(0, 0, 0, 5)
	assert.Equal(t, []uint32{4, 1, 2, 0, 3}, keys)
	assert.Equal(t, []uint32{0, 1, 1, 2, 3}, []uint32{cells[0].Rank, cells[1].Rank, cells[2].Rank, cells[3].Rank, cells[4].Rank})
	assert.True(t, cells[2].Tie())
	assert.False(t, cells[1].Tie())

	require.Len(t, res.Runs, 4)
	assert.Equal(t, Run{Rank: 1, Count: 2, SCount: 2}, res.Runs[1])
}

func TestStage_Dense(t *testing.T) {
	p := newPartition(t, [][]float64{{1, 1, 1, 1, 1, 1, 1, 2}}, 0.5)

	res, err := p.Stage(0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Explicit)
	assert.Equal(t, 7, res.Implicit)
	assert.Equal(t, 2, res.RunCount)
	assert.Equal(t, []uint32{7}, p.Keys(0, 0, 0, res.Explicit))
}

func TestStage_Singleton(t *testing.T) {
	p := newPartition(t, [][]float64{{5, 5, 5}}, 0.99)

	res, err := p.Stage(0, false)
	require.NoError(t, err)
	assert.True(t, res.Singleton)
	assert.Equal(t, 1, res.RunCount)
}

func TestStage_Missing(t *testing.T) {
	nan := math.NaN()
	p := newPartition(t, [][]float64{{nan, 1, 2, nan}}, 0.9)

	res, err := p.Stage(0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Missing)
	assert.Equal(t, 3, res.RankCount)
}

func TestStage_MissingIsImplicit(t *testing.T) {
	nan := math.NaN()
	p := newPartition(t, [][]float64{{nan, nan, nan, nan, nan, nan, 1, 2}}, 0.5)
	lay := p.Layout()
	require.True(t, lay.IsDense(0))
	require.Equal(t, lay.MissingRank(0), lay.ImplicitRank(0))

	res, err := p.Stage(0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Explicit)
	assert.Equal(t, 6, res.Implicit)
	assert.Equal(t, 6, res.Missing)

	paths := map[uint32]uint8{0: 0, 1: 0, 2: 0, 6: 0, 3: 1, 4: 1, 5: 1, 7: 1}
	results := p.Restage(&RestageRequest{
		Count: res.Explicit,
		Dense: true,
		Reach: mapReacher{paths: paths},
		Targets: []Target{
			{Node: 0, Range: Range{Start: 0, Extent: 4}},
			{Node: 1, Range: Range{Start: 4, Extent: 4}},
		},
	})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 1, r.Count)
		assert.Equal(t, 3, r.Implicit)
		assert.Equal(t, 3, r.Missing)
	}
}

func TestStage_MissingCountsMatchColumn(t *testing.T) {
	for _, rate := range []float64{0.1, 0.7} {
		rng := testutil.NewRNG(11)
		col := rng.ZipfColumn(200, 6, 1.3)
		rng.InjectMissing(col, rate)
		nNaN := 0
		for _, v := range col {
			if math.IsNaN(v) {
				nNaN++
			}
		}

		p := newPartition(t, [][]float64{col}, 0.5)
		res, err := p.Stage(0, false)
		require.NoError(t, err)
		assert.Equal(t, nNaN, res.Missing, "rate %v", rate)
		assert.Equal(t, 200, res.Explicit+res.Implicit)

		if nNaN > 100 {
			assert.Equal(t, p.Layout().MissingRank(0), p.Layout().ImplicitRank(0))
		}
	}
}

// split60 stages a 100-sample predictor and sends samples 0..59 left.
func split60(t *testing.T) (*Partition, RestageRequest) {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	col := make([]float64, 100)
	for i := range col {
		col[i] = float64(rng.Intn(1000))
	}
	p := newPartition(t, [][]float64{col}, 0.9)
	res, err := p.Stage(0, false)
	require.NoError(t, err)

	paths := make(map[uint32]uint8, 100)
	for s := uint32(0); s < 100; s++ {
		if s >= 60 {
			paths[s] = 1
		} else {
			paths[s] = 0
		}
	}
	return p, RestageRequest{
		Pred:   0,
		Source: 0,
		Start:  0,
		Count:  res.Explicit,
		Reach:  mapReacher{paths: paths},
		Targets: []Target{
			{Node: 0, Range: Range{Start: 0, Extent: 60}},
			{Node: 1, Range: Range{Start: 60, Extent: 40}},
		},
	}
}

func TestRestage_SixtyForty(t *testing.T) {
	p, req := split60(t)
	results := p.Restage(&req)
	require.Len(t, results, 2)

	assert.Equal(t, 60, results[0].Count)
	assert.Equal(t, 40, results[1].Count)
	assert.Equal(t, 0, results[0].Implicit)
	assert.False(t, results[1].Dense)

	keys := p.Keys(0, 1, 0, 100)
	seen := make(map[uint32]bool, 100)
	for i, k := range keys {
		assert.False(t, seen[k], "sample %d appears twice", k)
		seen[k] = true
		if i < 60 {
			assert.Less(t, k, uint32(60))
		} else {
			assert.GreaterOrEqual(t, k, uint32(60))
		}
	}

	for _, res := range results {
		cells := p.Cells(0, 1, res.Start, res.Count)
		assert.True(t, sort.SliceIsSorted(cells, func(a, b int) bool { return cells[a].Rank < cells[b].Rank }))
	}
}

func TestRestage_StableAndIdempotent(t *testing.T) {
	p, req := split60(t)
	src := append([]uint32(nil), p.Keys(0, 0, 0, 100)...)

	p.Restage(&req)
	first := append([]Cell(nil), p.Cells(0, 1, 0, 100)...)
	firstKeys := append([]uint32(nil), p.Keys(0, 1, 0, 100)...)

	p.Restage(&req)
	assert.Equal(t, first, p.Cells(0, 1, 0, 100))
	assert.Equal(t, firstKeys, p.Keys(0, 1, 0, 100))

	// Relative order within each bucket matches source order.
	var left, right []uint32
	for _, k := range src {
		if k < 60 {
			left = append(left, k)
		} else {
			right = append(right, k)
		}
	}
	assert.Equal(t, left, firstKeys[:60])
	assert.Equal(t, right, firstKeys[60:])
}

func TestRestage_RoundTrip(t *testing.T) {
	// Distinct values: no ties.
	rng := rand.New(rand.NewSource(3))
	col := make([]float64, 64)
	for i, v := range rng.Perm(64) {
		col[i] = float64(v)
	}
	p := newPartition(t, [][]float64{col}, 0.9)
	res, err := p.Stage(0, false)
	require.NoError(t, err)
	srcCells := append([]Cell(nil), p.Cells(0, 0, 0, res.Explicit)...)

	paths := make(map[uint32]uint8)
	extents := make([]int, 4)
	for s := uint32(0); s < 64; s++ {
		path := uint8(rng.Intn(4))
		paths[s] = path
		extents[path]++
	}
	targets := make([]Target, 4)
	start := 0
	for i, e := range extents {
		targets[i] = Target{Node: i, Range: Range{Start: start, Extent: e}}
		start += e
	}
	results := p.Restage(&RestageRequest{Count: res.Explicit, Reach: mapReacher{paths: paths}, Targets: targets})

	// Merging the buckets by rank inverts the partition.
	var merged []Cell
	for _, r := range results {
		merged = append(merged, p.Cells(0, 1, r.Start, r.Count)...)
	}
	sort.SliceStable(merged, func(a, b int) bool { return merged[a].Rank < merged[b].Rank })
	assert.Equal(t, srcCells, merged)
}

func TestRestage_DensePropagation(t *testing.T) {
	// Rows 0..5 share the implicit rank; rows 6..9 are explicit.
	col := []float64{0, 0, 0, 0, 0, 0, 1, 2, 3, 4}
	p := newPartition(t, [][]float64{col}, 0.5)
	root, err := p.Stage(0, false)
	require.NoError(t, err)
	require.Equal(t, 4, root.Explicit)
	require.Equal(t, 6, root.Implicit)

	// Left child holds rows 0-2 and 6-7; right child rows 3-5 and 8-9.
	paths := map[uint32]uint8{0: 0, 1: 0, 2: 0, 6: 0, 7: 0, 3: 1, 4: 1, 5: 1, 8: 1, 9: 1}
	results := p.Restage(&RestageRequest{
		Count: root.Explicit,
		Dense: true,
		Reach: mapReacher{paths: paths},
		Targets: []Target{
			{Node: 0, Range: Range{Start: 0, Extent: 5}},
			{Node: 1, Range: Range{Start: 5, Extent: 5}},
		},
	})
	require.Len(t, results, 2)

	left, right := results[0], results[1]
	assert.Equal(t, 2, left.Count)
	assert.Equal(t, 3, left.Implicit)
	assert.Equal(t, 0, left.Margin)
	assert.Equal(t, 0, left.Start)
	assert.True(t, left.Dense)

	assert.Equal(t, 2, right.Count)
	assert.Equal(t, 3, right.Implicit)
	assert.Equal(t, 2, right.Start)
	assert.Equal(t, 3, right.Margin)

	for _, r := range results {
		assert.Equal(t, 5, r.Count+r.Implicit)
		// Explicit keys plus implicit-rank samples on the path recover the node.
		got := map[uint32]bool{}
		for _, k := range p.Keys(0, 1, r.Start, r.Count) {
			got[k] = true
		}
		for s := uint32(0); s < 6; s++ {
			if int(paths[s]) == r.Node {
				got[s] = true
			}
		}
		want := map[uint32]bool{}
		for s, path := range paths {
			if int(path) == r.Node {
				want[s] = true
			}
		}
		assert.Equal(t, want, got)
	}
}

func TestRestage_SkipsExtinct(t *testing.T) {
	p := newPartition(t, [][]float64{{1, 2, 3, 4}}, 0.9)
	res, err := p.Stage(0, false)
	require.NoError(t, err)

	// Samples 1 and 2 were pruned; path 1 has no live node.
	results := p.Restage(&RestageRequest{
		Count: res.Explicit,
		Reach: mapReacher{paths: map[uint32]uint8{0: 0, 3: 2}},
		Targets: []Target{
			{Node: 0, Range: Range{Start: 0, Extent: 1}},
			{Node: -1},
			{Node: 1, Range: Range{Start: 3, Extent: 1}},
			{Node: -1},
		},
	})
	require.Len(t, results, 2)
	assert.Equal(t, []uint32{0}, p.Keys(0, 1, results[0].Start, results[0].Count))
	assert.Equal(t, []uint32{3}, p.Keys(0, 1, results[1].Start, results[1].Count))
	assert.True(t, results[0].Singleton)
}

func TestRestage_UnmappedPathPanics(t *testing.T) {
	p := newPartition(t, [][]float64{{1, 2}}, 0.9)
	res, err := p.Stage(0, false)
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrContract)
	}()
	p.Restage(&RestageRequest{
		Count:   res.Explicit,
		Reach:   mapReacher{paths: map[uint32]uint8{0: 0, 1: 1}},
		Targets: []Target{{Node: 0, Range: Range{Start: 0, Extent: 1}}, {Node: -1}},
	})
}
