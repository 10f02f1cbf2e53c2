package defmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/arbor/internal/path"
	"github.com/hupe1980/arbor/layout"
	"github.com/hupe1980/arbor/obs"
	"github.com/hupe1980/arbor/sample"
)

func requireContractPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, obs.ErrContract)
	}()
	fn()
}

// fixture stages one predictor over four rows, all in bag.
func fixture(t *testing.T, col []float64, window int, efficiency float64) (*Map, *obs.Partition) {
	t.Helper()
	lay, err := layout.FromColumns([][]float64{col}, 0.9)
	require.NoError(t, err)
	counts := make([]uint32, len(col))
	for i := range counts {
		counts[i] = 1
	}
	bag, err := sample.NewBag(make([]float64, len(col)), nil, 0, counts)
	require.NoError(t, err)
	part, err := obs.New(lay, bag)
	require.NoError(t, err)

	m := New(Config{NPred: 1, BagCount: len(col), Window: window, Efficiency: efficiency}, obs.Range{Start: 0, Extent: len(col)})
	res, err := part.Stage(0, false)
	require.NoError(t, err)
	m.RootDefine(0, res)
	return m, part
}

// child is a successor given as (parent, range, path).
type child struct {
	parent int
	r      obs.Range
	path   uint8
}

func advance(m *Map, children []child) {
	ranges := make([]obs.Range, len(children))
	for i, c := range children {
		ranges[i] = c.r
	}
	m.Overlap(ranges, false)
	for i, c := range children {
		m.ReachingPath(i, c.parent, c.path)
	}
	m.Backdate()
}

func runRestages(m *Map, part *obs.Partition) {
	for _, r := range m.TakeRestages() {
		m.ApplyRestage(r, part.Restage(m.RestageRequest(r)))
	}
}

func TestRootDefine(t *testing.T) {
	m, _ := fixture(t, []float64{4, 3, 2, 1}, 3, 0.5)

	c := Coord{Node: 0, Pred: 0}
	assert.True(t, m.IsDefined(c))
	assert.False(t, m.IsSingleton(c))
	d, ok := m.LookupDef(c)
	require.True(t, ok)
	assert.Equal(t, 4, d.Count)
	assert.Equal(t, 0, d.Parity)
	assert.Equal(t, int64(4), m.Stats().DefinedCost)
}

func TestFlushDef_RestagesToFront(t *testing.T) {
	m, part := fixture(t, []float64{4, 3, 2, 1}, 3, 0)

	// Samples 0,1 go left, 2,3 go right.
	m.SetLive(0, 0, path.Next(0, true), 0)
	m.SetLive(1, 1, path.Next(0, true), 1)
	m.SetLive(2, 2, path.Next(0, false), 2)
	m.SetLive(3, 3, path.Next(0, false), 3)
	advance(m, []child{
		{parent: 0, r: obs.Range{Start: 0, Extent: 2}, path: path.Next(0, true)},
		{parent: 0, r: obs.Range{Start: 2, Extent: 2}, path: path.Next(0, false)},
	})

	left := Coord{Node: 0, Pred: 0}
	right := Coord{Node: 1, Pred: 0}
	assert.True(t, m.IsDefined(left))
	_, ok := m.LookupDef(left)
	assert.False(t, ok, "reaching definition is not staged at the front")
	assert.Equal(t, 0, m.HistoryLookup(1, 1))

	m.FlushDef(left)
	assert.False(t, m.IsDefined(right), "queued MRRA is undefined until applied")
	m.FlushDef(right)
	restages := m.TakeRestages()
	require.Len(t, restages, 1)
	for _, r := range restages {
		m.ApplyRestage(r, part.Restage(m.RestageRequest(r)))
	}

	dl := m.FrontDef(left)
	dr := m.FrontDef(right)
	assert.Equal(t, 1, dl.Parity)
	assert.Equal(t, 2, dl.Count)
	assert.Equal(t, 2, dr.Start)
	assert.Equal(t, []uint32{1, 0}, part.Keys(0, 1, dl.Start, dl.Count))
	assert.Equal(t, []uint32{3, 2}, part.Keys(0, 1, dr.Start, dr.Count))

	m.EraseLayers()
	assert.Equal(t, 1, m.NLayer())

	st := m.Stats()
	assert.Equal(t, int64(4), st.FlushedCost)
	assert.Equal(t, int64(8), st.DefinedCost)
	assert.LessOrEqual(t, st.FlushedCost, st.DefinedCost)
	assert.Equal(t, int64(1), st.Restaged)
}

func TestFlushRear_CapacityEviction(t *testing.T) {
	m, part := fixture(t, []float64{4, 3, 2, 1}, 1, 0)

	for s := uint32(0); s < 4; s++ {
		m.SetLive(s, s, 0, s)
	}
	advance(m, []child{{parent: 0, r: obs.Range{Start: 0, Extent: 4}, path: 0}})

	m.FlushRear()
	runRestages(m, part)
	m.EraseLayers()

	assert.Equal(t, 1, m.NLayer())
	_, ok := m.LookupDef(Coord{Node: 0, Pred: 0})
	assert.True(t, ok)

	// The window is full again after the next level; overlapping without
	// eviction is a contract violation.
	advance(m, []child{{parent: 0, r: obs.Range{Start: 0, Extent: 4}, path: 0}})
	requireContractPanic(t, func() {
		m.Overlap([]obs.Range{{Start: 0, Extent: 4}}, false)
	})
}

func TestFlushRear_Efficiency(t *testing.T) {
	t.Run("eager", func(t *testing.T) {
		m, part := fixture(t, []float64{4, 3, 2, 1}, 7, 1)
		for s := uint32(0); s < 4; s++ {
			m.SetLive(s, s, 0, s)
		}
		advance(m, []child{{parent: 0, r: obs.Range{Start: 0, Extent: 4}, path: 0}})
		m.FlushRear()
		runRestages(m, part)
		_, ok := m.LookupDef(Coord{Node: 0, Pred: 0})
		assert.True(t, ok)
	})

	t.Run("lazy", func(t *testing.T) {
		m, _ := fixture(t, []float64{4, 3, 2, 1}, 7, 0)
		for s := uint32(0); s < 4; s++ {
			m.SetLive(s, s, 0, s)
		}
		advance(m, []child{{parent: 0, r: obs.Range{Start: 0, Extent: 4}, path: 0}})
		m.FlushRear()
		assert.Empty(t, m.TakeRestages())
		assert.Equal(t, 2, m.NLayer())
	})
}

func TestFlushRear_Purge(t *testing.T) {
	m, part := fixture(t, []float64{4, 3, 2, 1}, 7, 0)

	m.SetLive(0, 0, 0, 0)
	m.SetLive(1, 1, 0, 1)
	m.SetLive(2, 2, 1, 2)
	m.SetLive(3, 3, 1, 3)
	advance(m, []child{
		{parent: 0, r: obs.Range{Start: 0, Extent: 2}, path: 0},
		{parent: 0, r: obs.Range{Start: 2, Extent: 2}, path: 1},
	})
	m.FlushDef(Coord{Node: 0, Pred: 0})
	runRestages(m, part)
	m.EraseLayers()

	// Only the left node splits on; the right one becomes terminal.
	m.SetLive(0, 0, 0, 0)
	m.SetLive(1, 1, 1, 1)
	m.SetExtinct(2, 2)
	m.SetExtinct(3, 3)
	advance(m, []child{
		{parent: 0, r: obs.Range{Start: 0, Extent: 1}, path: 0},
		{parent: 0, r: obs.Range{Start: 1, Extent: 1}, path: 1},
	})
	assert.Equal(t, 0, m.Layer(1).Live(1))
	assert.Equal(t, 2, m.Layer(1).Live(0))

	m.FlushRear()
	assert.Equal(t, int64(1), m.Stats().Purged)
	assert.Equal(t, 1, m.Layer(1).DefCount())
}

func TestSingletonFlushSkipsRestage(t *testing.T) {
	m, _ := fixture(t, []float64{5, 5, 5, 5}, 3, 0)

	c := Coord{Node: 0, Pred: 0}
	assert.True(t, m.IsSingleton(c))
	_, ok := m.LookupDef(c)
	assert.False(t, ok)

	for s := uint32(0); s < 4; s++ {
		m.SetLive(s, s, path.Next(0, s < 2), s)
	}
	advance(m, []child{
		{parent: 0, r: obs.Range{Start: 0, Extent: 2}, path: 0},
		{parent: 0, r: obs.Range{Start: 2, Extent: 2}, path: 1},
	})
	m.FlushDef(Coord{Node: 1, Pred: 0})
	assert.Empty(t, m.TakeRestages())
	assert.True(t, m.IsSingleton(Coord{Node: 0, Pred: 0}))
	assert.True(t, m.IsSingleton(Coord{Node: 1, Pred: 0}))

	requireContractPanic(t, func() { m.FrontDef(Coord{Node: 1, Pred: 0}) })
}

func TestHistoryLookupBeyondWindowPanics(t *testing.T) {
	m, _ := fixture(t, []float64{1, 2, 3, 4}, 3, 0)
	requireContractPanic(t, func() { m.HistoryLookup(2, 0) })
}

func TestNewRejectsWindow(t *testing.T) {
	requireContractPanic(t, func() {
		New(Config{NPred: 1, BagCount: 1, Window: path.MaxWindow + 1}, obs.Range{Extent: 1})
	})
}

func TestDefinedTwicePanics(t *testing.T) {
	m, _ := fixture(t, []float64{1, 2, 3, 4}, 3, 0)
	requireContractPanic(t, func() {
		m.RootDefine(0, obs.StageResult{Explicit: 4})
	})
}
