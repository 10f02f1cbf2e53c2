package arbor

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/resource"
	"github.com/hupe1980/arbor/sample"
	"github.com/hupe1980/arbor/testutil"
)

type zeroSampler struct{}

func (zeroSampler) Counts(_ *rand.Rand, nRow int) ([]uint32, error) {
	return make([]uint32, nRow), nil
}

func stepData(t *testing.T, n int) ([][]float64, []float64) {
	t.Helper()
	rng := testutil.NewRNG(42)
	cols := [][]float64{
		rng.UniformColumn(n),
		rng.DiscreteColumn(n, 4),
		rng.SparseColumn(n, 0.2),
	}
	return cols, rng.StepResponse(cols[0], 0.5, 0, 10, 0.01)
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		tr, err := New()
		require.NoError(t, err)
		assert.Equal(t, 2, tr.opts.frontier.MinNode)
		assert.Equal(t, 0.5, tr.opts.frontier.Efficiency)
		assert.Equal(t, 0.5, tr.opts.plurality)
	})

	t.Run("InvalidFrontierConfig", func(t *testing.T) {
		_, err := New(WithMinNode(1))
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorIs(t, err, frontier.ErrInvalidConfig)

		_, err = New(WithPathWindow(9))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("InvalidPlurality", func(t *testing.T) {
		for _, p := range []float64{1, 1.5, -0.1, math.NaN()} {
			_, err := New(WithPlurality(p))
			var ce *ConfigError
			require.ErrorAs(t, err, &ce, "plurality %v", p)
			assert.Equal(t, "plurality", ce.Field)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		}
	})

	t.Run("PluralityMatchesLayout", func(t *testing.T) {
		cols, _ := stepData(t, 50)
		for _, p := range []float64{0, 0.5, 0.99} {
			tr, err := New(WithPlurality(p))
			require.NoError(t, err)
			lay, err := tr.NewLayout(cols)
			require.NoError(t, err, "plurality %v", p)
			assert.Equal(t, p, lay.Plurality())
		}
	})
}

func TestTrainRegression(t *testing.T) {
	cols, y := stepData(t, 400)
	tr, err := New(WithSampler(sample.All{}), WithMinGain(1e-9))
	require.NoError(t, err)
	lay, err := tr.NewLayout(cols)
	require.NoError(t, err)

	tree, err := tr.Train(context.Background(), lay, Response{Y: y})
	require.NoError(t, err)
	assert.Greater(t, tree.NLeaf(), 1)
	assert.Zero(t, tree.OutOfBag().GetCardinality())

	assert.InDelta(t, 0, tree.Predict([]float64{0.1, 0, 0}), 0.5)
	assert.InDelta(t, 10, tree.Predict([]float64{0.9, 0, 0}), 0.5)

	// Value routing agrees with the rank routing used during training.
	for row := 0; row < lay.NRow(); row++ {
		x := []float64{cols[0][row], cols[1][row], cols[2][row]}
		assert.Equal(t, tree.SampleLeaf(row), tree.LeafOf(x), "row %d", row)
	}
}

func TestTrainForestClassification(t *testing.T) {
	rng := testutil.NewRNG(9)
	x := rng.UniformColumn(300)
	noise := rng.UniformColumn(300)
	ctg := testutil.Threshold(x, 0.3, 0.7)

	metrics := &BasicMetricsCollector{}
	rc := resource.NewController(resource.Config{MaxWorkers: 2})
	tr, err := New(
		WithSeed(3),
		WithMaxDepth(6),
		WithMetricsCollector(metrics),
		WithResourceController(rc),
	)
	require.NoError(t, err)
	lay, err := tr.NewLayout([][]float64{x, noise})
	require.NoError(t, err)

	forest, err := tr.TrainForest(context.Background(), lay, Response{Y: make([]float64, 300), Ctg: ctg, NCtg: 3}, 5)
	require.NoError(t, err)
	require.Len(t, forest.Trees, 5)

	assert.Equal(t, 0.0, forest.Predict([]float64{0.1, 0.5}))
	assert.Equal(t, 1.0, forest.Predict([]float64{0.5, 0.5}))
	assert.Equal(t, 2.0, forest.Predict([]float64{0.9, 0.5}))

	for i, tree := range forest.Trees {
		assert.Equal(t, int64(3+i), tree.Seed)
		assert.LessOrEqual(t, tree.Depth(), 6)
		assert.Positive(t, tree.OutOfBag().GetCardinality())
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(5), stats.TreeCount)
	assert.Zero(t, stats.TreeErrors)
	assert.Positive(t, stats.LevelCount)
	assert.Positive(t, stats.SplitCount)
	assert.Zero(t, rc.MemoryUsage())
}

func TestTrainForestDeterministic(t *testing.T) {
	cols, y := stepData(t, 200)
	train := func(workers int64) *Forest {
		tr, err := New(WithSeed(11), WithPredFixed(2), WithResourceController(resource.NewController(resource.Config{MaxWorkers: workers})))
		require.NoError(t, err)
		lay, err := tr.NewLayout(cols)
		require.NoError(t, err)
		f, err := tr.TrainForest(context.Background(), lay, Response{Y: y}, 4)
		require.NoError(t, err)
		return f
	}
	a, b := train(1), train(4)
	for i := range a.Trees {
		assert.Equal(t, a.Trees[i].NNode(), b.Trees[i].NNode())
		assert.Equal(t, a.Trees[i].Stats, b.Trees[i].Stats)
	}
}

func TestTrainErrors(t *testing.T) {
	cols, y := stepData(t, 50)

	t.Run("EmptyBag", func(t *testing.T) {
		tr, err := New(WithSampler(zeroSampler{}))
		require.NoError(t, err)
		lay, err := tr.NewLayout(cols)
		require.NoError(t, err)
		_, err = tr.Train(context.Background(), lay, Response{Y: y})
		assert.ErrorIs(t, err, ErrEmptyBag)
	})

	t.Run("ResponseLength", func(t *testing.T) {
		tr, err := New()
		require.NoError(t, err)
		lay, err := tr.NewLayout(cols)
		require.NoError(t, err)
		_, err = tr.Train(context.Background(), lay, Response{Y: y[:10]})
		assert.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("MemoryLimit", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 64})
		tr, err := New(WithResourceController(rc))
		require.NoError(t, err)
		lay, err := tr.NewLayout(cols)
		require.NoError(t, err)
		_, err = tr.TrainForest(context.Background(), lay, Response{Y: y}, 2)
		assert.ErrorIs(t, err, ErrBufferOverflow)
	})

	t.Run("Canceled", func(t *testing.T) {
		tr, err := New()
		require.NoError(t, err)
		lay, err := tr.NewLayout(cols)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = tr.Train(ctx, lay, Response{Y: y})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("TreeCount", func(t *testing.T) {
		tr, err := New()
		require.NoError(t, err)
		lay, err := tr.NewLayout(cols)
		require.NoError(t, err)
		_, err = tr.TrainForest(context.Background(), lay, Response{Y: y}, 0)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("SplitterError", func(t *testing.T) {
		tr, err := New()
		require.NoError(t, err)
		lay, err := tr.NewLayout(cols)
		require.NoError(t, err)
		tr.opts.splitter = frontier.SplitterFunc(func(context.Context, *frontier.View, []frontier.Candidate) ([]frontier.Split, error) {
			return nil, errors.New("boom")
		})
		_, err = tr.Train(context.Background(), lay, Response{Y: y})
		assert.EqualError(t, err, "boom")
	})
}

func TestTrainLogs(t *testing.T) {
	cols, y := stepData(t, 100)
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tr, err := New(WithLogger(logger))
	require.NoError(t, err)
	lay, err := tr.NewLayout(cols)
	require.NoError(t, err)
	_, err = tr.Train(context.Background(), lay, Response{Y: y})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"tree trained"`)
	assert.Contains(t, out, `"msg":"level completed"`)
	assert.Contains(t, out, `"tree":0`)
}
