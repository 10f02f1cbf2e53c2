package main

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/arbor/codec"
)

const irisLike = `sepal,petal,species
5.1,1.4,setosa
4.9,NA,setosa
6.3,4.9,versicolor
,5.6,virginica
5.8,4.0,versicolor
`

func TestReadDataset(t *testing.T) {
	t.Run("Classify", func(t *testing.T) {
		ds, err := readDataset(strings.NewReader(irisLike), "species", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"sepal", "petal"}, ds.names)
		assert.Equal(t, 5, ds.nRow())
		assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, ds.labels)
		assert.Equal(t, []uint32{0, 0, 1, 2, 1}, ds.ctg)
		assert.True(t, math.IsNaN(ds.cols[1][1]))
		assert.True(t, math.IsNaN(ds.cols[0][3]))
		assert.InDelta(t, 6.3, ds.cols[0][2], 1e-12)
	})

	t.Run("Regression", func(t *testing.T) {
		ds, err := readDataset(strings.NewReader("x,y\n1,10\n2,20\n?,30\n"), "y", false)
		require.NoError(t, err)
		assert.Equal(t, []float64{10, 20, 30}, ds.y)
		assert.Nil(t, ds.labels)
		assert.True(t, math.IsNaN(ds.cols[0][2]))
	})

	t.Run("Errors", func(t *testing.T) {
		cases := map[string]struct {
			data     string
			response string
			classify bool
		}{
			"UnknownResponse": {"x,y\n1,2\n", "z", false},
			"NoPredictors":    {"y\n1\n", "y", false},
			"NoRows":          {"x,y\n", "y", false},
			"BadPredictor":    {"x,y\nabc,2\n", "y", false},
			"MissingResponse": {"x,y\n1,\n", "y", false},
			"NonNumeric":      {"x,y\n1,red\n", "y", false},
			"Empty":           {"", "y", true},
			"RaggedRecord":    {"x,y\n1,2,3\n", "y", false},
			"BlankLabel":      {"x,y\n1,a\n2,\n", "y", true},
			"NALabel":         {"x,y\n1,a\n2,NA\n", "y", true},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := readDataset(strings.NewReader(tc.data), tc.response, tc.classify)
				require.Error(t, err)
			})
		}
	})
}

func TestInputOutputCompression(t *testing.T) {
	for _, ext := range []string{".csv", ".csv.zst", ".csv.lz4"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data"+ext)
			f, err := os.Create(path)
			require.NoError(t, err)
			w, err := codec.NewWriter(f, codec.CompressionFromPath(path))
			require.NoError(t, err)
			_, err = io.WriteString(w, irisLike)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			require.NoError(t, f.Close())

			in, err := openInput(context.Background(), path, nil)
			require.NoError(t, err)
			ds, err := readDataset(in, "species", true)
			require.NoError(t, err)
			require.NoError(t, in.Close())
			assert.Equal(t, 5, ds.nRow())
		})
	}

	t.Run("MissingFile", func(t *testing.T) {
		_, err := openInput(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), nil)
		require.Error(t, err)
	})

	t.Run("WriteCompressed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json.zst")
		require.NoError(t, writeOutput(path, codec.JSON{}, map[string]int{"trees": 3}))

		f, err := os.Open(path)
		require.NoError(t, err)
		defer f.Close()

		var got map[string]int
		require.NoError(t, codec.Decode(f, codec.JSON{}, codec.CompressionZSTD, &got))
		assert.Equal(t, 3, got["trees"])
	})
}
