package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/hupe1980/arbor/internal/conv"
)

// FromColumns rank-encodes numeric columns. NaN denotes a missing value.
// All columns must have the same length.
func FromColumns(cols [][]float64, plurality float64) (*Layout, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidLayout)
	}
	nRow := len(cols[0])
	if _, err := conv.IntToUint32(nRow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}

	runs := make([][]RLE, len(cols))
	card := make([]uint32, len(cols))
	values := make([][]float64, len(cols))
	for i, col := range cols {
		if len(col) != nRow {
			return nil, fmt.Errorf("%w: column %d has %d rows, want %d", ErrInvalidLayout, i, len(col), nRow)
		}
		runs[i], values[i] = encodeColumn(col)
		card[i] = uint32(len(values[i]))
	}

	return New(nRow, runs, card, values, plurality)
}

type rankedRow struct {
	value float64
	row   uint32
}

// encodeColumn sorts a column by value, assigns dense ranks to distinct
// values and emits runs of consecutive rows with equal rank. Missing rows
// follow with rank len(values).
func encodeColumn(col []float64) ([]RLE, []float64) {
	obs := make([]rankedRow, 0, len(col))
	var missing []uint32
	for row, v := range col {
		if math.IsNaN(v) {
			missing = append(missing, uint32(row))
			continue
		}
		obs = append(obs, rankedRow{value: v, row: uint32(row)})
	}
	sort.Slice(obs, func(a, b int) bool {
		if obs[a].value != obs[b].value {
			return obs[a].value < obs[b].value
		}
		return obs[a].row < obs[b].row
	})

	var values []float64
	runs := make([]RLE, 0, len(col))
	for i, o := range obs {
		if i == 0 || o.value != obs[i-1].value {
			values = append(values, o.value)
		}
		runs = appendRow(runs, uint32(len(values)-1), o.row)
	}
	missingRank := uint32(len(values))
	for _, row := range missing {
		runs = appendRow(runs, missingRank, row)
	}

	return runs, values
}

func appendRow(runs []RLE, rank, row uint32) []RLE {
	if n := len(runs); n > 0 {
		last := &runs[n-1]
		if last.Rank == rank && last.Row+last.Extent == row {
			last.Extent++
			return runs
		}
	}
	return append(runs, RLE{Rank: rank, Row: row, Extent: 1})
}
