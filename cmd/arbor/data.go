package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/hupe1980/arbor/codec"
	"github.com/hupe1980/arbor/resource"
)

// dataset is a CSV frame split into predictor columns and a response.
type dataset struct {
	names  []string
	cols   [][]float64
	y      []float64
	ctg    []uint32
	labels []string
}

func (d *dataset) nRow() int { return len(d.y) }

// missing reports whether a field denotes a missing observation.
func missing(field string) bool {
	switch strings.TrimSpace(field) {
	case "", "NA", "NaN", "nan", "?":
		return true
	}
	return false
}

// readDataset parses a CSV with a header row. Predictor fields must be
// numeric or missing. A classify response is read as labels.
func readDataset(r io.Reader, response string, classify bool) (*dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	respCol := -1
	d := &dataset{}
	var predCols []int
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == response {
			respCol = i
			continue
		}
		predCols = append(predCols, i)
		d.names = append(d.names, name)
	}
	if respCol < 0 {
		return nil, fmt.Errorf("response column %q not in header", response)
	}
	if len(predCols) == 0 {
		return nil, errors.New("no predictor columns")
	}
	d.cols = make([][]float64, len(predCols))

	labelIdx := make(map[string]uint32)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		for p, col := range predCols {
			v := math.NaN()
			if !missing(rec[col]) {
				v, err = strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
				if err != nil {
					return nil, fmt.Errorf("line %d, column %q: %w", line, d.names[p], err)
				}
			}
			d.cols[p] = append(d.cols[p], v)
		}

		field := strings.TrimSpace(rec[respCol])
		if classify {
			if missing(field) {
				return nil, fmt.Errorf("line %d: response label is missing", line)
			}
			k, ok := labelIdx[field]
			if !ok {
				k = uint32(len(d.labels))
				labelIdx[field] = k
				d.labels = append(d.labels, field)
			}
			d.ctg = append(d.ctg, k)
			d.y = append(d.y, 0)
			continue
		}
		y, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(y) {
			return nil, fmt.Errorf("line %d: response %q is not a number", line, field)
		}
		d.y = append(d.y, y)
	}

	if d.nRow() == 0 {
		return nil, errors.New("no data rows")
	}
	return d, nil
}

type multiCloser []io.Closer

func (mc multiCloser) Close() error {
	var errs []error
	for _, c := range mc {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type readCloser struct {
	io.Reader
	io.Closer
}

// openInput opens path, or stdin for "" and "-", throttled by rc and
// decompressed by extension.
func openInput(ctx context.Context, path string, rc *resource.Controller) (io.ReadCloser, error) {
	var (
		src     io.Reader = os.Stdin
		closers multiCloser
	)
	if path != "" && path != "-" {
		f, err := os.Open(path) //nolint:gosec // G304: path is user input by design
		if err != nil {
			return nil, err
		}
		src = f
		closers = append(closers, f)
	}

	dec, err := codec.NewReader(resource.NewRateLimitedReader(ctx, src, rc), codec.CompressionFromPath(path))
	if err != nil {
		_ = closers.Close()
		return nil, err
	}
	return readCloser{Reader: dec, Closer: append(multiCloser{dec}, closers...)}, nil
}

// writeOutput encodes v with cd to path, or stdout for "" and "-",
// compressed by extension.
func writeOutput(path string, cd codec.Codec, v any) (err error) {
	if path == "" || path == "-" {
		return codec.Encode(os.Stdout, cd, codec.CompressionNone, v)
	}

	f, err := os.Create(path) //nolint:gosec // G304: path is user input by design
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return codec.Encode(f, cd, codec.CompressionFromPath(path), v)
}
