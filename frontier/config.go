package frontier

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/hupe1980/arbor/internal/path"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid frontier config")

// IndexMode selects how staged cells key their samples.
type IndexMode int

const (
	// IndexAuto switches to node-relative indexing once front nodes are
	// small relative to the bag.
	IndexAuto IndexMode = iota
	// IndexSubtree always keys cells by sample index.
	IndexSubtree
	// IndexNode keys cells by front slot from the first split on.
	IndexNode
)

func (m IndexMode) String() string {
	switch m {
	case IndexAuto:
		return "auto"
	case IndexSubtree:
		return "subtree"
	case IndexNode:
		return "node"
	default:
		return fmt.Sprintf("IndexMode(%d)", int(m))
	}
}

// ParseIndexMode parses the String form of an IndexMode.
func ParseIndexMode(s string) (IndexMode, error) {
	switch s {
	case "", "auto":
		return IndexAuto, nil
	case "subtree":
		return IndexSubtree, nil
	case "node":
		return IndexNode, nil
	}
	return 0, fmt.Errorf("%w: unknown index mode %q", ErrInvalidConfig, s)
}

const relMax = 1 << 15

// localizes reports whether node-relative indexing pays off: the largest
// front node fits a narrow index while the bag is large.
func localizes(bagCount, idxMax int) bool {
	return idxMax <= relMax && bagCount > 3*relMax
}

// Config parameterizes induction of one tree.
type Config struct {
	// MinNode is the smallest sample count a node needs to be split.
	MinNode int
	// MaxDepth bounds node depth, root at 0. Zero means unlimited.
	MaxDepth int
	// Efficiency is the fraction of outstanding back-definition cost
	// flushed eagerly each level, in [0, 1].
	Efficiency float64
	// PathWindow is the number of levels a definition may lag the front.
	PathWindow int
	// PredFixed is the number of predictors drawn per node; zero or
	// more than the predictor count selects all.
	PredFixed int
	IndexMode IndexMode
	// TrackRuns makes restaging emit per-node run tables.
	TrackRuns bool
	Workers   int
	Seed      int64
}

// DefaultConfig returns the default induction parameters.
func DefaultConfig() Config {
	return Config{
		MinNode:    2,
		Efficiency: 0.5,
		PathWindow: path.MaxWindow,
		IndexMode:  IndexAuto,
		Workers:    runtime.GOMAXPROCS(0),
	}
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	switch {
	case c.MinNode < 2:
		return fmt.Errorf("%w: MinNode %d below 2", ErrInvalidConfig, c.MinNode)
	case c.MaxDepth < 0:
		return fmt.Errorf("%w: negative MaxDepth %d", ErrInvalidConfig, c.MaxDepth)
	case c.Efficiency < 0 || c.Efficiency > 1:
		return fmt.Errorf("%w: Efficiency %v outside [0, 1]", ErrInvalidConfig, c.Efficiency)
	case c.PathWindow < 1 || c.PathWindow > path.MaxWindow:
		return fmt.Errorf("%w: PathWindow %d outside [1, %d]", ErrInvalidConfig, c.PathWindow, path.MaxWindow)
	case c.PredFixed < 0:
		return fmt.Errorf("%w: negative PredFixed %d", ErrInvalidConfig, c.PredFixed)
	case c.IndexMode < IndexAuto || c.IndexMode > IndexNode:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.IndexMode)
	case c.Workers < 1:
		return fmt.Errorf("%w: Workers %d below 1", ErrInvalidConfig, c.Workers)
	}
	return nil
}
