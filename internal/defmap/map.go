package defmap

import (
	"fmt"

	"github.com/hupe1980/arbor/internal/path"
	"github.com/hupe1980/arbor/obs"
)

// Config parameterizes a Map.
type Config struct {
	NPred    int
	BagCount int
	// Window is the deepest layer distance a definition may reach.
	Window int
	// Efficiency is the fraction of outstanding back-layer cost that
	// FlushRear may restage eagerly.
	Efficiency float64
	TrackRuns  bool
}

// Restage is a queued restage of one MRRA.
type Restage struct {
	Del   int
	Coord Coord
	Def   Def
}

// Stats counts definition traffic.
type Stats struct {
	Defined     int64
	Flushed     int64
	Purged      int64
	Restaged    int64
	DefinedCost int64
	FlushedCost int64
}

// Map is the definition registry of one tree.
type Map struct {
	cfg    Config
	layers []*Layer

	// history[node + splitCount*(del-1)] is the ancestor at layer del.
	history     []int
	historyPrev []int
	splitCount  int
	splitPrev   int

	// Layer distance of each front pair's reaching definition.
	delta     []uint8
	deltaPrev []uint8

	stPath  *path.IdxPath
	pending []Restage
	stats   Stats
}

func contractf(format string, args ...any) {
	panic(fmt.Errorf("%w: "+format, append([]any{obs.ErrContract}, args...)...))
}

// New creates a map whose front holds the single root node.
func New(cfg Config, root obs.Range) *Map {
	if cfg.Window < 1 || cfg.Window > path.MaxWindow {
		contractf("path window %d outside [1, %d]", cfg.Window, path.MaxWindow)
	}
	return &Map{
		cfg:        cfg,
		layers:     []*Layer{newLayer([]obs.Range{root}, cfg.NPred, nil)},
		splitCount: 1,
		delta:      make([]uint8, cfg.NPred),
		stPath:     path.NewRootPath(cfg.BagCount),
	}
}

// Front returns layer 0.
func (m *Map) Front() *Layer { return m.layers[0] }

// Layer returns the layer at distance del.
func (m *Map) Layer(del int) *Layer { return m.layers[del] }

// NLayer returns the number of layers, front included.
func (m *Map) NLayer() int { return len(m.layers) }

// SubtreePath returns the sample-indexed path.
func (m *Map) SubtreePath() *path.IdxPath { return m.stPath }

// Stats returns cumulative counters.
func (m *Map) Stats() Stats { return m.stats }

// RootDefine seeds the root definition of a predictor from its staging.
func (m *Map) RootDefine(pred int, res obs.StageResult) {
	m.addDef(0, pred, Def{
		Count:    res.Explicit,
		Implicit: res.Implicit,
		Missing:  res.Missing,
		RunCount: res.RunCount,
		Runs:     res.Runs,
	}, res.Singleton)
}

// HistoryLookup returns the ancestor at layer del of a front node.
func (m *Map) HistoryLookup(del, node int) int {
	if del == 0 {
		return node
	}
	if del >= len(m.layers) {
		contractf("history lookup at distance %d beyond %d layers", del, len(m.layers))
	}
	return m.history[node+m.splitCount*(del-1)]
}

func (m *Map) reaching(c Coord) (*Layer, int) {
	del := int(m.delta[c.Node*m.cfg.NPred+c.Pred])
	return m.layers[del], m.HistoryLookup(del, c.Node)
}

// IsDefined reports whether a front pair reaches a live definition. A pair
// whose MRRA is queued for restaging is undefined until ApplyRestage.
func (m *Map) IsDefined(c Coord) bool {
	l, anc := m.reaching(c)
	return l.isDefined(anc, c.Pred)
}

// IsSingleton reports whether a front pair's reaching definition has a
// single run.
func (m *Map) IsSingleton(c Coord) bool {
	l, anc := m.reaching(c)
	return l.isDefined(anc, c.Pred) && l.isSingleton(anc, c.Pred)
}

// LookupDef returns the front definition of a pair if it is staged at the
// front and splitable.
func (m *Map) LookupDef(c Coord) (Def, bool) {
	front := m.layers[0]
	if m.delta[c.Node*m.cfg.NPred+c.Pred] != 0 || !front.isDefined(c.Node, c.Pred) || front.isSingleton(c.Node, c.Pred) {
		return Def{}, false
	}
	return front.defs[front.offset(c.Node, c.Pred)], true
}

// FrontDef returns the front definition of a pair chosen for splitting.
// The pair must be staged at the front and not singleton.
func (m *Map) FrontDef(c Coord) Def {
	d, ok := m.LookupDef(c)
	if !ok {
		contractf("pair (%d, %d) split without a splitable front definition", c.Node, c.Pred)
	}
	return d
}

// FlushDef forces the reaching definition of a front pair toward the front.
func (m *Map) FlushDef(c Coord) {
	l, anc := m.reaching(c)
	m.flushDef(l, anc, c.Pred)
}

func (m *Map) flushDef(l *Layer, node, pred int) {
	if l.del == 0 || !l.isDefined(node, pred) {
		return
	}
	d, singleton := l.undefine(node, pred)
	m.stats.Flushed++
	m.stats.FlushedCost += int64(l.ranges[node].Extent)

	if !singleton {
		m.pending = append(m.pending, Restage{Del: l.del, Coord: Coord{Node: node, Pred: pred}, Def: d})
		return
	}
	// Descendants of a singleton are singletons: define them without
	// moving any cells.
	for _, t := range l.targets(node) {
		if t.Node == path.NoFront {
			continue
		}
		m.addDef(t.Node, pred, Def{Parity: 1 - d.Parity, RunCount: 1}, true)
	}
}

func (m *Map) flushLayer(l *Layer) {
	for node := range l.ranges {
		for pred := 0; pred < m.cfg.NPred; pred++ {
			m.flushDef(l, node, pred)
		}
	}
}

func (m *Map) purge(l *Layer) {
	for node, live := range l.live {
		if live != 0 {
			continue
		}
		for pred := 0; pred < m.cfg.NPred; pred++ {
			if l.isDefined(node, pred) {
				l.undefine(node, pred)
				m.stats.Purged++
			}
		}
	}
}

// FlushRear runs the per-level eviction: capacity flush of the rear layer,
// purge of unreachable definitions, then greedy flushing of whole layers
// from the rear while their cumulative cost fits the efficiency budget.
func (m *Map) FlushRear() {
	if len(m.layers) < 2 {
		return
	}

	rear := m.layers[len(m.layers)-1]
	if rear.del >= m.cfg.Window {
		m.flushLayer(rear)
	}

	var total int64
	for _, l := range m.layers[1:] {
		m.purge(l)
		total += l.cost
	}

	budget := int64(m.cfg.Efficiency * float64(total))
	var spent int64
	for i := len(m.layers) - 1; i > 0; i-- {
		l := m.layers[i]
		if l.cost == 0 {
			continue
		}
		if spent+l.cost > budget {
			break
		}
		spent += l.cost
		m.flushLayer(l)
	}
}

// TakeRestages returns and clears the queued restages.
func (m *Map) TakeRestages() []Restage {
	out := m.pending
	m.pending = nil
	return out
}

// RestageRequest builds the partition request for a queued restage. The
// request only reads map state and may run concurrently with others.
func (m *Map) RestageRequest(r Restage) *obs.RestageRequest {
	l := m.layers[r.Del]
	return &obs.RestageRequest{
		Pred:      r.Coord.Pred,
		Source:    r.Def.Parity,
		Start:     r.Def.Start,
		Count:     r.Def.Count,
		Dense:     r.Def.Dense(),
		Reach:     m.reacher(l),
		Targets:   l.targets(r.Coord.Node),
		TrackRuns: m.cfg.TrackRuns,
	}
}

// ApplyRestage defines the front descendants reported by a restage.
func (m *Map) ApplyRestage(r Restage, results []obs.RestageResult) {
	m.stats.Restaged++
	for _, res := range results {
		m.AddDef(Coord{Node: res.Node, Pred: r.Coord.Pred}, 1-r.Def.Parity, res)
	}
}

// AddDef defines a front pair from its restage summary.
func (m *Map) AddDef(c Coord, parity int, res obs.RestageResult) {
	m.addDef(c.Node, c.Pred, Def{
		Parity:   parity,
		Start:    res.Start,
		Count:    res.Count,
		Margin:   res.Margin,
		Implicit: res.Implicit,
		Missing:  res.Missing,
		RunCount: res.RunCount,
		Runs:     res.Runs,
	}, res.Singleton)
}

func (m *Map) addDef(node, pred int, d Def, singleton bool) {
	front := m.layers[0]
	if !front.define(node, pred, d, singleton) {
		contractf("pair (%d, %d) defined twice", node, pred)
	}
	m.delta[node*m.cfg.NPred+pred] = 0
	m.stats.Defined++
	m.stats.DefinedCost += int64(front.ranges[node].Extent)
}

// EraseLayers drops empty layers from the rear.
func (m *Map) EraseLayers() {
	for len(m.layers) > 1 && m.layers[len(m.layers)-1].DefCount() == 0 {
		m.layers[len(m.layers)-1] = nil
		m.layers = m.layers[:len(m.layers)-1]
	}
}

// Overlap pushes a new front of len(ranges) nodes. Callers then register
// each node with ReachingPath and finish with Backdate.
func (m *Map) Overlap(ranges []obs.Range, nodeRel bool) {
	if len(m.layers) > m.cfg.Window {
		contractf("%d layers would exceed path window %d", len(m.layers)+1, m.cfg.Window)
	}
	var rel *path.IdxPath
	if nodeRel {
		rel = path.NewIdxPath(m.cfg.BagCount)
	}

	m.splitPrev = m.splitCount
	m.splitCount = len(ranges)
	m.layers = append([]*Layer{newLayer(ranges, m.cfg.NPred, rel)}, m.layers...)
	for _, l := range m.layers[1:] {
		l.reachingPaths()
	}

	m.historyPrev = m.history
	m.history = make([]int, m.splitCount*(len(m.layers)-1))
	m.deltaPrev = m.delta
	m.delta = make([]uint8, m.splitCount*m.cfg.NPred)
}

// ReachingPath registers front node with its parent in the previous front
// and the path bits it was reached by.
func (m *Map) ReachingPath(node, parent int, pathBits uint8) {
	for k := 0; k < len(m.layers)-1; k++ {
		if k == 0 {
			m.history[node] = parent
		} else {
			m.history[node+m.splitCount*k] = m.historyPrev[parent+m.splitPrev*(k-1)]
		}
	}

	nPred := m.cfg.NPred
	for p := 0; p < nPred; p++ {
		m.delta[node*nPred+p] = m.deltaPrev[parent*nPred+p] + 1
	}

	r := m.layers[0].ranges[node]
	for del := 1; del < len(m.layers); del++ {
		m.layers[del].pathInit(m.HistoryLookup(del, node), pathBits, node, r)
	}
}

// SetLive records a sample's successor path and slot. slot is the sample's
// position in the front being replaced.
func (m *Map) SetLive(sample, slot uint32, pathBits uint8, next uint32) {
	m.stPath.SetLive(sample, pathBits, next)
	if rel := m.layers[0].relPath; rel != nil {
		rel.SetLive(slot, pathBits, next)
	}
}

// SetExtinct marks a sample whose node became terminal.
func (m *Map) SetExtinct(sample, slot uint32) {
	m.stPath.SetExtinct(sample)
	if rel := m.layers[0].relPath; rel != nil {
		rel.SetExtinct(slot)
	}
}

// Backdate refreshes older node-relative layers from layer 1.
func (m *Map) Backdate() {
	if len(m.layers) < 3 {
		return
	}
	one := m.layers[1].relPath
	if one == nil {
		return
	}
	for _, l := range m.layers[2:] {
		if l.relPath != nil {
			l.relPath.Backdate(one)
		}
	}
}

// reacher resolves source keys of a layer's definitions.
type reacher struct {
	idx  *path.IdxPath
	mask uint8
	// Whether target keys are front slots rather than sample indices.
	slotKey bool
}

func (r reacher) Reach(key uint32) (uint8, uint32, bool) {
	p, front, live := r.idx.Reach(key, r.mask)
	if r.slotKey {
		return p, front, live
	}
	return p, key, live
}

func (m *Map) reacher(l *Layer) reacher {
	mask := path.Mask(l.del)
	if l.relPath != nil {
		return reacher{idx: l.relPath, mask: mask, slotKey: true}
	}
	return reacher{idx: m.stPath, mask: mask, slotKey: m.layers[0].relPath != nil}
}
