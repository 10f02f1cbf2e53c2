package path

const (
	// MaxWindow is the deepest ancestor a path can address.
	MaxWindow = 7

	// Extinct marks a sample no longer reaching the front.
	Extinct uint8 = 0x80

	maskLive uint8 = Extinct - 1

	// NoFront marks a NodePath without a live front node.
	NoFront = -1
)

// Next extends a path by one branch.
func Next(prev uint8, left bool) uint8 {
	if left {
		return maskLive & (prev << 1)
	}
	return maskLive & (prev<<1 | 1)
}

// Mask selects the branches taken over the last del levels.
func Mask(del int) uint8 {
	return uint8(1<<del - 1)
}

// IdxPath records, per key, the path reaching the front and the key's
// front slot.
type IdxPath struct {
	path  []uint8
	front []uint32
}

// NewIdxPath creates n extinct entries.
func NewIdxPath(n int) *IdxPath {
	p := &IdxPath{
		path:  make([]uint8, n),
		front: make([]uint32, n),
	}
	for i := range p.path {
		p.path[i] = Extinct
	}
	return p
}

// NewRootPath creates n live entries, each at the root with its key as
// front slot.
func NewRootPath(n int) *IdxPath {
	p := &IdxPath{
		path:  make([]uint8, n),
		front: make([]uint32, n),
	}
	for i := range p.front {
		p.front[i] = uint32(i)
	}
	return p
}

// Len returns the number of keys.
func (p *IdxPath) Len() int { return len(p.path) }

// SetLive records the path and front slot of a key.
func (p *IdxPath) SetLive(key uint32, path uint8, front uint32) {
	p.path[key] = path & maskLive
	p.front[key] = front
}

// SetExtinct marks a key as no longer reaching the front.
func (p *IdxPath) SetExtinct(key uint32) {
	p.path[key] = Extinct
}

// IsLive reports whether the key reaches the front.
func (p *IdxPath) IsLive(key uint32) bool {
	return p.path[key]&Extinct == 0
}

// Path returns the raw path byte of a key.
func (p *IdxPath) Path(key uint32) uint8 { return p.path[key] }

// Front returns the front slot of a key. Undefined for extinct keys.
func (p *IdxPath) Front(key uint32) uint32 { return p.front[key] }

// Reach returns the masked path and front slot of a key.
func (p *IdxPath) Reach(key uint32, mask uint8) (uint8, uint32, bool) {
	path := p.path[key]
	if path&Extinct != 0 {
		return 0, 0, false
	}
	return path & mask, p.front[key], true
}

// Backdate brings a node-relative path of an older layer up to date from
// the path of the layer one level back. Each live entry's front slot is an
// index into one; the entry takes over one's path and front slot, or goes
// extinct with it.
func (p *IdxPath) Backdate(one *IdxPath) {
	for key := range p.path {
		if p.path[key]&Extinct != 0 {
			continue
		}
		oneKey := p.front[key]
		if !one.IsLive(oneKey) {
			p.path[key] = Extinct
			continue
		}
		p.path[key] = one.path[oneKey]
		p.front[key] = one.front[oneKey]
	}
}

// NodePath locates the front node reached along one path from an ancestor.
type NodePath struct {
	front  int
	start  int
	extent int
}

// EmptyNodePath returns a NodePath reaching no front node.
func EmptyNodePath() NodePath {
	return NodePath{front: NoFront}
}

// Init records the front node and its root-space range.
func (np *NodePath) Init(front, start, extent int) {
	np.front = front
	np.start = start
	np.extent = extent
}

// Front returns the reached front node.
func (np NodePath) Front() (int, bool) {
	return np.front, np.front != NoFront
}

// Range returns the reached node's start and extent.
func (np NodePath) Range() (int, int) {
	return np.start, np.extent
}
