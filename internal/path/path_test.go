package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	p := Next(0, true)
	assert.Equal(t, uint8(0), p)
	p = Next(p, false)
	assert.Equal(t, uint8(1), p)
	p = Next(p, true)
	assert.Equal(t, uint8(2), p)

	// Bits older than the window fall off.
	full := uint8(0x7F)
	assert.Equal(t, uint8(0x7E), Next(full, true))
	assert.Zero(t, Next(full, true)&Extinct)
}

func TestMask(t *testing.T) {
	assert.Equal(t, uint8(0), Mask(0))
	assert.Equal(t, uint8(1), Mask(1))
	assert.Equal(t, uint8(0x7F), Mask(MaxWindow))

	// Path order equals tree order under every mask.
	ll := Next(Next(0, true), true)
	lr := Next(Next(0, true), false)
	rl := Next(Next(0, false), true)
	assert.Less(t, ll&Mask(2), lr&Mask(2))
	assert.Less(t, lr&Mask(2), rl&Mask(2))
	assert.Equal(t, uint8(1), rl&Mask(2)>>1)
}

func TestIdxPath_LiveExtinct(t *testing.T) {
	p := NewRootPath(4)
	path, front, live := p.Reach(2, Mask(1))
	require.True(t, live)
	assert.Equal(t, uint8(0), path)
	assert.Equal(t, uint32(2), front)

	p.SetLive(2, 0x03, 9)
	path, front, live = p.Reach(2, Mask(1))
	require.True(t, live)
	assert.Equal(t, uint8(1), path)
	assert.Equal(t, uint32(9), front)

	p.SetExtinct(2)
	_, _, live = p.Reach(2, Mask(3))
	assert.False(t, live)
	assert.False(t, p.IsLive(2))
	assert.True(t, p.IsLive(3))

	assert.False(t, NewIdxPath(2).IsLive(0))
}

func TestIdxPath_Backdate(t *testing.T) {
	// Layer one: slots 0..3 of the level just split.
	one := NewIdxPath(4)
	one.SetLive(0, 0x2, 10)
	one.SetLive(1, 0x3, 12)
	one.SetExtinct(2)
	one.SetLive(3, 0x2, 11)

	// An older layer whose entries point at layer one's slots.
	old := NewIdxPath(3)
	old.SetLive(0, 0x1, 3)
	old.SetLive(1, 0x1, 2)
	old.SetLive(2, 0x0, 1)

	old.Backdate(one)

	path, front, live := old.Reach(0, Mask(2))
	require.True(t, live)
	assert.Equal(t, uint8(0x2), path)
	assert.Equal(t, uint32(11), front)

	assert.False(t, old.IsLive(1))

	path, front, live = old.Reach(2, Mask(2))
	require.True(t, live)
	assert.Equal(t, uint8(0x3), path)
	assert.Equal(t, uint32(12), front)
}

func TestNodePath(t *testing.T) {
	np := EmptyNodePath()
	_, ok := np.Front()
	assert.False(t, ok)

	np.Init(5, 20, 7)
	front, ok := np.Front()
	require.True(t, ok)
	assert.Equal(t, 5, front)
	start, extent := np.Range()
	assert.Equal(t, 20, start)
	assert.Equal(t, 7, extent)
}
