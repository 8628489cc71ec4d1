package kernel

import (
	"testing"

	"github.com/minos-os/minos/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMachine(numPages int) *machine.Machine {
	config := machine.DefaultConfig()
	config.PageSize = 64
	config.NumPhysPages = numPages
	config.StackPages = 2
	return machine.New(config)
}

func TestAddressSpaceMapAndLookup(t *testing.T) {
	m := testMachine(4)
	space := NewAddressSpace(m)

	entry, err := space.MapPage(0, false)
	require.NoError(t, err)
	assert.True(t, entry.Valid)
	assert.Equal(t, 0, entry.VPN)

	got, ok := space.Lookup(0)
	require.True(t, ok)
	assert.Equal(t, entry.PPN, got.PPN)

	_, ok = space.Lookup(1)
	assert.False(t, ok, "unmapped page must yield no-mapping, not an error")
	_, ok = space.Lookup(-1)
	assert.False(t, ok)
	_, ok = space.Lookup(99)
	assert.False(t, ok)
}

func TestAddressSpaceDoubleMapPanics(t *testing.T) {
	m := testMachine(4)
	space := NewAddressSpace(m)
	_, err := space.MapPage(0, false)
	require.NoError(t, err)
	assert.Panics(t, func() {
		_, _ = space.MapPage(0, false)
	})
}

func TestAddressSpaceExhaustion(t *testing.T) {
	m := testMachine(3)
	space := NewAddressSpace(m)
	for vpn := 0; vpn < 3; vpn++ {
		_, err := space.MapPage(vpn, false)
		require.NoError(t, err)
	}
	// Table has room only for NumPhysPages entries, so exhaust via a second
	// space.
	other := NewAddressSpace(m)
	_, err := other.MapPage(0, false)
	assert.ErrorIs(t, err, ErrNoFreePages)
	assert.Equal(t, 0, m.Pool().FreeCount())

	space.ReleaseAll()
	assert.Equal(t, 3, m.Pool().FreeCount())
	_, ok := space.Lookup(0)
	assert.False(t, ok, "released mappings must be invalid")
}

func TestAddressSpacesDisjoint(t *testing.T) {
	m := testMachine(8)
	first := NewAddressSpace(m)
	second := NewAddressSpace(m)

	held := map[int]bool{}
	for vpn := 0; vpn < 3; vpn++ {
		entry, err := first.MapPage(vpn, false)
		require.NoError(t, err)
		held[entry.PPN] = true
	}
	for vpn := 0; vpn < 3; vpn++ {
		entry, err := second.MapPage(vpn, false)
		require.NoError(t, err)
		assert.False(t, held[entry.PPN], "page %d leased to both spaces", entry.PPN)
	}
	assert.Equal(t, m.Pool().Total(), m.Pool().FreeCount()+m.Pool().UsedCount())
}

func TestReleaseAllZeroesFrames(t *testing.T) {
	m := testMachine(2)
	space := NewAddressSpace(m)
	entry, err := space.MapPage(0, false)
	require.NoError(t, err)
	frame := m.Frame(entry.PPN)
	for i := range frame {
		frame[i] = 0xAB
	}
	space.ReleaseAll()

	reused, ok := m.Pool().Acquire()
	require.True(t, ok)
	for _, b := range m.Frame(reused.PPN) {
		require.Equal(t, byte(0), b, "released frame must be zeroed")
	}
}
