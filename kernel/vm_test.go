package kernel

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/minos-os/minos/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mappedProcess returns a process with the first numPages virtual pages
// mapped writable.
func mappedProcess(t *testing.T, m *machine.Machine, numPages int) *Process {
	t.Helper()
	p := newProcess(1, "test.bin", m)
	for vpn := 0; vpn < numPages; vpn++ {
		_, err := p.Space.MapPage(vpn, false)
		require.NoError(t, err)
	}
	return p
}

func TestReadWriteRoundTrip(t *testing.T) {
	m := testMachine(8)
	p := mappedProcess(t, m, 3)
	pageSize := m.PageSize()

	payload := make([]byte, pageSize+10)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	// Start mid-page so the transfer crosses a page boundary.
	vaddr := pageSize/2 + 3
	n := p.WriteVirtualMemory(vaddr, payload)
	assert.Equal(t, len(payload), n)

	got := make([]byte, len(payload))
	n = p.ReadVirtualMemory(vaddr, got)
	assert.Equal(t, len(payload), n)
	assert.True(t, bytes.Equal(payload, got))
}

func TestPartialTransferStopsAtUnmapped(t *testing.T) {
	m := testMachine(8)
	p := mappedProcess(t, m, 2)
	pageSize := m.PageSize()
	mappedBytes := 2 * pageSize

	vaddr := pageSize + pageSize/2
	contiguous := mappedBytes - vaddr
	payload := make([]byte, contiguous+50)
	for i := range payload {
		payload[i] = 0x5C
	}

	n := p.WriteVirtualMemory(vaddr, payload)
	assert.Equal(t, contiguous, n, "write must stop at the first unmapped page")

	// Bytes already transferred stay transferred.
	got := make([]byte, contiguous)
	assert.Equal(t, contiguous, p.ReadVirtualMemory(vaddr, got))
	assert.True(t, bytes.Equal(payload[:contiguous], got))

	// Reads past the mapped range transfer nothing.
	assert.Equal(t, 0, p.ReadVirtualMemory(mappedBytes, make([]byte, 4)))
	assert.Equal(t, 0, p.ReadVirtualMemory(-1, make([]byte, 4)))
}

func TestWriteReadOnlyAborts(t *testing.T) {
	m := testMachine(8)
	p := newProcess(1, "test.bin", m)
	_, err := p.Space.MapPage(0, false)
	require.NoError(t, err)
	_, err = p.Space.MapPage(1, true)
	require.NoError(t, err)
	pageSize := m.PageSize()

	payload := make([]byte, pageSize)
	for i := range payload {
		payload[i] = 0x7E
	}
	// Spans from the writable page into the read-only one; the call aborts
	// at the protection boundary with the true short count.
	vaddr := pageSize / 2
	n := p.WriteVirtualMemory(vaddr, payload)
	assert.Equal(t, pageSize/2, n)

	// The read-only page was not touched.
	entry, ok := p.Space.Lookup(1)
	require.True(t, ok)
	for _, b := range m.Frame(entry.PPN) {
		require.Equal(t, byte(0), b)
	}

	// A write aimed straight at a read-only page moves nothing.
	assert.Equal(t, 0, p.WriteVirtualMemory(pageSize, []byte{1}))
	// Reading it is fine.
	assert.Equal(t, 1, p.ReadVirtualMemory(pageSize, make([]byte, 1)))
}

func TestWriteReadOnlyLogsToProcessLogger(t *testing.T) {
	m := testMachine(8)
	p := newProcess(1, "test.bin", m)
	_, err := p.Space.MapPage(0, true)
	require.NoError(t, err)

	var logged bytes.Buffer
	p.setLogger(slog.New(slog.NewTextHandler(&logged, nil)))

	assert.Equal(t, 0, p.WriteVirtualMemory(0, []byte{1}))
	assert.Contains(t, logged.String(), "write to read-only page")
	assert.Contains(t, logged.String(), "pid=1")
}

func TestTransferCountMatchesBytesMoved(t *testing.T) {
	m := testMachine(8)
	p := mappedProcess(t, m, 1)

	payload := []byte("precise")
	n := p.WriteVirtualMemory(4, payload)
	require.Equal(t, len(payload), n)

	got := make([]byte, len(payload))
	n = p.ReadVirtualMemoryAt(4, got, 0, len(got))
	require.Equal(t, len(payload), n)
	assert.Equal(t, payload, got)
}

func TestBufferRangeContract(t *testing.T) {
	m := testMachine(8)
	p := mappedProcess(t, m, 1)
	buf := make([]byte, 8)

	assert.Panics(t, func() { p.ReadVirtualMemoryAt(0, buf, -1, 4) })
	assert.Panics(t, func() { p.ReadVirtualMemoryAt(0, buf, 0, -4) })
	assert.Panics(t, func() { p.WriteVirtualMemoryAt(0, buf, 6, 4) })
}

func TestReadVirtualMemoryString(t *testing.T) {
	m := testMachine(8)
	p := mappedProcess(t, m, 1)

	n := p.WriteVirtualMemory(10, []byte("hello\x00trailing"))
	require.Equal(t, 15, n)

	s, ok := p.ReadVirtualMemoryString(10, 32)
	require.True(t, ok)
	assert.Equal(t, "hello", s)

	// Terminator outside the bound.
	_, ok = p.ReadVirtualMemoryString(10, 3)
	assert.False(t, ok)

	// Unmapped region has no terminator to find.
	_, ok = p.ReadVirtualMemoryString(m.PageSize()*4, 8)
	assert.False(t, ok)
}
