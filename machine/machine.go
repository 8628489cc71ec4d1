// Package machine models the physical resources of the simulated computer:
// a flat byte array of main memory divided into page frames, the shared pool
// that accounts for frame ownership, and the halt signal that stops the
// whole simulation.
package machine

import (
	"sync"
)

// Machine owns the simulated physical memory and the page pool carved out
// of it. A single Machine is shared by every process in the system.
type Machine struct {
	config   Config
	memory   []byte
	pool     *PagePool
	halt     chan struct{}
	haltOnce sync.Once
}

// New creates a machine with the supplied geometry. The configuration must
// have been validated beforehand.
func New(config Config) *Machine {
	return &Machine{
		config: config,
		memory: make([]byte, config.PageSize*config.NumPhysPages),
		pool:   NewPagePool(config.NumPhysPages),
		halt:   make(chan struct{}),
	}
}

// Config returns the machine geometry.
func (m *Machine) Config() Config {
	return m.config
}

// PageSize returns the page size in bytes.
func (m *Machine) PageSize() int {
	return m.config.PageSize
}

// NumPhysPages returns the number of physical page frames.
func (m *Machine) NumPhysPages() int {
	return m.config.NumPhysPages
}

// Memory exposes the raw physical memory. Callers index it by physical
// address; translation is the kernel's job.
func (m *Machine) Memory() []byte {
	return m.memory
}

// Frame returns the slice of physical memory backing one page frame.
func (m *Machine) Frame(ppn int) []byte {
	base := ppn * m.config.PageSize
	return m.memory[base : base+m.config.PageSize]
}

// Pool returns the shared physical page pool.
func (m *Machine) Pool() *PagePool {
	return m.pool
}

// Halt stops the machine. The first call wins; subsequent calls are no-ops.
func (m *Machine) Halt() {
	m.haltOnce.Do(func() {
		close(m.halt)
	})
}

// Halted returns a channel closed once the machine has been halted.
func (m *Machine) Halted() <-chan struct{} {
	return m.halt
}
