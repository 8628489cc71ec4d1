package kernel

import (
	"sync"

	"github.com/minos-os/minos/machine"
)

// Registry assigns process ids and owns the parent/child forest. One mutex
// guards the id counter, the pid lookup table and every parent/child edge,
// so a child registered by exec is always visible to a later exit-time scan
// of the parent's children.
type Registry struct {
	mu        sync.Mutex
	nextID    int
	processes map[int]*Process
}

// NewRegistry creates an empty registry; the first spawned process gets
// id 0.
func NewRegistry() *Registry {
	return &Registry{processes: make(map[int]*Process)}
}

// Spawn constructs a process with the next id and, when parent is non-nil,
// links it as the parent's child. Id allocation, table insert and edge
// creation happen in one critical section.
func (r *Registry) Spawn(m *machine.Machine, parent *Process, name string) *Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	process := newProcess(r.nextID, name, m)
	r.nextID++
	r.processes[process.ID] = process
	if parent != nil {
		process.parentID = parent.ID
		parent.children[process.ID] = process
	}
	return process
}

// Lookup returns the live process with the given id, or nil.
func (r *Registry) Lookup(pid int) *Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processes[pid]
}

// Count returns the number of live processes.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.processes)
}

// ParentOf returns the pid of the process's parent, NoProcessID when
// orphaned or never adopted.
func (r *Registry) ParentOf(p *Process) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return p.parentID
}

// Child returns parent's child with the given pid, or nil. A child consumed
// by a previous join is gone from the map and yields nil.
func (r *Registry) Child(parent *Process, pid int) *Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return parent.children[pid]
}

// Children returns a snapshot of parent's current children.
func (r *Registry) Children(parent *Process) []*Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Process, 0, len(parent.children))
	for _, child := range parent.children {
		out = append(out, child)
	}
	return out
}

// ReleaseChild removes pid from parent's child map and clears the child's
// parent link, enforcing at-most-once join. Returns the removed child, nil
// if there was none.
func (r *Registry) ReleaseChild(parent *Process, pid int) *Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	child := parent.children[pid]
	if child == nil {
		return nil
	}
	delete(parent.children, pid)
	child.parentID = NoProcessID
	return child
}

// OrphanChildren clears the parent link of every child of p, leaving the
// children running. Called on p's exit path; returns the orphan count.
func (r *Registry) OrphanChildren(p *Process) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(p.children)
	for pid, child := range p.children {
		child.parentID = NoProcessID
		delete(p.children, pid)
	}
	return n
}

// Remove drops an exited process from the pid table. Parents that still
// hold the process in their child map keep their reference for join.
func (r *Registry) Remove(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.processes, pid)
}

// Discard unregisters a process whose exec failed after registration: it is
// unlinked from its parent and dropped from the pid table, so the failed
// exec leaves no live child behind.
func (r *Registry) Discard(p *Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if parent := r.processes[p.parentID]; parent != nil {
		delete(parent.children, p.ID)
	}
	p.parentID = NoProcessID
	delete(r.processes, p.ID)
}
